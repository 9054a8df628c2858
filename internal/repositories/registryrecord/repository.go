package registryrecord

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const tableName = "registry_records"

var columns = []string{"ein", "name", "ntee_cd", "revenue_amt", "income_amt", "asset_amt", "ingest_order"}

// Repository stores registry records in Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new registry record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// ListAll returns every record in ingestion order
func (r *Repository) ListAll(ctx context.Context) ([]*models.ReferenceRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "RegistryRecordRepository.ListAll")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.OrderBy("ingest_order", "ein")

	query, args := sb.Build()

	var records []*models.ReferenceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to list registry records")
		return nil, fmt.Errorf("failed to list registry records: %w", err)
	}

	return records, nil
}

// GetByIdentifier returns one record, or nil when it does not exist
func (r *Repository) GetByIdentifier(ctx context.Context, identifier string) (*models.ReferenceRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "RegistryRecordRepository.GetByIdentifier")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(tableName)
	sb.Where(sb.Equal("ein", identifier))

	query, args := sb.Build()

	var record models.ReferenceRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("failed to get registry record")
		return nil, fmt.Errorf("failed to get registry record: %w", err)
	}

	return &record, nil
}

// Count returns the number of stored records
func (r *Repository) Count(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "RegistryRecordRepository.Count")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(tableName)

	query, args := sb.Build()

	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count registry records: %w", err)
	}
	return count, nil
}

// UpsertBatch inserts records, overwriting any with the same identifier. When a
// batch repeats an identifier the later record wins.
func (r *Repository) UpsertBatch(ctx context.Context, records []*models.ReferenceRecord) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "RegistryRecordRepository.UpsertBatch")
	defer span.End()

	records = lastByIdentifier(records)
	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName)
	ib.Cols(append(columns, "updated_at")...)
	for _, rec := range records {
		ib.Values(rec.Identifier, rec.Name, rec.CategoryCode, rec.Revenue, rec.Income, rec.Assets, rec.Ordinal, now)
	}

	ub := ib.OnConflict("ein")
	ub.Set(
		ub.Assign("name", database.Excluded("name")),
		ub.Assign("ntee_cd", database.Excluded("ntee_cd")),
		ub.Assign("revenue_amt", database.Excluded("revenue_amt")),
		ub.Assign("income_amt", database.Excluded("income_amt")),
		ub.Assign("asset_amt", database.Excluded("asset_amt")),
		ub.Assign("ingest_order", database.Excluded("ingest_order")),
		ub.Assign("updated_at", database.Excluded("updated_at")),
	)

	query, args := ib.Build()

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("records", len(records)).Error("failed to upsert registry records")
		return 0, fmt.Errorf("failed to upsert registry records: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return int64(len(records)), nil
	}
	return affected, nil
}

func lastByIdentifier(records []*models.ReferenceRecord) []*models.ReferenceRecord {
	last := make(map[string]int, len(records))
	for i, rec := range records {
		last[rec.Identifier] = i
	}
	if len(last) == len(records) {
		return records
	}

	out := make([]*models.ReferenceRecord, 0, len(last))
	for i, rec := range records {
		if last[rec.Identifier] == i {
			out = append(out, rec)
		}
	}
	return out
}
