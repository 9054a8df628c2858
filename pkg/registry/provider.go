package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tabular"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Provider loads a fresh registry snapshot
type Provider interface {
	Name() string
	Load(ctx context.Context) (*Snapshot, error)
}

// filePatterns are read in this order; files within a pattern in lexical order
var filePatterns = []string{"*.csv", "*.txt"}

// DirectoryProvider reads every delimited file in a folder as one registry.
// Unreadable files are skipped with a warning.
type DirectoryProvider struct {
	logger   ectologger.Logger
	dir      string
	columns  Columns
	detector *matching.FieldDetector
}

func NewDirectoryProvider(logger ectologger.Logger, dir string, columns Columns, detector *matching.FieldDetector) *DirectoryProvider {
	return &DirectoryProvider{logger: logger, dir: dir, columns: columns, detector: detector}
}

func (p *DirectoryProvider) Name() string { return "directory" }

func (p *DirectoryProvider) Load(ctx context.Context) (*Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.DirectoryProvider.Load")
	defer span.End()

	table, err := p.ReadTable(ctx)
	if err != nil {
		return nil, err
	}
	return Build(table, p.columns, p.detector, p.Name()+":"+p.dir)
}

// ReadTable concatenates every readable registry file in the folder
func (p *DirectoryProvider) ReadTable(ctx context.Context) (*tabular.Table, error) {
	log := p.logger.WithContext(ctx).WithField("dir", p.dir)

	var files []string
	for _, pattern := range filePatterns {
		matches, err := filepath.Glob(filepath.Join(p.dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid registry pattern %s: %w", pattern, err)
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, errors.NewRegistryUnavailable(fmt.Sprintf("no registry files found in %s", p.dir), nil)
	}

	var combined *tabular.Table
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, err := readFile(file)
		if err != nil {
			log.WithError(err).WithField("file", file).Warn("skipping unreadable registry file")
			continue
		}
		log.WithFields(map[string]any{
			"file":     file,
			"rows":     table.Len(),
			"warnings": len(table.Warnings),
			"encoding": table.Encoding,
		}).Debug("read registry file")

		if combined == nil {
			combined = table
		} else {
			combined.Append(table)
		}
	}

	if combined == nil {
		return nil, errors.NewRegistryUnavailable(fmt.Sprintf("no readable registry files in %s", p.dir), nil)
	}
	return combined, nil
}

func readFile(path string) (*tabular.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return tabular.ReadCSV(f, tabular.CSVOptions{HeaderNormalizers: []string{"header"}})
}

// RecordLister lists stored registry records in ingestion order
type RecordLister interface {
	ListAll(ctx context.Context) ([]*models.ReferenceRecord, error)
}

// PostgresProvider serves the registry stored by `fern registry import`
type PostgresProvider struct {
	logger ectologger.Logger
	repo   RecordLister
}

func NewPostgresProvider(logger ectologger.Logger, repo RecordLister) *PostgresProvider {
	return &PostgresProvider{logger: logger, repo: repo}
}

func (p *PostgresProvider) Name() string { return "postgres" }

func (p *PostgresProvider) Load(ctx context.Context) (*Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.PostgresProvider.Load")
	defer span.End()

	records, err := p.repo.ListAll(ctx)
	if err != nil {
		return nil, errors.NewRegistryUnavailable("failed to list registry records", err)
	}
	if len(records) == 0 {
		return nil, errors.NewRegistryUnavailable("registry table is empty", nil)
	}
	return NewSnapshot(records, p.Name(), "name"), nil
}

// RecordWriter stores registry records
type RecordWriter interface {
	UpsertBatch(ctx context.Context, records []*models.ReferenceRecord) (int64, error)
}

// Import writes every snapshot record through writer in batches, returning the
// number of rows written
func Import(ctx context.Context, logger ectologger.Logger, snapshot *Snapshot, writer RecordWriter, batchSize int) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.Import")
	defer span.End()

	if batchSize <= 0 {
		batchSize = 1000
	}

	records := snapshot.Records()
	var written int64
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		n, err := writer.UpsertBatch(ctx, records[start:end])
		if err != nil {
			return written, fmt.Errorf("failed to import records %d-%d: %w", start, end, err)
		}
		written += n
		logger.WithContext(ctx).Debugf("imported registry records %d-%d", start, end)
	}

	logger.WithContext(ctx).WithFields(map[string]any{
		"records": len(records),
		"written": written,
	}).Info("registry import complete")
	return written, nil
}
