package registry

import (
	"math"
	"strconv"
	"strings"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tabular"
)

// Columns names the registry columns copied onto matches. Only Identifier is required.
type Columns struct {
	Identifier string
	Category   string
	Revenue    string
	Income     string
	Assets     string
}

// DefaultColumns are the IRS Exempt Organizations Business Master File column names
func DefaultColumns() Columns {
	return Columns{
		Identifier: "ein",
		Category:   "ntee_cd",
		Revenue:    "revenue_amt",
		Income:     "income_amt",
		Assets:     "asset_amt",
	}
}

// Build turns a registry table into a Snapshot. The name column is picked by
// detector; rows without an identifier are skipped.
func Build(table *tabular.Table, columns Columns, detector *matching.FieldDetector, source string) (*Snapshot, error) {
	if table == nil || table.Len() == 0 {
		return nil, errors.NewRegistryUnavailable("registry provider returned no rows", nil)
	}

	detection, err := detector.Detect(table.Columns)
	if err != nil {
		return nil, err
	}

	nameIdx := table.ColumnIndex(detection.Column)
	idIdx := table.ColumnIndex(columns.Identifier)
	if idIdx < 0 {
		return nil, errors.NewRegistryUnavailable("registry has no identifier column", nil).AddField(columns.Identifier)
	}
	categoryIdx := table.ColumnIndex(columns.Category)
	revenueIdx := table.ColumnIndex(columns.Revenue)
	incomeIdx := table.ColumnIndex(columns.Income)
	assetsIdx := table.ColumnIndex(columns.Assets)

	records := make([]*models.ReferenceRecord, 0, table.Len())
	skipped := 0
	for _, row := range table.Rows {
		id := strings.TrimSpace(row[idIdx])
		if id == "" {
			skipped++
			continue
		}
		records = append(records, &models.ReferenceRecord{
			Identifier:   id,
			Name:         row[nameIdx],
			CategoryCode: strings.TrimSpace(cell(row, categoryIdx)),
			Revenue:      ParseAmount(cell(row, revenueIdx)),
			Income:       ParseAmount(cell(row, incomeIdx)),
			Assets:       ParseAmount(cell(row, assetsIdx)),
		})
	}

	if len(records) == 0 {
		return nil, errors.NewRegistryUnavailable("registry has no rows with an identifier", nil).AddField(columns.Identifier)
	}

	snapshot := NewSnapshot(records, source, detection.Column)
	snapshot.skipped = skipped
	return snapshot, nil
}

// ParseAmount parses a financial cell. Blank, non-numeric and non-finite values are nil.
func ParseAmount(s string) *float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func cell(row []string, idx int) string {
	if idx < 0 {
		return ""
	}
	return row[idx]
}
