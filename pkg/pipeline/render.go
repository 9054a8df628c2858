package pipeline

import (
	"strconv"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tabular"
)

// DefaultIdentifierColumn is the caller-facing name of the identifier column
const DefaultIdentifierColumn = "EIN"

const (
	registrySuffix   = "_registry"
	enrichmentSuffix = "_enrichment"
)

type outputColumn struct {
	name   string
	suffix string
	value  func(r *models.EnrichedRecord) string
}

func outputColumns(identifierColumn string) []outputColumn {
	if identifierColumn == "" {
		identifierColumn = DefaultIdentifierColumn
	}
	ref := func(fn func(*models.ReferenceRecord) string) func(*models.EnrichedRecord) string {
		return func(r *models.EnrichedRecord) string {
			if r.Match.Reference == nil {
				return ""
			}
			return fn(r.Match.Reference)
		}
	}
	profile := func(fn func(*models.EnrichmentRecord) string) func(*models.EnrichedRecord) string {
		return func(r *models.EnrichedRecord) string {
			if r.Enrichment == nil {
				return ""
			}
			return fn(r.Enrichment)
		}
	}

	return []outputColumn{
		{name: "match_method", suffix: registrySuffix, value: func(r *models.EnrichedRecord) string {
			return string(r.Match.Method)
		}},
		{name: "match_score", suffix: registrySuffix, value: func(r *models.EnrichedRecord) string {
			if r.Match.Score == nil {
				return ""
			}
			return strconv.Itoa(*r.Match.Score)
		}},
		{name: identifierColumn, suffix: registrySuffix, value: func(r *models.EnrichedRecord) string {
			return r.Identifier()
		}},
		{name: "registry_name", suffix: registrySuffix, value: ref(func(rr *models.ReferenceRecord) string { return rr.Name })},
		{name: "ntee_cd", suffix: registrySuffix, value: ref(func(rr *models.ReferenceRecord) string { return rr.CategoryCode })},
		{name: "revenue_amt", suffix: registrySuffix, value: ref(func(rr *models.ReferenceRecord) string { return formatAmount(rr.Revenue) })},
		{name: "income_amt", suffix: registrySuffix, value: ref(func(rr *models.ReferenceRecord) string { return formatAmount(rr.Income) })},
		{name: "asset_amt", suffix: registrySuffix, value: ref(func(rr *models.ReferenceRecord) string { return formatAmount(rr.Assets) })},
		{name: "Employees", suffix: enrichmentSuffix, value: profile(func(e *models.EnrichmentRecord) string {
			if e.EmployeeCount == nil {
				return ""
			}
			return strconv.FormatInt(*e.EmployeeCount, 10)
		})},
		{name: "Website", suffix: enrichmentSuffix, value: profile(func(e *models.EnrichmentRecord) string { return deref(e.Website) })},
		{name: "Mission", suffix: enrichmentSuffix, value: profile(func(e *models.EnrichmentRecord) string { return deref(e.Mission) })},
		{name: "990 Link", suffix: enrichmentSuffix, value: profile(func(e *models.EnrichmentRecord) string { return e.FilingLink })},
		{name: "Key Personnel", suffix: enrichmentSuffix, value: profile(func(e *models.EnrichmentRecord) string { return e.KeyPersonnel })},
	}
}

// Render lays records out as a table: the uploaded columns in upload order followed by
// the match, registry and enrichment columns. Appended columns that collide with an
// uploaded column get a suffix, numbered when the suffixed name is also taken. Unset values are empty cells.
func Render(uploadColumns []string, records []models.EnrichedRecord, identifierColumn string) *tabular.Table {
	appended := outputColumns(identifierColumn)

	taken := make(map[string]struct{}, len(uploadColumns)+len(appended))
	for _, c := range uploadColumns {
		taken[c] = struct{}{}
	}

	columns := append([]string(nil), uploadColumns...)
	for _, col := range appended {
		name := uniqueColumn(taken, col.name, col.suffix)
		taken[name] = struct{}{}
		columns = append(columns, name)
	}

	rows := make([][]string, len(records))
	for i := range records {
		r := &records[i]
		row := make([]string, 0, len(columns))
		for _, c := range uploadColumns {
			row = append(row, r.Upload.Fields[c])
		}
		for _, col := range appended {
			row = append(row, col.value(r))
		}
		rows[i] = row
	}

	return &tabular.Table{Columns: columns, Rows: rows, Encoding: "utf-8"}
}

// uniqueColumn returns name, or name+suffix, or name+suffix+"_N" for the lowest N >= 2
// that is not already taken.
func uniqueColumn(taken map[string]struct{}, name, suffix string) string {
	if _, clash := taken[name]; !clash {
		return name
	}
	candidate := name + suffix
	for n := 2; ; n++ {
		if _, clash := taken[candidate]; !clash {
			return candidate
		}
		candidate = name + suffix + "_" + strconv.Itoa(n)
	}
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
