package matching

import "github.com/Ramsey-B/fern/pkg/models"

// Outranks reports whether a should win over b when both match equally well.
// Higher known revenue wins; unknown revenue sorts last; the earlier ingested record
// breaks remaining ties.
func Outranks(a, b *models.ReferenceRecord) bool {
	switch {
	case a.Revenue != nil && b.Revenue == nil:
		return true
	case a.Revenue == nil && b.Revenue != nil:
		return false
	case a.Revenue != nil && *a.Revenue != *b.Revenue:
		return *a.Revenue > *b.Revenue
	}
	return a.Ordinal < b.Ordinal
}

// SelectReference returns the winning record among equally good candidates.
func SelectReference(candidates []*models.ReferenceRecord) *models.ReferenceRecord {
	var best *models.ReferenceRecord
	for _, c := range candidates {
		if best == nil || Outranks(c, best) {
			best = c
		}
	}
	return best
}
