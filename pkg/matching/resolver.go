package matching

import "github.com/Ramsey-B/fern/pkg/models"

// ReferenceIndex is the read side of a registry snapshot the matchers work against
type ReferenceIndex interface {
	// Lookup returns every record whose normalized name equals name, in ingestion order
	Lookup(normalizedName string) []*models.ReferenceRecord
	// DistinctNames returns every normalized name once, in first-seen order
	DistinctNames() []string
}

// Resolution is a resolver's answer for one record
type Resolution struct {
	Result models.MatchResult
	// Candidates is how many registry records were tied for the win
	Candidates int
}

// Resolver tries to resolve one uploaded record. It returns false to defer to the
// next resolver in line.
type Resolver interface {
	Method() models.MatchMethod
	Resolve(record *models.UploadedRecord) (Resolution, bool)
}
