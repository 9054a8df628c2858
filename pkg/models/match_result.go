package models

// MatchMethod records how an uploaded record was resolved
type MatchMethod string

const (
	MatchMethodExact MatchMethod = "exact"
	MatchMethodFuzzy MatchMethod = "fuzzy"
	MatchMethodNone  MatchMethod = "none"
)

// MatchResult is the resolution outcome for one UploadedRecord.
//
// Exact results carry no score, fuzzy results always carry one, and unresolved
// results carry neither an identifier nor a reference.
type MatchResult struct {
	Identifier string           `json:"identifier,omitempty"`
	Method     MatchMethod      `json:"method"`
	Score      *int             `json:"score,omitempty"`
	Reference  *ReferenceRecord `json:"reference,omitempty"`
}

// Unmatched returns the MatchResult for a record nothing resolved.
func Unmatched() MatchResult {
	return MatchResult{Method: MatchMethodNone}
}

// ExactMatch builds an exact MatchResult for ref.
func ExactMatch(ref *ReferenceRecord) MatchResult {
	return MatchResult{Identifier: ref.Identifier, Method: MatchMethodExact, Reference: ref}
}

// FuzzyMatch builds a fuzzy MatchResult for ref with the winning score.
func FuzzyMatch(ref *ReferenceRecord, score int) MatchResult {
	return MatchResult{Identifier: ref.Identifier, Method: MatchMethodFuzzy, Score: &score, Reference: ref}
}

func (m MatchResult) Resolved() bool {
	return m.Method != MatchMethodNone && m.Identifier != ""
}
