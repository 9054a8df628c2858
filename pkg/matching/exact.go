package matching

import "github.com/Ramsey-B/fern/pkg/models"

// ExactMatcher resolves records whose normalized name equals a registry name
type ExactMatcher struct {
	index ReferenceIndex
}

func NewExactMatcher(index ReferenceIndex) *ExactMatcher {
	return &ExactMatcher{index: index}
}

func (m *ExactMatcher) Method() models.MatchMethod { return models.MatchMethodExact }

func (m *ExactMatcher) Resolve(record *models.UploadedRecord) (Resolution, bool) {
	if record.NormalizedName == "" {
		return Resolution{}, false
	}
	refs := m.index.Lookup(record.NormalizedName)
	if len(refs) == 0 {
		return Resolution{}, false
	}
	return Resolution{Result: models.ExactMatch(SelectReference(refs)), Candidates: len(refs)}, true
}
