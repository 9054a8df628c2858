package matching

import "github.com/Ramsey-B/fern/pkg/models"

// DefaultFuzzyThreshold is the minimum score a fuzzy match needs
const DefaultFuzzyThreshold = 85

// CandidateSource yields the registry names worth scoring for a name. An indexed
// source may prune, but must never drop a name that could score highest.
type CandidateSource interface {
	Candidates(normalizedName string) []string
}

// FullScan offers every distinct registry name
type FullScan struct {
	Index ReferenceIndex
}

func (f FullScan) Candidates(string) []string {
	return f.Index.DistinctNames()
}

type fuzzyOutcome struct {
	resolution Resolution
	ok         bool
}

// FuzzyMatcher resolves records to the best scoring registry name at or above the
// threshold. Outcomes are memoized per normalized name, so a FuzzyMatcher belongs
// to a single run and is not safe for concurrent use.
type FuzzyMatcher struct {
	index      ReferenceIndex
	candidates CandidateSource
	similarity Similarity
	threshold  int
	memo       map[string]fuzzyOutcome
}

func NewFuzzyMatcher(index ReferenceIndex, candidates CandidateSource, similarity Similarity, threshold int) *FuzzyMatcher {
	if candidates == nil {
		candidates = FullScan{Index: index}
	}
	return &FuzzyMatcher{
		index:      index,
		candidates: candidates,
		similarity: similarity,
		threshold:  threshold,
		memo:       make(map[string]fuzzyOutcome),
	}
}

func (m *FuzzyMatcher) Method() models.MatchMethod { return models.MatchMethodFuzzy }

func (m *FuzzyMatcher) Resolve(record *models.UploadedRecord) (Resolution, bool) {
	name := record.NormalizedName
	if name == "" {
		return Resolution{}, false
	}
	if cached, ok := m.memo[name]; ok {
		return cached.resolution, cached.ok
	}

	outcome := m.resolve(name)
	m.memo[name] = outcome
	return outcome.resolution, outcome.ok
}

func (m *FuzzyMatcher) resolve(name string) fuzzyOutcome {
	best := -1
	var tied []string
	for _, candidate := range m.candidates.Candidates(name) {
		score := m.similarity.Score(name, candidate)
		switch {
		case score > best:
			best = score
			tied = append(tied[:0], candidate)
		case score == best:
			tied = append(tied, candidate)
		}
	}
	if len(tied) == 0 || best < m.threshold {
		return fuzzyOutcome{}
	}

	var refs []*models.ReferenceRecord
	for _, candidate := range tied {
		refs = append(refs, m.index.Lookup(candidate)...)
	}
	winner := SelectReference(refs)
	if winner == nil {
		return fuzzyOutcome{}
	}

	return fuzzyOutcome{
		resolution: Resolution{Result: models.FuzzyMatch(winner, best), Candidates: len(refs)},
		ok:         true,
	}
}
