package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// MatcherConfig contains configuration for the default resolver chain
type MatcherConfig struct {
	FuzzyEnabled   bool
	FuzzyThreshold int
}

// DefaultMatcherConfig returns default matcher configuration
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		FuzzyEnabled:   true,
		FuzzyThreshold: DefaultFuzzyThreshold,
	}
}

// MatchStats counts outcomes of a MatchAll call
type MatchStats struct {
	Exact     int `json:"exact"`
	Fuzzy     int `json:"fuzzy"`
	Unmatched int `json:"unmatched"`
	Ambiguous int `json:"ambiguous"`
}

// Matcher runs each uploaded record through an ordered resolver chain; the first
// resolver to answer wins and records nobody resolves are unmatched
type Matcher struct {
	logger    ectologger.Logger
	resolvers []Resolver
}

func NewMatcher(logger ectologger.Logger, resolvers ...Resolver) *Matcher {
	return &Matcher{logger: logger, resolvers: resolvers}
}

// NewDefaultMatcher builds the exact-then-fuzzy chain over index
func NewDefaultMatcher(logger ectologger.Logger, index ReferenceIndex, similarity Similarity, config MatcherConfig) *Matcher {
	resolvers := []Resolver{NewExactMatcher(index)}
	if config.FuzzyEnabled {
		resolvers = append(resolvers, NewFuzzyMatcher(index, FullScan{Index: index}, similarity, config.FuzzyThreshold))
	}
	return NewMatcher(logger, resolvers...)
}

// MatchAll returns one MatchResult per record, in record order
func (m *Matcher) MatchAll(ctx context.Context, records []models.UploadedRecord) ([]models.MatchResult, MatchStats, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Matcher.MatchAll")
	defer span.End()

	log := m.logger.WithContext(ctx)
	results := make([]models.MatchResult, len(records))
	var stats MatchStats

	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		record := &records[i]
		result := models.Unmatched()
		for _, resolver := range m.resolvers {
			resolution, ok := resolver.Resolve(record)
			if !ok {
				continue
			}
			result = resolution.Result
			if resolution.Candidates > 1 {
				stats.Ambiguous++
				metrics.RecordAmbiguity(string(resolver.Method()))
				log.WithError(errors.NewMatchAmbiguity(record.NormalizedName, resolution.Candidates)).WithFields(map[string]any{
					"method":     resolver.Method(),
					"identifier": result.Identifier,
				}).Debug("resolved ambiguous match by revenue and ingestion order")
			}
			break
		}

		switch result.Method {
		case models.MatchMethodExact:
			stats.Exact++
		case models.MatchMethodFuzzy:
			stats.Fuzzy++
		default:
			stats.Unmatched++
		}
		metrics.RecordMatch(string(result.Method))
		results[i] = result
	}

	log.WithFields(map[string]any{
		"records":   len(records),
		"exact":     stats.Exact,
		"fuzzy":     stats.Fuzzy,
		"unmatched": stats.Unmatched,
		"ambiguous": stats.Ambiguous,
	}).Info("matched uploaded records")

	return results, stats, nil
}
