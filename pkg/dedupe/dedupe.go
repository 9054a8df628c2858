// Package dedupe merges match and enrichment results into output records and removes duplicates.
package dedupe

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	PassIdentifier = "identifier"
	PassName       = "name"
)

// KeyFunc returns the grouping key for a record. ok=false leaves the record ungrouped.
type KeyFunc func(r *models.EnrichedRecord) (key string, ok bool)

// Pass is one elimination round keyed by Key
type Pass struct {
	Name string
	Key  KeyFunc
}

// ByIdentifier groups resolved records by identifier. Unresolved records never collide.
func ByIdentifier(r *models.EnrichedRecord) (string, bool) {
	id := r.Identifier()
	return id, id != ""
}

// ByNormalizedName groups every record by its normalized source name.
func ByNormalizedName(r *models.EnrichedRecord) (string, bool) {
	return r.Upload.NormalizedName, true
}

// DefaultPasses is identifier first, then name. Reordering them changes which records survive.
func DefaultPasses() []Pass {
	return []Pass{
		{Name: PassIdentifier, Key: ByIdentifier},
		{Name: PassName, Key: ByNormalizedName},
	}
}

// Stats counts records dropped per pass
type Stats struct {
	Dropped map[string]int `json:"dropped"`
}

// Merge attaches each upload's match and the profile for its identifier.
// records and matches are parallel slices. Missing profiles leave Enrichment nil.
func Merge(records []models.UploadedRecord, matches []models.MatchResult, profiles map[string]*models.EnrichmentRecord) []models.EnrichedRecord {
	out := make([]models.EnrichedRecord, len(records))
	for i, rec := range records {
		out[i].Upload = rec
		if i < len(matches) {
			out[i].Match = matches[i]
		} else {
			out[i].Match = models.Unmatched()
		}
		if id := out[i].Match.Identifier; id != "" && out[i].Match.Resolved() {
			out[i].Enrichment = profiles[id]
		}
	}
	return out
}

// Deduplicator applies its passes in order
type Deduplicator struct {
	passes []Pass
	logger ectologger.Logger
}

// NewDeduplicator creates a Deduplicator; no passes means DefaultPasses.
func NewDeduplicator(logger ectologger.Logger, passes ...Pass) *Deduplicator {
	if len(passes) == 0 {
		passes = DefaultPasses()
	}
	return &Deduplicator{passes: passes, logger: logger}
}

// Deduplicate keeps one record per key in each pass. The survivor has the highest known
// revenue, unknown revenue last, and the earlier record wins ties. Survivors keep their
// relative input order. The input slice is not modified.
func (d *Deduplicator) Deduplicate(ctx context.Context, records []models.EnrichedRecord) ([]models.EnrichedRecord, Stats) {
	_, span := tracing.StartSpan(ctx, "dedupe.Deduplicator.Deduplicate")
	defer span.End()

	stats := Stats{Dropped: make(map[string]int, len(d.passes))}
	current := records
	for _, pass := range d.passes {
		kept := dedupeBy(current, pass.Key)
		dropped := len(current) - len(kept)
		stats.Dropped[pass.Name] = dropped
		metrics.RecordDedupe(pass.Name, dropped)
		current = kept
	}

	d.logger.WithContext(ctx).WithFields(map[string]any{
		"input":   len(records),
		"output":  len(current),
		"dropped": stats.Dropped,
	}).Debug("Deduplicated records")

	return current, stats
}

func dedupeBy(records []models.EnrichedRecord, key KeyFunc) []models.EnrichedRecord {
	winners := make(map[string]int, len(records))
	for i := range records {
		k, ok := key(&records[i])
		if !ok {
			continue
		}
		if w, seen := winners[k]; !seen || outranks(&records[i], &records[w]) {
			winners[k] = i
		}
	}

	kept := make([]models.EnrichedRecord, 0, len(winners))
	for i := range records {
		k, ok := key(&records[i])
		if !ok || winners[k] == i {
			kept = append(kept, records[i])
		}
	}
	return kept
}

// outranks reports whether a beats an earlier record b
func outranks(a, b *models.EnrichedRecord) bool {
	ra, rb := a.Revenue(), b.Revenue()
	switch {
	case ra != nil && rb == nil:
		return true
	case ra == nil || rb == nil:
		return false
	}
	return *ra > *rb
}
