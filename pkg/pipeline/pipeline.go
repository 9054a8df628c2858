// Package pipeline runs one upload through name resolution, enrichment and deduplication.
package pipeline

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	reqctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/dedupe"
	"github.com/Ramsey-B/fern/pkg/enrichment"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tabular"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Snapshot is the registry view a run matches against
type Snapshot interface {
	matching.ReferenceIndex
	Version() string
}

// Enricher fetches profiles for resolved identifiers. Missing map entries mean no profile.
type Enricher interface {
	FetchAll(ctx context.Context, identifiers []string) (map[string]*models.EnrichmentRecord, enrichment.Report)
}

// Publisher receives an event after every successful run
type Publisher interface {
	PublishRunCompleted(ctx context.Context, event models.RunCompletedEvent) error
}

// Config configures a Pipeline
type Config struct {
	ColumnThreshold  int
	FuzzyEnabled     bool
	FuzzyThreshold   int
	IdentifierColumn string
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() Config {
	return Config{
		ColumnThreshold:  matching.DefaultColumnThreshold,
		FuzzyEnabled:     true,
		FuzzyThreshold:   matching.DefaultFuzzyThreshold,
		IdentifierColumn: DefaultIdentifierColumn,
	}
}

// Result is the outcome of one run
type Result struct {
	RunID           string                  `json:"run_id"`
	SnapshotVersion string                  `json:"snapshot_version"`
	NameField       string                  `json:"name_field"`
	Detection       matching.Detection      `json:"detection"`
	Stats           models.RunStats         `json:"stats"`
	Enrichment      enrichment.Report       `json:"enrichment"`
	Records         []models.EnrichedRecord `json:"-"`
	Output          *tabular.Table          `json:"-"`
	Warnings        []tabular.Warning       `json:"warnings,omitempty"`
}

// Pipeline is safe for concurrent runs; each Run builds its own matcher.
type Pipeline struct {
	logger       ectologger.Logger
	config       Config
	similarity   matching.Similarity
	enricher     Enricher
	publisher    Publisher
	deduplicator *dedupe.Deduplicator
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithEnricher sets the profile fetcher. Without one no enrichment happens.
func WithEnricher(e Enricher) Option {
	return func(p *Pipeline) { p.enricher = e }
}

// WithPublisher sets the run event publisher
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithSimilarity replaces the default scorer
func WithSimilarity(s matching.Similarity) Option {
	return func(p *Pipeline) { p.similarity = s }
}

// NewPipeline creates a new Pipeline
func NewPipeline(logger ectologger.Logger, config Config, opts ...Option) *Pipeline {
	if config.IdentifierColumn == "" {
		config.IdentifierColumn = DefaultIdentifierColumn
	}
	p := &Pipeline{
		logger:       logger,
		config:       config,
		similarity:   matching.NewScorer(),
		deduplicator: dedupe.NewDeduplicator(logger),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run resolves, enriches and deduplicates the rows of upload against snapshot.
// Column detection and registry failures abort the run before any output exists;
// enrichment failures never do.
func (p *Pipeline) Run(ctx context.Context, snapshot Snapshot, upload *tabular.Table) (*Result, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.Pipeline.Run")
	defer span.End()

	start := time.Now()
	runID := uuid.NewString()
	ctx = reqctx.SetRunID(ctx, runID)
	log := p.logger.WithContext(ctx).WithField("run_id", runID)

	result, err := p.run(ctx, runID, snapshot, upload)
	if err != nil {
		metrics.RecordPipelineRun("failure", time.Since(start).Seconds())
		log.WithError(err).Error("Pipeline run failed")
		return nil, err
	}
	result.Stats.Duration = time.Since(start)
	metrics.RecordPipelineRun("success", result.Stats.Duration.Seconds())

	log.WithFields(map[string]any{
		"name_field": result.NameField,
		"uploaded":   result.Stats.Uploaded,
		"exact":      result.Stats.Exact,
		"fuzzy":      result.Stats.Fuzzy,
		"unmatched":  result.Stats.Unmatched,
		"enriched":   result.Stats.Enriched,
		"output":     result.Stats.Output,
		"duration":   result.Stats.Duration.String(),
	}).Info("Pipeline run complete")

	p.publish(ctx, result)
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, runID string, snapshot Snapshot, table *tabular.Table) (*Result, error) {
	if snapshot == nil {
		return nil, errors.NewRegistryUnavailable("no registry snapshot available", nil)
	}
	if table == nil {
		return nil, errors.NewColumnDetectionFailure("no upload provided")
	}

	upload, detection, err := PrepareUpload(table, matching.UploadFieldDetector(p.similarity, p.config.ColumnThreshold))
	if err != nil {
		return nil, err
	}

	matcher := matching.NewDefaultMatcher(p.logger, snapshot, p.similarity, matching.MatcherConfig{
		FuzzyEnabled:   p.config.FuzzyEnabled,
		FuzzyThreshold: p.config.FuzzyThreshold,
	})
	matches, matchStats, err := matcher.MatchAll(ctx, upload.Records)
	if err != nil {
		return nil, err
	}

	var profiles map[string]*models.EnrichmentRecord
	var report enrichment.Report
	if p.enricher != nil {
		profiles, report = p.enricher.FetchAll(ctx, resolvedIdentifiers(matches))
	}

	merged := dedupe.Merge(upload.Records, matches, profiles)
	final, dedupeStats := p.deduplicator.Deduplicate(ctx, merged)

	return &Result{
		RunID:           runID,
		SnapshotVersion: snapshot.Version(),
		NameField:       upload.NameField,
		Detection:       detection,
		Enrichment:      report,
		Records:         final,
		Output:          Render(upload.Columns, final, p.config.IdentifierColumn),
		Warnings:        table.Warnings,
		Stats: models.RunStats{
			Uploaded:               len(upload.Records),
			Exact:                  matchStats.Exact,
			Fuzzy:                  matchStats.Fuzzy,
			Unmatched:              matchStats.Unmatched,
			IdentifiersRequested:   report.Requested,
			Enriched:               report.Succeeded,
			EnrichmentFailed:       report.Failed,
			DuplicatesByIdentifier: dedupeStats.Dropped[dedupe.PassIdentifier],
			DuplicatesByName:       dedupeStats.Dropped[dedupe.PassName],
			Output:                 len(final),
		},
	}, nil
}

func (p *Pipeline) publish(ctx context.Context, result *Result) {
	if p.publisher == nil {
		return
	}
	event := models.RunCompletedEvent{
		RunID:           result.RunID,
		SnapshotVersion: result.SnapshotVersion,
		NameField:       result.NameField,
		Stats:           result.Stats,
		CompletedAt:     time.Now().UTC(),
	}
	if err := p.publisher.PublishRunCompleted(ctx, event); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("run_id", result.RunID).Warn("Failed to publish run event")
	}
}

// resolvedIdentifiers returns each resolved identifier once, in first-seen order
func resolvedIdentifiers(matches []models.MatchResult) []string {
	seen := make(map[string]struct{}, len(matches))
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		if !m.Resolved() {
			continue
		}
		if _, ok := seen[m.Identifier]; ok {
			continue
		}
		seen[m.Identifier] = struct{}{}
		ids = append(ids, m.Identifier)
	}
	return ids
}
