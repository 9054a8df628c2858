// Package enrichment fetches remote profiles for resolved identifiers.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	reqctx "github.com/Ramsey-B/fern/pkg/context"
	pipelineerrors "github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/httpclient"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Outcome classifies one identifier's fetch
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeCacheHit    Outcome = "cache_hit"
	OutcomeHTTPStatus  Outcome = "http_status"
	OutcomeTransport   Outcome = "transport"
	OutcomeDecode      Outcome = "decode"
	OutcomeTimeout     Outcome = "timeout"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeCancelled   Outcome = "cancelled"
)

// Succeeded reports whether the outcome produced a profile
func (o Outcome) Succeeded() bool {
	return o == OutcomeSuccess || o == OutcomeCacheHit
}

const (
	DefaultMaxConcurrency = 20
	DefaultRequestTimeout = 15 * time.Second
)

// Getter issues a GET and returns the fully read response
type Getter interface {
	Get(ctx context.Context, url string, headers map[string]string) (*httpclient.Response, error)
}

// Config configures the Fetcher
type Config struct {
	BaseURL        string
	FilingBaseURL  string
	MaxConcurrency int
	RequestTimeout time.Duration
	// RateLimit is requests per second across the batch; 0 disables limiting.
	RateLimit float64
	RateBurst int
}

// Report summarizes one FetchAll call
type Report struct {
	Requested int             `json:"requested"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Outcomes  map[Outcome]int `json:"outcomes"`
}

// Fetcher retrieves profiles concurrently with per-identifier failure isolation.
// A Fetcher is safe for concurrent use.
type Fetcher struct {
	client  Getter
	cache   Cache
	limiter *rate.Limiter
	cfg     Config
	logger  ectologger.Logger
}

// NewFetcher creates a new Fetcher. cache may be nil.
func NewFetcher(cfg Config, client Getter, cache Cache, logger ectologger.Logger) *Fetcher {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Fetcher{
		client:  client,
		cache:   cache,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
	}
}

type fetchResult struct {
	record  *models.EnrichmentRecord
	outcome Outcome
}

// FetchAll fetches one profile per distinct non-empty identifier. Failed identifiers are
// absent from the returned map; FetchAll itself never fails.
func (f *Fetcher) FetchAll(ctx context.Context, identifiers []string) (map[string]*models.EnrichmentRecord, Report) {
	ctx, span := tracing.StartSpan(ctx, "enrichment.Fetcher.FetchAll")
	defer span.End()

	ids := distinct(identifiers)
	results := make([]fetchResult, len(ids))

	g := new(errgroup.Group)
	g.SetLimit(f.cfg.MaxConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			record, outcome := f.fetch(ctx, id)
			results[i] = fetchResult{record: record, outcome: outcome}
			return nil
		})
	}
	_ = g.Wait()

	profiles := make(map[string]*models.EnrichmentRecord, len(ids))
	report := Report{Requested: len(ids), Outcomes: make(map[Outcome]int)}
	for i, res := range results {
		report.Outcomes[res.outcome]++
		if res.outcome.Succeeded() && res.record != nil {
			profiles[ids[i]] = res.record
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	f.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":    reqctx.GetRunID(ctx),
		"requested": report.Requested,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
	}).Info("Enrichment batch complete")

	return profiles, report
}

func (f *Fetcher) fetch(ctx context.Context, identifier string) (*models.EnrichmentRecord, Outcome) {
	ctx, span := tracing.StartSpan(ctx, "enrichment.Fetcher.fetch")
	defer span.End()

	start := time.Now()
	record, outcome, err := f.fetchProfile(ctx, identifier)
	metrics.RecordEnrichment(string(outcome), time.Since(start).Seconds())

	if err != nil {
		f.logger.WithContext(ctx).
			WithError(pipelineerrors.NewEnrichmentFailure(identifier, err)).
			WithFields(map[string]any{
				"outcome": string(outcome),
				"run_id":  reqctx.GetRunID(ctx),
			}).
			Warn("Enrichment failed")
		return nil, outcome
	}
	return record, outcome
}

func (f *Fetcher) fetchProfile(ctx context.Context, identifier string) (*models.EnrichmentRecord, Outcome, error) {
	if f.cache != nil {
		record, ok, err := f.cache.Get(ctx, identifier)
		if err != nil {
			f.logger.WithContext(ctx).WithError(err).Warnf("Enrichment cache read failed for %s", identifier)
		} else if ok {
			return record, OutcomeCacheHit, nil
		}
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, OutcomeRateLimited, fmt.Errorf("rate limiter: %w", err)
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	resp, err := f.client.Get(reqCtx, ProfileURL(f.cfg.BaseURL, identifier), map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, OutcomeCancelled, err
		case errors.Is(reqCtx.Err(), context.DeadlineExceeded):
			return nil, OutcomeTimeout, err
		default:
			return nil, OutcomeTransport, err
		}
	}

	if resp.StatusCode != http.StatusOK {
		if httpclient.IsRateLimitStatus(resp.StatusCode) {
			return nil, OutcomeRateLimited, fmt.Errorf("lookup service returned %d", resp.StatusCode)
		}
		return nil, OutcomeHTTPStatus, fmt.Errorf("lookup service returned %d", resp.StatusCode)
	}

	record, err := DecodeProfile(identifier, f.cfg.FilingBaseURL, resp.Body)
	if err != nil {
		return nil, OutcomeDecode, err
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, record); err != nil {
			f.logger.WithContext(ctx).WithError(err).Warnf("Enrichment cache write failed for %s", identifier)
		}
	}

	return record, OutcomeSuccess, nil
}

func distinct(identifiers []string) []string {
	seen := make(map[string]struct{}, len(identifiers))
	out := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
