package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Store holds the active snapshot. Readers never block; a refresh swaps in a
// new snapshot only once it loaded successfully.
type Store struct {
	logger   ectologger.Logger
	provider Provider
	interval time.Duration

	current   atomic.Pointer[Snapshot]
	refreshMu sync.Mutex
}

// NewStore creates a store. interval <= 0 disables periodic refresh in Run.
func NewStore(logger ectologger.Logger, provider Provider, interval time.Duration) *Store {
	return &Store{logger: logger, provider: provider, interval: interval}
}

// Current returns the active snapshot
func (s *Store) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, errors.NewRegistryUnavailable("registry snapshot not loaded", nil)
	}
	return snap, nil
}

// Loaded reports whether a snapshot is available
func (s *Store) Loaded() bool {
	return s.current.Load() != nil
}

// Refresh loads a new snapshot from the provider. On failure the previous
// snapshot stays active.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "registry.Store.Refresh")
	defer span.End()

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	log := s.logger.WithContext(ctx).WithField("provider", s.provider.Name())
	start := time.Now()

	snap, err := s.provider.Load(ctx)
	if err != nil {
		metrics.RecordRegistryRefresh("failure", 0)
		log.WithError(err).Error("registry refresh failed")
		return nil, err
	}

	s.current.Store(snap)
	metrics.RecordRegistryRefresh("success", snap.Len())

	info := snap.Info()
	log.WithFields(map[string]any{
		"version":        info.Version,
		"records":        info.Records,
		"distinct_names": info.DistinctNames,
		"skipped_rows":   info.SkippedRows,
		"name_column":    info.NameColumn,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Info("registry snapshot loaded")

	return snap, nil
}

// Run refreshes on the configured interval until ctx is done
func (s *Store) Run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// failures are logged by Refresh and the old snapshot keeps serving
			_, _ = s.Refresh(ctx)
		}
	}
}
