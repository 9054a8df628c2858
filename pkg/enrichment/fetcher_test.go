package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/httpclient"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

const redCrossBody = `{"organization":{"employee_count":18000,"website":"redcross.org","mission":"disaster relief",
	"officers":[{"name":"Jane Doe","title":"CEO","compensation":500000}]}}`

// stubService serves /{id}.json from a fixed map of bodies; unknown ids get 404.
func stubService(t *testing.T, bodies map[string]string, calls *int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt64(calls, 1)
		}
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".json")
		switch id {
		case "slow":
			time.Sleep(200 * time.Millisecond)
		case "broken":
			_, _ = w.Write([]byte(`{not json`))
			return
		case "throttled":
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		body, ok := bodies[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestFetcher(server *httptest.Server, cache Cache) *Fetcher {
	return NewFetcher(Config{
		BaseURL:        server.URL,
		FilingBaseURL:  filingBase,
		MaxConcurrency: 4,
		RequestTimeout: 50 * time.Millisecond,
	}, httpclient.NewClient(httpclient.DefaultConfig(), noopLogger()), cache, noopLogger())
}

func TestFetcher_FetchAll(t *testing.T) {
	server := stubService(t, map[string]string{
		"131624102": redCrossBody,
		"222":       `{"organization":{"website":"example.org"}}`,
	}, nil)
	fetcher := newTestFetcher(server, nil)

	profiles, report := fetcher.FetchAll(context.Background(),
		[]string{"131624102", "222", "", "131624102", "missing", "broken", "slow", "throttled"})

	require.Len(t, profiles, 2)
	assert.Equal(t, "Jane Doe (CEO) - $500000", profiles["131624102"].KeyPersonnel)
	assert.Contains(t, profiles["131624102"].FilingLink, "131624102")
	assert.Equal(t, "example.org", *profiles["222"].Website)
	assert.Nil(t, profiles["222"].EmployeeCount)

	for _, id := range []string{"missing", "broken", "slow", "throttled"} {
		_, ok := profiles[id]
		assert.False(t, ok, id)
	}

	assert.Equal(t, 6, report.Requested)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 4, report.Failed)
	assert.Equal(t, 2, report.Outcomes[OutcomeSuccess])
	assert.Equal(t, 1, report.Outcomes[OutcomeHTTPStatus])
	assert.Equal(t, 1, report.Outcomes[OutcomeDecode])
	assert.Equal(t, 1, report.Outcomes[OutcomeTimeout])
	assert.Equal(t, 1, report.Outcomes[OutcomeRateLimited])
}

func TestFetcher_AllFailuresStillReturn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := server.URL
	server.Close()

	fetcher := NewFetcher(Config{BaseURL: url, FilingBaseURL: filingBase},
		httpclient.NewClient(httpclient.DefaultConfig(), noopLogger()), nil, noopLogger())

	profiles, report := fetcher.FetchAll(context.Background(), []string{"a", "b"})
	assert.Empty(t, profiles)
	assert.Equal(t, 2, report.Outcomes[OutcomeTransport])
}

func TestFetcher_EmptyInput(t *testing.T) {
	fetcher := NewFetcher(Config{}, nil, nil, noopLogger())
	profiles, report := fetcher.FetchAll(context.Background(), nil)
	assert.Empty(t, profiles)
	assert.Equal(t, 0, report.Requested)
}

func TestFetcher_UsesCache(t *testing.T) {
	var calls int64
	server := stubService(t, map[string]string{"131624102": redCrossBody}, &calls)
	cache := NewMemoryCache(DefaultMemoryCacheConfig())
	fetcher := newTestFetcher(server, cache)

	_, first := fetcher.FetchAll(context.Background(), []string{"131624102", "missing"})
	assert.Equal(t, 1, first.Outcomes[OutcomeSuccess])

	profiles, second := fetcher.FetchAll(context.Background(), []string{"131624102", "missing"})
	assert.Equal(t, 1, second.Outcomes[OutcomeCacheHit])
	assert.Equal(t, "Jane Doe (CEO) - $500000", profiles["131624102"].KeyPersonnel)

	// failures are not cached: "missing" is requested twice, the profile once
	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
}

type gatedGetter struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (g *gatedGetter) Get(_ context.Context, _ string, _ map[string]string) (*httpclient.Response, error) {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.peak {
		g.peak = g.inFlight
	}
	g.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	g.mu.Lock()
	g.inFlight--
	g.mu.Unlock()
	return &httpclient.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
}

func TestFetcher_ConcurrencyCap(t *testing.T) {
	getter := &gatedGetter{}
	fetcher := NewFetcher(Config{MaxConcurrency: 3, FilingBaseURL: filingBase}, getter, nil, noopLogger())

	ids := make([]string, 12)
	for i := range ids {
		ids[i] = string(rune('a' + i))
	}
	profiles, _ := fetcher.FetchAll(context.Background(), ids)

	assert.Len(t, profiles, 12)
	assert.LessOrEqual(t, getter.peak, 3)
	assert.Greater(t, getter.peak, 0)
}

func TestFetcher_CancelledContext(t *testing.T) {
	server := stubService(t, map[string]string{"1": `{}`}, nil)
	fetcher := newTestFetcher(server, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	profiles, report := fetcher.FetchAll(ctx, []string{"1"})
	assert.Empty(t, profiles)
	assert.Equal(t, 1, report.Outcomes[OutcomeCancelled])
}
