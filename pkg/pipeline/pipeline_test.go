package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/enrichment"
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/httpclient"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/registry"
	"github.com/Ramsey-B/fern/pkg/tabular"
)

const redCrossProfile = `{"organization":{"employee_count":18000,"website":"redcross.org","mission":"disaster relief",
	"officers":[{"name":"Jane Doe","title":"CEO","compensation":500000}]}}`

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func amount(v float64) *float64 { return &v }

func testSnapshot() *registry.Snapshot {
	return registry.NewSnapshot([]*models.ReferenceRecord{
		{Identifier: "131624102", Name: "American Red Cross", CategoryCode: "P20", Revenue: amount(3e9)},
		{Identifier: "530196605", Name: "Salvation Army", CategoryCode: "X20", Revenue: amount(2e9)},
		{Identifier: "941196203", Name: "Habitat for Humanity", CategoryCode: "L20"},
	}, "test", "name")
}

type fakeEnricher struct {
	mu        sync.Mutex
	requested [][]string
	profiles  map[string]*models.EnrichmentRecord
}

func (f *fakeEnricher) FetchAll(_ context.Context, ids []string) (map[string]*models.EnrichmentRecord, enrichment.Report) {
	f.mu.Lock()
	f.requested = append(f.requested, append([]string(nil), ids...))
	f.mu.Unlock()

	out := make(map[string]*models.EnrichmentRecord)
	report := enrichment.Report{Requested: len(ids), Outcomes: map[enrichment.Outcome]int{}}
	for _, id := range ids {
		if p, ok := f.profiles[id]; ok {
			out[id] = p
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	return out, report
}

type recordingPublisher struct {
	events []models.RunCompletedEvent
}

func (r *recordingPublisher) PublishRunCompleted(_ context.Context, event models.RunCompletedEvent) error {
	r.events = append(r.events, event)
	return nil
}

func stubLookup(t *testing.T) *enrichment.Fetcher {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/131624102.json") {
			_, _ = w.Write([]byte(redCrossProfile))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	return enrichment.NewFetcher(enrichment.Config{
		BaseURL:       server.URL,
		FilingBaseURL: "https://example.org/organizations",
	}, httpclient.NewClient(httpclient.DefaultConfig(), noopLogger()), nil, noopLogger())
}

func column(t *testing.T, table *tabular.Table, name string) int {
	t.Helper()
	idx := table.ColumnIndex(name)
	require.GreaterOrEqual(t, idx, 0, "missing column %q", name)
	return idx
}

func TestRun_RedCross(t *testing.T) {
	publisher := &recordingPublisher{}
	p := NewPipeline(noopLogger(), DefaultConfig(), WithEnricher(stubLookup(t)), WithPublisher(publisher))

	upload := &tabular.Table{
		Columns: []string{"name", "city"},
		Rows: [][]string{
			{"american red cross", "Washington"},
			{"qqqq zzzz", "Nowhere"},
		},
	}

	result, err := p.Run(context.Background(), testSnapshot(), upload)
	require.NoError(t, err)

	assert.Equal(t, "name", result.NameField)
	require.Len(t, result.Records, 2)

	redCross := result.Records[0]
	assert.Equal(t, models.MatchMethodExact, redCross.Match.Method)
	assert.Equal(t, "131624102", redCross.Identifier())
	assert.Nil(t, redCross.Match.Score)
	require.NotNil(t, redCross.Enrichment)
	assert.Equal(t, "Jane Doe (CEO) - $500000", redCross.Enrichment.KeyPersonnel)
	assert.Contains(t, redCross.Enrichment.FilingLink, "131624102")
	assert.Equal(t, int64(18000), *redCross.Enrichment.EmployeeCount)

	none := result.Records[1]
	assert.Equal(t, models.MatchMethodNone, none.Match.Method)
	assert.Empty(t, none.Identifier())
	assert.Nil(t, none.Enrichment)

	assert.Equal(t, 1, result.Stats.Exact)
	assert.Equal(t, 1, result.Stats.Unmatched)
	assert.Equal(t, 1, result.Stats.IdentifiersRequested)
	assert.Equal(t, 1, result.Stats.Enriched)
	assert.Equal(t, 2, result.Stats.Output)

	out := result.Output
	assert.Equal(t, []string{
		"name", "city", "match_method", "match_score", "EIN", "registry_name", "ntee_cd",
		"revenue_amt", "income_amt", "asset_amt", "Employees", "Website", "Mission", "990 Link", "Key Personnel",
	}, out.Columns)
	row := out.Rows[0]
	assert.Equal(t, "exact", row[column(t, out, "match_method")])
	assert.Equal(t, "", row[column(t, out, "match_score")])
	assert.Equal(t, "131624102", row[column(t, out, "EIN")])
	assert.Equal(t, "American Red Cross", row[column(t, out, "registry_name")])
	assert.Equal(t, "3000000000", row[column(t, out, "revenue_amt")])
	assert.Equal(t, "", row[column(t, out, "income_amt")])
	assert.Equal(t, "18000", row[column(t, out, "Employees")])
	assert.Equal(t, "redcross.org", row[column(t, out, "Website")])
	assert.Equal(t, "Jane Doe (CEO) - $500000", row[column(t, out, "Key Personnel")])
	assert.Contains(t, row[column(t, out, "990 Link")], "131624102")

	blank := out.Rows[1]
	assert.Equal(t, "none", blank[column(t, out, "match_method")])
	assert.Equal(t, "", blank[column(t, out, "EIN")])
	assert.Equal(t, "", blank[column(t, out, "Key Personnel")])

	require.Len(t, publisher.events, 1)
	assert.Equal(t, result.RunID, publisher.events[0].RunID)
	assert.Equal(t, 2, publisher.events[0].Stats.Uploaded)
}

func TestRun_UnmatchedExcludedFromFetch(t *testing.T) {
	enricher := &fakeEnricher{}
	p := NewPipeline(noopLogger(), DefaultConfig(), WithEnricher(enricher))

	upload := &tabular.Table{
		Columns: []string{"organization name"},
		Rows: [][]string{
			{"qqqq zzzz"},
			{"  SALVATION ARMY "},
			{"american red cros"},
		},
	}
	result, err := p.Run(context.Background(), testSnapshot(), upload)
	require.NoError(t, err)

	require.Len(t, enricher.requested, 1)
	assert.Equal(t, []string{"530196605", "131624102"}, enricher.requested[0])

	assert.Equal(t, models.MatchMethodNone, result.Records[0].Match.Method)
	assert.Equal(t, models.MatchMethodExact, result.Records[1].Match.Method)
	assert.Equal(t, "salvation army", result.Records[1].Upload.Fields["organization name"])

	fuzzy := result.Records[2].Match
	assert.Equal(t, models.MatchMethodFuzzy, fuzzy.Method)
	require.NotNil(t, fuzzy.Score)
	assert.GreaterOrEqual(t, *fuzzy.Score, 85)
	assert.Equal(t, "131624102", fuzzy.Identifier)
}

func TestRun_AllEnrichmentFailed(t *testing.T) {
	p := NewPipeline(noopLogger(), DefaultConfig(), WithEnricher(&fakeEnricher{}))

	upload := &tabular.Table{
		Columns: []string{"name"},
		Rows:    [][]string{{"American Red Cross"}, {"Salvation Army"}},
	}
	result, err := p.Run(context.Background(), testSnapshot(), upload)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.EnrichmentFailed)
	assert.Equal(t, 0, result.Stats.Enriched)
	for _, r := range result.Records {
		assert.Nil(t, r.Enrichment)
		assert.NotEmpty(t, r.Identifier())
	}
}

func TestRun_Deduplicates(t *testing.T) {
	p := NewPipeline(noopLogger(), DefaultConfig())

	upload := &tabular.Table{
		Columns: []string{"name", "note"},
		Rows: [][]string{
			{"American Red Cross", "first"},
			{"AMERICAN RED CROSS", "second"},
			{"unknown org", "a"},
			{"Unknown Org", "b"},
		},
	}
	result, err := p.Run(context.Background(), testSnapshot(), upload)
	require.NoError(t, err)

	require.Len(t, result.Records, 2)
	assert.Equal(t, "first", result.Records[0].Upload.Fields["note"])
	assert.Equal(t, "a", result.Records[1].Upload.Fields["note"])
	assert.Equal(t, 1, result.Stats.DuplicatesByIdentifier)
	assert.Equal(t, 1, result.Stats.DuplicatesByName)
}

func TestRun_Deterministic(t *testing.T) {
	enricher := &fakeEnricher{profiles: map[string]*models.EnrichmentRecord{
		"131624102": {Identifier: "131624102", KeyPersonnel: "Jane Doe (CEO) - $500000"},
	}}
	p := NewPipeline(noopLogger(), DefaultConfig(), WithEnricher(enricher))
	snapshot := testSnapshot()

	upload := &tabular.Table{
		Columns: []string{"name", "state"},
		Rows: [][]string{
			{"habitat for humanity", "GA"},
			{"american red cross", "DC"},
			{"salvation armyy", "VA"},
			{"nobody at all", "TX"},
			{"American Red Cross", "MD"},
		},
	}

	first, err := p.Run(context.Background(), snapshot, upload)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), snapshot, upload)
	require.NoError(t, err)

	assert.Equal(t, first.Output.Columns, second.Output.Columns)
	assert.Equal(t, first.Output.Rows, second.Output.Rows)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_Failures(t *testing.T) {
	p := NewPipeline(noopLogger(), DefaultConfig())

	t.Run("no columns", func(t *testing.T) {
		_, err := p.Run(context.Background(), testSnapshot(), &tabular.Table{})
		assert.True(t, errors.IsKind(err, errors.KindColumnDetection))
	})

	t.Run("no snapshot", func(t *testing.T) {
		_, err := p.Run(context.Background(), nil, &tabular.Table{Columns: []string{"name"}})
		assert.True(t, errors.IsKind(err, errors.KindRegistryUnavailable))
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := p.Run(ctx, testSnapshot(), &tabular.Table{Columns: []string{"name"}, Rows: [][]string{{"x"}}})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRender_ColumnCollisions(t *testing.T) {
	records := []models.EnrichedRecord{{
		Upload: models.UploadedRecord{Fields: map[string]string{"EIN": "user-supplied", "Website": "mine.org"}},
		Match:  models.Unmatched(),
	}}
	table := Render([]string{"EIN", "Website"}, records, "EIN")

	assert.Contains(t, table.Columns, "EIN_registry")
	assert.Contains(t, table.Columns, "Website_enrichment")
	assert.Equal(t, "user-supplied", table.Rows[0][0])
	assert.Equal(t, "mine.org", table.Rows[0][1])
	assert.Len(t, table.Rows[0], len(table.Columns))
}

func TestRender_SuffixedColumnAlreadyUploaded(t *testing.T) {
	uploaded := []string{"EIN", "EIN_registry", "EIN_registry_2", "Website"}
	records := []models.EnrichedRecord{{
		Upload: models.UploadedRecord{Fields: map[string]string{
			"EIN": "a", "EIN_registry": "b", "EIN_registry_2": "c", "Website": "d",
		}},
		Match: models.Unmatched(),
	}}
	table := Render(uploaded, records, "EIN")

	seen := make(map[string]int, len(table.Columns))
	for _, c := range table.Columns {
		seen[c]++
	}
	for c, n := range seen {
		assert.Equal(t, 1, n, "column %q repeated", c)
	}
	assert.Contains(t, table.Columns, "EIN_registry_3")
	assert.Equal(t, []string{"a", "b", "c", "d"}, table.Rows[0][:4])
	assert.Len(t, table.Rows[0], len(table.Columns))
}
