package matching

import (
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func ptr[T any](v T) *T {
	return &v
}

type testIndex struct {
	byName map[string][]*models.ReferenceRecord
	names  []string
}

func newTestIndex(records ...*models.ReferenceRecord) *testIndex {
	idx := &testIndex{byName: make(map[string][]*models.ReferenceRecord)}
	for i, r := range records {
		r.Ordinal = i
		key := normalizers.NormalizeOrgName(r.Name)
		if _, ok := idx.byName[key]; !ok {
			idx.names = append(idx.names, key)
		}
		idx.byName[key] = append(idx.byName[key], r)
	}
	return idx
}

func (t *testIndex) Lookup(name string) []*models.ReferenceRecord { return t.byName[name] }
func (t *testIndex) DistinctNames() []string                      { return t.names }

func upload(position int, name string) models.UploadedRecord {
	return models.UploadedRecord{
		Position:       position,
		Fields:         map[string]string{"name": name},
		Name:           name,
		NormalizedName: normalizers.NormalizeOrgName(name),
	}
}

// countingSimilarity wraps a Similarity and counts every call
type countingSimilarity struct {
	inner Similarity
	calls int
}

func (c *countingSimilarity) Score(a, b string) int {
	c.calls++
	return c.inner.Score(a, b)
}
