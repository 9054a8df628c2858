// Package registry loads the reference registry into immutable, indexed snapshots
package registry

import (
	"time"

	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Snapshot is an immutable, indexed copy of the registry. It is safe for
// concurrent readers and never changes after construction.
type Snapshot struct {
	version    string
	loadedAt   time.Time
	source     string
	nameColumn string
	skipped    int

	records []*models.ReferenceRecord
	byName  map[string][]*models.ReferenceRecord
	names   []string
}

// Info describes a snapshot without exposing its records
type Info struct {
	Version       string    `json:"version"`
	LoadedAt      time.Time `json:"loaded_at"`
	Source        string    `json:"source"`
	NameColumn    string    `json:"name_column"`
	Records       int       `json:"records"`
	DistinctNames int       `json:"distinct_names"`
	SkippedRows   int       `json:"skipped_rows"`
}

// NewSnapshot indexes records by normalized name. Ordinals are reassigned from
// slice order; records with an empty normalized name are kept but never indexed.
func NewSnapshot(records []*models.ReferenceRecord, source, nameColumn string) *Snapshot {
	s := &Snapshot{
		version:    uuid.NewString(),
		loadedAt:   time.Now().UTC(),
		source:     source,
		nameColumn: nameColumn,
		records:    records,
		byName:     make(map[string][]*models.ReferenceRecord),
	}

	for i, r := range records {
		r.Ordinal = i
		key := normalizers.NormalizeOrgName(r.Name)
		if key == "" {
			continue
		}
		if _, ok := s.byName[key]; !ok {
			s.names = append(s.names, key)
		}
		s.byName[key] = append(s.byName[key], r)
	}
	return s
}

// Lookup returns the records whose normalized name is name, in ingestion order
func (s *Snapshot) Lookup(normalizedName string) []*models.ReferenceRecord {
	return s.byName[normalizedName]
}

// DistinctNames returns each normalized name once, in first-seen order
func (s *Snapshot) DistinctNames() []string {
	return s.names
}

// Records returns every record in ingestion order
func (s *Snapshot) Records() []*models.ReferenceRecord {
	return s.records
}

func (s *Snapshot) Len() int {
	return len(s.records)
}

func (s *Snapshot) Version() string {
	return s.version
}

func (s *Snapshot) Info() Info {
	return Info{
		Version:       s.version,
		LoadedAt:      s.loadedAt,
		Source:        s.source,
		NameColumn:    s.nameColumn,
		Records:       len(s.records),
		DistinctNames: len(s.names),
		SkippedRows:   s.skipped,
	}
}
