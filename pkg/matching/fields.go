package matching

import (
	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// DefaultColumnThreshold is the minimum similarity a column name needs to be taken
// as the name column
const DefaultColumnThreshold = 60

// PreferredNameColumns are the column names accepted outright, in priority order
var PreferredNameColumns = []string{"name", "organizationname", "orgname", "entityname"}

// ReferenceNameSynonyms are the targets reference-table columns are scored against
var ReferenceNameSynonyms = []string{"name", "company", "organization", "nonprofit", "business", "entity"}

// Detection is the outcome of a name column search
type Detection struct {
	Column   string `json:"column"`
	Strategy string `json:"strategy"`
	// Score is set when the column was picked by similarity
	Score *int `json:"score,omitempty"`
}

// DetectionStrategy proposes a name column, or declines
type DetectionStrategy interface {
	Name() string
	Detect(columns []string) (Detection, bool)
}

// FieldDetector evaluates its strategies in order and returns the first proposal
type FieldDetector struct {
	strategies []DetectionStrategy
}

func NewFieldDetector(strategies ...DetectionStrategy) *FieldDetector {
	return &FieldDetector{strategies: strategies}
}

// UploadFieldDetector detects the name column of an uploaded table
func UploadFieldDetector(similarity Similarity, threshold int) *FieldDetector {
	return NewFieldDetector(
		PreferredColumns{Candidates: PreferredNameColumns},
		SimilarColumn{Targets: []string{"name"}, Threshold: threshold, Similarity: similarity},
		FirstColumn{},
	)
}

// ReferenceFieldDetector detects the name column of a registry table
func ReferenceFieldDetector(similarity Similarity, threshold int) *FieldDetector {
	return NewFieldDetector(
		PreferredColumns{Candidates: PreferredNameColumns},
		SimilarColumn{Targets: ReferenceNameSynonyms, Threshold: threshold, Similarity: similarity},
		FirstColumn{},
	)
}

// Detect returns the name column for columns. It only fails when columns is empty.
func (d *FieldDetector) Detect(columns []string) (Detection, error) {
	if len(columns) == 0 {
		return Detection{}, errors.NewColumnDetectionFailure("table has no columns")
	}
	for _, strategy := range d.strategies {
		if detection, ok := strategy.Detect(columns); ok {
			return detection, nil
		}
	}
	return Detection{}, errors.NewColumnDetectionFailure("no strategy proposed a name column")
}

// PreferredColumns accepts the first candidate present among the columns
type PreferredColumns struct {
	Candidates []string
}

func (PreferredColumns) Name() string { return "preferred" }

func (p PreferredColumns) Detect(columns []string) (Detection, bool) {
	byHeader := make(map[string]string, len(columns))
	for _, col := range columns {
		key := normalizers.NormalizeHeader(col)
		if _, seen := byHeader[key]; !seen {
			byHeader[key] = col
		}
	}
	for _, candidate := range p.Candidates {
		if col, ok := byHeader[candidate]; ok {
			return Detection{Column: col, Strategy: p.Name()}, true
		}
	}
	return Detection{}, false
}

// SimilarColumn accepts the first column, in input order, whose best similarity to
// any target reaches Threshold
type SimilarColumn struct {
	Targets    []string
	Threshold  int
	Similarity Similarity
}

func (SimilarColumn) Name() string { return "similarity" }

func (s SimilarColumn) Detect(columns []string) (Detection, bool) {
	for _, col := range columns {
		best := 0
		for _, target := range s.Targets {
			best = max(best, s.Similarity.Score(col, target))
		}
		if best >= s.Threshold {
			score := best
			return Detection{Column: col, Strategy: s.Name(), Score: &score}, true
		}
	}
	return Detection{}, false
}

// FirstColumn always proposes the first column
type FirstColumn struct{}

func (FirstColumn) Name() string { return "first_column" }

func (f FirstColumn) Detect(columns []string) (Detection, bool) {
	if len(columns) == 0 {
		return Detection{}, false
	}
	return Detection{Column: columns[0], Strategy: f.Name()}, true
}
