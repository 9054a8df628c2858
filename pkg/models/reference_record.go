package models

// ReferenceRecord is one registry entity. Records are immutable once a snapshot is built.
type ReferenceRecord struct {
	Identifier   string   `json:"identifier" db:"ein"`
	Name         string   `json:"name" db:"name"`
	CategoryCode string   `json:"category_code,omitempty" db:"ntee_cd"`
	Revenue      *float64 `json:"revenue,omitempty" db:"revenue_amt"`
	Income       *float64 `json:"income,omitempty" db:"income_amt"`
	Assets       *float64 `json:"assets,omitempty" db:"asset_amt"`
	// Ordinal is the ingestion position of the record within its registry load.
	Ordinal int `json:"ordinal" db:"ingest_order"`
}
