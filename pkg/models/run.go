package models

import "time"

// RunStats summarizes one pipeline run.
type RunStats struct {
	Uploaded               int           `json:"uploaded"`
	Exact                  int           `json:"exact"`
	Fuzzy                  int           `json:"fuzzy"`
	Unmatched              int           `json:"unmatched"`
	IdentifiersRequested   int           `json:"identifiers_requested"`
	Enriched               int           `json:"enriched"`
	EnrichmentFailed       int           `json:"enrichment_failed"`
	DuplicatesByIdentifier int           `json:"duplicates_by_identifier"`
	DuplicatesByName       int           `json:"duplicates_by_name"`
	Output                 int           `json:"output"`
	Duration               time.Duration `json:"duration"`
}

// RunCompletedEvent is published after every successful run.
type RunCompletedEvent struct {
	RunID           string    `json:"run_id"`
	SnapshotVersion string    `json:"snapshot_version"`
	NameField       string    `json:"name_field"`
	Stats           RunStats  `json:"stats"`
	CompletedAt     time.Time `json:"completed_at"`
}
