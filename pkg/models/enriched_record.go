package models

// EnrichedRecord is one output row: the upload, its match and any fetched profile.
type EnrichedRecord struct {
	Upload     UploadedRecord    `json:"upload"`
	Match      MatchResult       `json:"match"`
	Enrichment *EnrichmentRecord `json:"enrichment,omitempty"`
}

// Identifier returns the resolved identifier, empty when unmatched.
func (r *EnrichedRecord) Identifier() string {
	return r.Match.Identifier
}

// Revenue returns the matched registry revenue, nil when unknown.
func (r *EnrichedRecord) Revenue() *float64 {
	if r.Match.Reference == nil {
		return nil
	}
	return r.Match.Reference.Revenue
}
