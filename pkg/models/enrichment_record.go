package models

// NoPersonnelData is the KeyPersonnel value for a profile with no officers.
const NoPersonnelData = "No personnel data"

// Officer is one key-personnel entry as returned by the lookup service.
type Officer struct {
	Name         *string  `json:"name,omitempty"`
	Title        *string  `json:"title,omitempty"`
	Compensation *float64 `json:"compensation,omitempty"`
}

// EnrichmentRecord is the remote profile for one identifier. Optional fields stay nil
// when the service omits them.
type EnrichmentRecord struct {
	Identifier    string    `json:"identifier"`
	EmployeeCount *int64    `json:"employee_count,omitempty"`
	Website       *string   `json:"website,omitempty"`
	Mission       *string   `json:"mission,omitempty"`
	FilingLink    string    `json:"filing_link"`
	Officers      []Officer `json:"officers,omitempty"`
	KeyPersonnel  string    `json:"key_personnel"`
}
