package models

// UploadedRecord is one user-submitted row.
type UploadedRecord struct {
	// Position is the zero-based row index in the upload.
	Position int               `json:"position"`
	Fields   map[string]string `json:"fields"`
	// Name is the raw value of the detected name field.
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
}

// Upload is a parsed upload: its columns in file order plus the detected name field.
type Upload struct {
	Columns   []string         `json:"columns"`
	NameField string           `json:"name_field"`
	Records   []UploadedRecord `json:"records"`
}
