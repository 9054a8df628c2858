package tabular

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Format is a tabular file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

var zipMagic = []byte("PK\x03\x04")

// ContentType returns the MIME type for f
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ParseFormat parses a format name; empty means csv
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported format %q", s)
}

// DetectFormat picks the format from the file extension, falling back to content sniffing
func DetectFormat(filename string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		return FormatXLSX
	case ".csv", ".txt", ".tsv":
		return FormatCSV
	}
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}
	return FormatCSV
}

// ReadUpload parses an uploaded file. Header names are trimmed and lowercased.
func ReadUpload(data []byte, filename string) (*Table, error) {
	if DetectFormat(filename, data) == FormatXLSX {
		return ReadXLSX(bytes.NewReader(data), "header")
	}
	return ReadCSV(bytes.NewReader(data), CSVOptions{HeaderNormalizers: []string{"header"}})
}

// WriteTable writes table in format
func WriteTable(w io.Writer, format Format, table *Table) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, table.Columns, table.Rows)
	case FormatCSV, "":
		return WriteCSV(w, table.Columns, table.Rows)
	}
	return fmt.Errorf("unsupported format %q", format)
}
