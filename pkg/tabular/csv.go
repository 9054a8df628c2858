package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// candidate delimiters, in preference order on equal counts
var delimiters = []rune{',', '\t', '|', ';'}

// CSVOptions controls ReadCSV
type CSVOptions struct {
	// Delimiter forces a field separator; zero sniffs it from the header line
	Delimiter rune
	// HeaderNormalizers are applied to every header name, by normalizer registry key.
	// Headers are always trimmed.
	HeaderNormalizers []string
}

// ReadCSV parses delimited text into a Table. Short rows are padded, long rows
// truncated and unparseable rows skipped, each with a warning. A file with no
// header or no data rows is an error.
func ReadCSV(r io.Reader, opts CSVOptions) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	data, encoding, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	delimiter := opts.Delimiter
	if delimiter == 0 {
		delimiter = SniffDelimiter(data)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: no header row found")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = normalizers.ApplyChain(h, append([]string{"trim"}, opts.HeaderNormalizers...)...)
	}

	table := &Table{Columns: uniqueColumns(headers), Encoding: encoding}
	width := len(table.Columns)
	rowNum := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++

		if err != nil {
			table.Warnings = append(table.Warnings, Warning{Row: rowNum, Message: fmt.Sprintf("parse error: %v", err)})
			continue
		}
		if isBlank(row) {
			continue
		}

		switch {
		case len(row) < width:
			table.Warnings = append(table.Warnings, Warning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; padding with empty values", len(row), width),
			})
			row = pad(row, width)
		case len(row) > width:
			table.Warnings = append(table.Warnings, Warning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), width),
			})
			row = row[:width]
		}
		table.Rows = append(table.Rows, row)
	}

	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("file contains no data rows")
	}
	return table, nil
}

// SniffDelimiter picks the candidate delimiter that occurs most often, outside
// quotes, on the first line. Comma wins when none occur.
func SniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}

	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, r := range string(line) {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best := delimiters[0]
	for _, d := range delimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// WriteCSV writes columns and rows as UTF-8 comma-separated text
func WriteCSV(w io.Writer, columns []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
