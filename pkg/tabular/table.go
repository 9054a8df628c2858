// Package tabular reads and writes the row/column data the pipeline consumes and produces
package tabular

import "strconv"

// Warning is a non-fatal issue found while reading a table
type Warning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Table is a rectangular set of string cells; every row has len(Columns) cells
type Table struct {
	Columns  []string
	Rows     [][]string
	Warnings []Warning
	// Encoding is the source encoding detected on read
	Encoding string
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of column, or -1
func (t *Table) ColumnIndex(column string) int {
	for i, c := range t.Columns {
		if c == column {
			return i
		}
	}
	return -1
}

// Record returns row i as a column -> value map
func (t *Table) Record(i int) map[string]string {
	record := make(map[string]string, len(t.Columns))
	for j, c := range t.Columns {
		record[c] = t.Rows[i][j]
	}
	return record
}

// Append concatenates other onto t. Columns are unioned in first-seen order and
// cells missing from either side are left empty.
func (t *Table) Append(other *Table) {
	positions := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		positions[c] = i
	}
	added := false
	for _, c := range other.Columns {
		if _, ok := positions[c]; !ok {
			positions[c] = len(t.Columns)
			t.Columns = append(t.Columns, c)
			added = true
		}
	}
	if added {
		for i, row := range t.Rows {
			t.Rows[i] = pad(row, len(t.Columns))
		}
	}

	for _, row := range other.Rows {
		out := make([]string, len(t.Columns))
		for j, c := range other.Columns {
			out[positions[c]] = row[j]
		}
		t.Rows = append(t.Rows, out)
	}
	t.Warnings = append(t.Warnings, other.Warnings...)
}

// uniqueColumns suffixes repeated header names with .1, .2, ... so every column
// can be addressed by name
func uniqueColumns(headers []string) []string {
	taken := make(map[string]bool, len(headers))
	out := make([]string, len(headers))
	for i, h := range headers {
		name := h
		for n := 1; taken[name]; n++ {
			name = h + "." + strconv.Itoa(n)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row
	}
	padded := make([]string, n)
	copy(padded, row)
	return padded
}
