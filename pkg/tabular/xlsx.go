package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// DefaultSheet is the sheet name WriteXLSX writes to
const DefaultSheet = "Enriched"

// ReadXLSX reads the first sheet of a workbook into a Table, with the same
// header, padding and empty-file rules as ReadCSV
func ReadXLSX(r io.Reader, headerNormalizers ...string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty file: no header row found")
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = normalizers.ApplyChain(h, append([]string{"trim"}, headerNormalizers...)...)
	}

	table := &Table{Columns: uniqueColumns(headers), Encoding: "xlsx"}
	width := len(table.Columns)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		// excelize drops trailing empty cells, so short rows are normal here
		if len(row) > width {
			table.Warnings = append(table.Warnings, Warning{
				Row:     i + 2,
				Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), width),
			})
			row = row[:width]
		}
		table.Rows = append(table.Rows, pad(row, width))
	}

	if len(table.Rows) == 0 {
		return nil, fmt.Errorf("file contains no data rows")
	}
	return table, nil
}

// WriteXLSX writes columns and rows to a single-sheet workbook
func WriteXLSX(w io.Writer, columns []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DefaultSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := writeXLSXRow(f, 1, columns); err != nil {
		return err
	}
	for i, row := range rows {
		if err := writeXLSXRow(f, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeXLSXRow(f *excelize.File, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", rowNum, err)
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(DefaultSheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
}
