// Package dataset decodes uploaded tabular bytes (CSV or Excel) into an
// in-memory Dataset the report engine consumes.
package dataset

import (
	"fmt"
	"strings"
)

// Format is the declared format of uploaded bytes.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
)

// ParseFormat maps a file extension (with or without a leading dot) to a
// Format.
func ParseFormat(ext string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(ext, "."))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatXLS:
		return FormatXLS, nil
	default:
		return "", fmt.Errorf("unsupported file format: %q", ext)
	}
}

// Dataset is an ordered, read-only tabular input. Rows are padded to the
// header width; cells are raw strings, empty string meaning no value.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Cell returns the value at a row and column index, or empty string when
// the row is short.
func (d *Dataset) Cell(row, col int) string {
	if row < 0 || row >= len(d.Rows) || col < 0 || col >= len(d.Rows[row]) {
		return ""
	}
	return d.Rows[row][col]
}

// Column returns every value of one column in row order.
func (d *Dataset) Column(col int) []string {
	values := make([]string, len(d.Rows))
	for i := range d.Rows {
		values[i] = d.Cell(i, col)
	}
	return values
}

// fromRows builds a Dataset from raw sheet rows: the first non-empty row
// becomes the header, fully empty rows are skipped, short rows are padded.
func fromRows(rows [][]string) (*Dataset, error) {
	headerIdx := -1
	for i, row := range rows {
		if !rowEmpty(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx == -1 {
		return nil, fmt.Errorf("no header row found")
	}

	headers := make([]string, len(rows[headerIdx]))
	for i, h := range rows[headerIdx] {
		headers[i] = strings.TrimSpace(h)
	}

	ds := &Dataset{Headers: headers}
	for _, row := range rows[headerIdx+1:] {
		if rowEmpty(row) {
			continue
		}
		padded := make([]string, len(headers))
		for i := range headers {
			if i < len(row) {
				padded[i] = strings.TrimSpace(row[i])
			}
		}
		ds.Rows = append(ds.Rows, padded)
	}
	return ds, nil
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
