package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Decode parses uploaded bytes as the declared format. Files are routinely
// misnamed by exporting tools, so the declared format is a hint: Excel bytes
// are recognized by their zip signature and anything else declared as Excel
// falls back to CSV parsing before giving up. preferredSheets names Excel
// sheets to try in order before defaulting to the first sheet.
func Decode(data []byte, format Format, preferredSheets ...string) (*Dataset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}

	switch format {
	case FormatCSV:
		return decodeCSV(data)
	case FormatXLSX, FormatXLS:
		if isZipArchive(data) {
			return decodeExcel(data, preferredSheets)
		}
		// Legacy .xls and mislabeled text files both land here. Legacy
		// binary workbooks are not supported; plain text often is.
		ds, csvErr := decodeCSV(data)
		if csvErr != nil {
			return nil, fmt.Errorf("not a valid Excel workbook and CSV fallback failed: %w", csvErr)
		}
		return ds, nil
	default:
		return nil, fmt.Errorf("unsupported format: %q", format)
	}
}

// isZipArchive reports whether the bytes carry the zip local-file signature
// all xlsx workbooks start with.
func isZipArchive(data []byte) bool {
	return len(data) >= 2 && data[0] == 'P' && data[1] == 'K'
}

func decodeExcel(data []byte, preferredSheets []string) (*Dataset, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	for _, name := range preferredSheets {
		if rows, rowsErr := f.GetRows(name); rowsErr == nil {
			return fromRows(rows)
		}
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return fromRows(rows)
}

func decodeCSV(data []byte) (*Dataset, error) {
	text, err := toUTF8(data)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return fromRows(rows)
}

// toUTF8 normalizes the byte stream: UTF-8 and UTF-16 BOMs are honored, and
// invalid UTF-8 is re-decoded as Windows-1252, the most common encoding of
// spreadsheet exports that are not UTF-8.
func toUTF8(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		return data[3:], nil
	}
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		decoder := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
		out, err := decoder.Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode utf-16: %w", err)
		}
		return out, nil
	}
	if utf8.Valid(data) {
		return data, nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode windows-1252: %w", err)
	}
	return out, nil
}

// sniffDelimiter picks the candidate delimiter occurring most often in the
// first line. Comma wins ties.
func sniffDelimiter(data []byte) rune {
	line := data
	if idx := bytes.IndexByte(data, '\n'); idx >= 0 {
		line = data[:idx]
	}

	best := ','
	bestCount := bytes.Count(line, []byte{','})
	for _, cand := range []byte{';', '\t', '|'} {
		if c := bytes.Count(line, []byte{cand}); c > bestCount {
			best = rune(cand)
			bestCount = c
		}
	}
	return best
}
