// Package workbook renders declarative sheet descriptors into a styled xlsx
// workbook. Callers describe sheets, themes and chart bindings as plain
// values; all excelize state stays inside Assemble.
package workbook

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Theme holds the fill and font colors applied to a sheet.
type Theme struct {
	HeaderFill string
	HeaderText string
	BandFill   string
	TotalFill  string
}

// ParticipationTheme is the navy header style used by the participation and
// performance reports.
func ParticipationTheme() Theme {
	return Theme{HeaderFill: "002060", HeaderText: "FFFFFF", BandFill: "F2F2F2", TotalFill: "D9E1F2"}
}

// WeeklyTheme is the steel blue header style used by the weekly report.
func WeeklyTheme() Theme {
	return Theme{HeaderFill: "1E4E79", HeaderText: "FFFFFF", BandFill: "F2F2F2", TotalFill: "D9E1F2"}
}

// SoftTheme is the light header style used by the attempt status summary.
func SoftTheme() Theme {
	return Theme{HeaderFill: "D9E1F2", HeaderText: "000000", BandFill: "", TotalFill: "E9EDF5"}
}

// Chart describes a bar chart bound to the sheet's own table range. The
// chart is always generated from the same rows written to the sheet, so its
// series can never drift from the rendered table.
type Chart struct {
	Title      string
	XAxisTitle string
	YAxisTitle string
	// SeriesCols is the number of value columns charted, starting at the
	// second sheet column. Zero means every column after the first.
	SeriesCols int
}

// Sheet is a declarative description of one worksheet.
type Sheet struct {
	Name       string
	Headers    []string
	Rows       [][]any
	TotalRow   []any // optional Grand Total row, styled distinctly
	Theme      Theme
	Banded     bool  // alternating band fill on even rows
	CenterAll  bool  // center-align the whole data region
	CenterCols []int // column indexes (0-based) to center when not CenterAll
	WidthCap   float64
	Chart      *Chart
}

// Assemble renders the sheets into a serialized workbook.
func Assemble(sheets []Sheet) ([]byte, error) {
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets to assemble")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", sheet.Name, err)
		}
		if err := writeSheet(f, &sheet); err != nil {
			return nil, fmt.Errorf("write sheet %q: %w", sheet.Name, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

type styleSet struct {
	header     int
	body       int
	bodyCenter int
	band       int
	bandCenter int
	total      int
}

func buildStyles(f *excelize.File, theme Theme) (styleSet, error) {
	border := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}
	center := &excelize.Alignment{Horizontal: "center", Vertical: "center"}

	var s styleSet
	var err error

	s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: theme.HeaderText, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{theme.HeaderFill}},
		Alignment: center,
		Border:    border,
	})
	if err != nil {
		return s, err
	}
	s.body, err = f.NewStyle(&excelize.Style{Border: border})
	if err != nil {
		return s, err
	}
	s.bodyCenter, err = f.NewStyle(&excelize.Style{Border: border, Alignment: center})
	if err != nil {
		return s, err
	}
	bandFill := theme.BandFill
	if bandFill == "" {
		bandFill = "F2F2F2"
	}
	s.band, err = f.NewStyle(&excelize.Style{
		Border: border,
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{bandFill}},
	})
	if err != nil {
		return s, err
	}
	s.bandCenter, err = f.NewStyle(&excelize.Style{
		Border:    border,
		Alignment: center,
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{bandFill}},
	})
	if err != nil {
		return s, err
	}
	s.total, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{theme.TotalFill}},
		Alignment: center,
		Border:    border,
	})
	return s, err
}

func writeSheet(f *excelize.File, sheet *Sheet) error {
	styles, err := buildStyles(f, sheet.Theme)
	if err != nil {
		return fmt.Errorf("build styles: %w", err)
	}

	centered := make(map[int]bool, len(sheet.CenterCols))
	for _, c := range sheet.CenterCols {
		centered[c] = true
	}

	for col, name := range sheet.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet.Name, cell, name); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet.Name, cell, cell, styles.header); err != nil {
			return err
		}
	}

	for r, row := range sheet.Rows {
		excelRow := r + 2
		for col := range sheet.Headers {
			cell, err := excelize.CoordinatesToCellName(col+1, excelRow)
			if err != nil {
				return err
			}
			if col < len(row) {
				if err := f.SetCellValue(sheet.Name, cell, row[col]); err != nil {
					return err
				}
			}
			style := styles.body
			wantCenter := sheet.CenterAll || centered[col]
			if sheet.Banded && excelRow%2 == 0 {
				style = styles.band
				if wantCenter {
					style = styles.bandCenter
				}
			} else if wantCenter {
				style = styles.bodyCenter
			}
			if err := f.SetCellStyle(sheet.Name, cell, cell, style); err != nil {
				return err
			}
		}
	}

	if len(sheet.TotalRow) > 0 {
		excelRow := len(sheet.Rows) + 2
		for col := range sheet.Headers {
			cell, err := excelize.CoordinatesToCellName(col+1, excelRow)
			if err != nil {
				return err
			}
			if col < len(sheet.TotalRow) {
				if err := f.SetCellValue(sheet.Name, cell, sheet.TotalRow[col]); err != nil {
					return err
				}
			}
			if err := f.SetCellStyle(sheet.Name, cell, cell, styles.total); err != nil {
				return err
			}
		}
	}

	if err := setColumnWidths(f, sheet); err != nil {
		return err
	}

	if sheet.Chart != nil {
		if err := addChart(f, sheet); err != nil {
			return fmt.Errorf("add chart: %w", err)
		}
	}
	return nil
}

// setColumnWidths sizes each column to its longest rendered value, bounded
// by the sheet's width cap so outlier values cannot produce degenerate
// widths.
func setColumnWidths(f *excelize.File, sheet *Sheet) error {
	limit := sheet.WidthCap
	if limit <= 0 {
		limit = 50
	}
	for col, name := range sheet.Headers {
		maxLen := len(name)
		for _, row := range sheet.Rows {
			if col < len(row) {
				if l := len(fmt.Sprint(row[col])); l > maxLen {
					maxLen = l
				}
			}
		}
		if col < len(sheet.TotalRow) {
			if l := len(fmt.Sprint(sheet.TotalRow[col])); l > maxLen {
				maxLen = l
			}
		}
		width := float64(maxLen) + 2
		if width > limit {
			width = limit
		}
		colName, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet.Name, colName, colName, width); err != nil {
			return err
		}
	}
	return nil
}

// addChart attaches a clustered column chart whose series reference exactly
// the sheet's data rows. The Grand Total row is excluded from the range.
func addChart(f *excelize.File, sheet *Sheet) error {
	dataRows := len(sheet.Rows)
	if dataRows == 0 {
		return fmt.Errorf("chart on sheet with no data rows")
	}
	endRow := dataRows + 1 // header occupies row 1

	seriesCols := sheet.Chart.SeriesCols
	if seriesCols <= 0 {
		seriesCols = len(sheet.Headers) - 1
	}

	series := make([]excelize.ChartSeries, 0, seriesCols)
	for c := 0; c < seriesCols; c++ {
		colName, err := excelize.ColumnNumberToName(c + 2)
		if err != nil {
			return err
		}
		series = append(series, excelize.ChartSeries{
			Name:              fmt.Sprintf("'%s'!$%s$1", sheet.Name, colName),
			Categories:        fmt.Sprintf("'%s'!$A$2:$A$%d", sheet.Name, endRow),
			Values:            fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheet.Name, colName, colName, endRow),
			DataLabelPosition: excelize.ChartDataLabelsPositionOutsideEnd,
		})
	}

	anchorRow := endRow + 2
	if len(sheet.TotalRow) > 0 {
		anchorRow++
	}
	anchor, err := excelize.CoordinatesToCellName(1, anchorRow)
	if err != nil {
		return err
	}

	return f.AddChart(sheet.Name, anchor, &excelize.Chart{
		Type:   excelize.Col,
		Series: series,
		Title:  []excelize.RichTextRun{{Text: sheet.Chart.Title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		PlotArea: excelize.ChartPlotArea{
			ShowVal: true,
		},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: sheet.Chart.XAxisTitle}}},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: sheet.Chart.YAxisTitle}}},
		Dimension: excelize.ChartDimension{Width: 640, Height: 480},
	})
}
