package workbook

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func open(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestAssemble(t *testing.T) {
	sheets := []Sheet{
		{
			Name:    "Data",
			Headers: []string{"Name", "Department"},
			Rows: [][]any{
				{"Asha", "CS"},
				{"Bilal", "ME"},
			},
			Theme:  ParticipationTheme(),
			Banded: true,
		},
		{
			Name:     "Summary",
			Headers:  []string{"Department", "Count"},
			Rows:     [][]any{{"CS", 1}, {"ME", 1}},
			TotalRow: []any{"Grand Total", 2},
			Theme:    WeeklyTheme(),
		},
	}

	out, err := Assemble(sheets)
	require.NoError(t, err)
	f := open(t, out)

	t.Run("sheets in declared order, first replaces the default", func(t *testing.T) {
		assert.Equal(t, []string{"Data", "Summary"}, f.GetSheetList())
	})

	t.Run("headers and rows land where declared", func(t *testing.T) {
		v, err := f.GetCellValue("Data", "A1")
		require.NoError(t, err)
		assert.Equal(t, "Name", v)

		v, err = f.GetCellValue("Data", "B3")
		require.NoError(t, err)
		assert.Equal(t, "ME", v)
	})

	t.Run("total row follows the data", func(t *testing.T) {
		v, err := f.GetCellValue("Summary", "A4")
		require.NoError(t, err)
		assert.Equal(t, "Grand Total", v)

		v, err = f.GetCellValue("Summary", "B4")
		require.NoError(t, err)
		assert.Equal(t, "2", v)
	})
}

func TestAssembleEmpty(t *testing.T) {
	_, err := Assemble(nil)
	assert.Error(t, err)
}

func TestColumnWidths(t *testing.T) {
	long := "a very long value that would otherwise make the column absurdly wide, far beyond any cap"
	out, err := Assemble([]Sheet{{
		Name:     "Data",
		Headers:  []string{"Short", "Long"},
		Rows:     [][]any{{"x", long}},
		Theme:    ParticipationTheme(),
		WidthCap: 40,
	}})
	require.NoError(t, err)
	f := open(t, out)

	wShort, err := f.GetColWidth("Data", "A")
	require.NoError(t, err)
	wLong, err := f.GetColWidth("Data", "B")
	require.NoError(t, err)

	// Width tracks content length up to the cap.
	assert.InDelta(t, float64(len("Short"))+2, wShort, 0.5)
	assert.InDelta(t, 40, wLong, 0.5)
	assert.Less(t, wLong, float64(len(long)))
}

func TestChart(t *testing.T) {
	out, err := Assemble([]Sheet{{
		Name:     "Summary",
		Headers:  []string{"Department", "Completed", "Not Started", "Grand Total"},
		Rows:     [][]any{{"CS", 2, 1, 3}, {"ME", 1, 1, 2}},
		TotalRow: []any{"Grand Total", 3, 2, 5},
		Theme:    ParticipationTheme(),
		Chart: &Chart{
			Title:      "Participation",
			XAxisTitle: "Department",
			YAxisTitle: "Count",
			SeriesCols: 2,
		},
	}})
	require.NoError(t, err)

	chartXML := readChartXML(t, out)
	// Series reference only the data rows, never the Grand Total row or
	// the Grand Total column.
	assert.Contains(t, chartXML, "'Summary'!$B$2:$B$3")
	assert.Contains(t, chartXML, "'Summary'!$C$2:$C$3")
	assert.Contains(t, chartXML, "'Summary'!$A$2:$A$3")
	assert.NotContains(t, chartXML, "$B$4")
	assert.NotContains(t, chartXML, "$D$")
	assert.Contains(t, chartXML, "Participation")
}

// readChartXML pulls the first chart part out of the workbook archive.
func readChartXML(t *testing.T, workbook []byte) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(workbook), int64(len(workbook)))
	require.NoError(t, err)
	for _, zf := range zr.File {
		if strings.HasPrefix(zf.Name, "xl/charts/chart") {
			rc, err := zf.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return string(data)
		}
	}
	t.Fatal("workbook contains no chart part")
	return ""
}

func TestChartRequiresData(t *testing.T) {
	_, err := Assemble([]Sheet{{
		Name:    "Summary",
		Headers: []string{"Department", "Count"},
		Theme:   ParticipationTheme(),
		Chart:   &Chart{Title: "Empty"},
	}})
	assert.Error(t, err)
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "002060", ParticipationTheme().HeaderFill)
	assert.Equal(t, "1E4E79", WeeklyTheme().HeaderFill)
	assert.Equal(t, "D9E1F2", SoftTheme().HeaderFill)
	assert.Equal(t, "000000", SoftTheme().HeaderText)
}
