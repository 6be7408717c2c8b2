package report

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"parulreports/internal/dataset"
)

func generate(t *testing.T, csvText string, format dataset.Format, profile Profile) *excelize.File {
	t.Helper()
	out, err := NewPipeline(nil).Generate(context.Background(), []byte(csvText), format, profile)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func cell(t *testing.T, f *excelize.File, sheet, ref string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, ref)
	require.NoError(t, err)
	return v
}

const participationCSV = `Name,Department,Test Status
Asha,CS,Completed
Bilal,CS,Not Started
Chirag,ME,Completed
Divya,ME,Not Started
`

func TestGenerateParticipation(t *testing.T) {
	f := generate(t, participationCSV, dataset.FormatCSV, ProfileParticipation)

	assert.Equal(t, []string{"Data", "Participation Summary"}, f.GetSheetList())

	t.Run("data sheet carries the input verbatim", func(t *testing.T) {
		assert.Equal(t, "Name", cell(t, f, "Data", "A1"))
		assert.Equal(t, "Asha", cell(t, f, "Data", "A2"))
		assert.Equal(t, "Not Started", cell(t, f, "Data", "C5"))
	})

	t.Run("summary is a 2x2 crosstab summing to the record count", func(t *testing.T) {
		const s = "Participation Summary"
		assert.Equal(t, "Department", cell(t, f, s, "A1"))
		assert.Equal(t, "Completed", cell(t, f, s, "B1"))
		assert.Equal(t, "Not Started", cell(t, f, s, "C1"))
		assert.Equal(t, "Grand Total", cell(t, f, s, "D1"))

		// Departments in first-seen order.
		assert.Equal(t, "CS", cell(t, f, s, "A2"))
		assert.Equal(t, "ME", cell(t, f, s, "A3"))
		assert.Equal(t, "1", cell(t, f, s, "B2"))
		assert.Equal(t, "1", cell(t, f, s, "C2"))
		assert.Equal(t, "2", cell(t, f, s, "D2"))

		assert.Equal(t, "Grand Total", cell(t, f, s, "A4"))
		assert.Equal(t, "2", cell(t, f, s, "B4"))
		assert.Equal(t, "2", cell(t, f, s, "C4"))
		assert.Equal(t, "4", cell(t, f, s, "D4"))
	})
}

const performanceCSV = `Name,Department,Test Status,Total Percentage
Asha,CS,Completed,80
Bilal,CS,Completed,60
Chirag,ME,Completed,30
Divya,ME,Not Started,NA
`

func TestGeneratePerformance(t *testing.T) {
	f := generate(t, performanceCSV, dataset.FormatCSV, ProfilePerformance)

	assert.Equal(t,
		[]string{"Data", "Participation Summary", "Performance Summary"},
		f.GetSheetList())

	t.Run("category column is inserted right after the percentage", func(t *testing.T) {
		assert.Equal(t, "Total Percentage", cell(t, f, "Data", "D1"))
		assert.Equal(t, "Category", cell(t, f, "Data", "E1"))
		assert.Equal(t, "Good", cell(t, f, "Data", "E2"))
		assert.Equal(t, "Satisfactory", cell(t, f, "Data", "E3"))
		assert.Equal(t, "Need Attention", cell(t, f, "Data", "E4"))
		assert.Equal(t, "Not Attended", cell(t, f, "Data", "E5"))
	})

	t.Run("performance summary carries every canonical category", func(t *testing.T) {
		const s = "Performance Summary"
		want := append([]string{"Department"}, PerformanceCategoryOrder...)
		want = append(want, "Grand Total")
		for i, header := range want {
			name, err := excelize.ColumnNumberToName(i + 1)
			require.NoError(t, err)
			assert.Equal(t, header, cell(t, f, s, name+"1"))
		}

		assert.Equal(t, "CS", cell(t, f, s, "A2"))
		assert.Equal(t, "1", cell(t, f, s, "B2")) // Good
		assert.Equal(t, "1", cell(t, f, s, "C2")) // Satisfactory
		assert.Equal(t, "2", cell(t, f, s, "G2")) // row total
		assert.Equal(t, "4", cell(t, f, s, "G4")) // grand total
	})
}

const weeklyCSV = `Sr No,Name,Email,Department,Test Status,Week 3 Test Duration,Week 3 Max Score,Week 3 Student Score,Week 3 Total Percentage
1,Asha,asha@example.com,CS,Completed,0:14:02,20,18,90
2,-,bilal@example.com,CS,Not Started,-,20,-,NA
3,Chirag,chirag@example.com,ME,Completed,0:00:00,20,0,0
4,Divya,divya@example.com,ME,Completed,0:09:30,20,11,55
`

func TestGenerateWeekly(t *testing.T) {
	f := generate(t, weeklyCSV, dataset.FormatCSV, ProfileWeekly)

	assert.Equal(t, []string{
		"Overall Data",
		"Div Wise Performance Summary",
		"Overall Performance Summary",
		"Div Wise Participation Summary",
		"Overall Participation Summary",
		"Attempt Status Summary",
	}, f.GetSheetList())

	t.Run("overall data leads with classification columns", func(t *testing.T) {
		const s = "Overall Data"
		for i, header := range []string{
			"Test Status", "Portal Status", "Attempt Status",
			"Week 3 Max Score", "Week 3 Student Score", "Week 3 Total Percentage",
			"Category", "Sr No", "Name", "Email", "Department", "Week 3 Test Duration",
		} {
			name, err := excelize.ColumnNumberToName(i + 1)
			require.NoError(t, err)
			assert.Equal(t, header, cell(t, f, s, name+"1"))
		}

		assert.Equal(t, "Activated", cell(t, f, s, "B2"))
		assert.Equal(t, "Not Activated", cell(t, f, s, "B3"))
		assert.Equal(t, "Successful Attempt", cell(t, f, s, "C2"))
		assert.Equal(t, "No Attempt", cell(t, f, s, "C3"))
		assert.Equal(t, "Unsuccessful Attempt", cell(t, f, s, "C4"))
		assert.Equal(t, "Good (75%+)", cell(t, f, s, "G2"))
		assert.Equal(t, "Not Started", cell(t, f, s, "G3"))
		assert.Equal(t, "Intervention (0% - 25%)", cell(t, f, s, "G4"))
		assert.Equal(t, "Satisfactory (50% - 75%)", cell(t, f, s, "G5"))
	})

	t.Run("attempt summary counts by the email column", func(t *testing.T) {
		const s = "Attempt Status Summary"
		assert.Equal(t, "Attempt Status", cell(t, f, s, "A1"))
		assert.Equal(t, "Count of Email", cell(t, f, s, "B1"))
		assert.Equal(t, "Successful Attempt", cell(t, f, s, "A2"))
		assert.Equal(t, "2", cell(t, f, s, "B2"))
		assert.Equal(t, "Unsuccessful Attempt", cell(t, f, s, "A3"))
		assert.Equal(t, "1", cell(t, f, s, "B3"))
		assert.Equal(t, "No Attempt", cell(t, f, s, "A4"))
		assert.Equal(t, "1", cell(t, f, s, "B4"))
	})

	t.Run("overall performance rows follow the canonical order", func(t *testing.T) {
		const s = "Overall Performance Summary"
		for i, label := range WeeklyCategoryOrder {
			ref, err := excelize.CoordinatesToCellName(1, i+2)
			require.NoError(t, err)
			assert.Equal(t, label, cell(t, f, s, ref))
		}
	})
}

func TestGenerateWeeklyPrefersOverallDataSheet(t *testing.T) {
	src := excelize.NewFile()
	_, err := src.NewSheet("Overall Data")
	require.NoError(t, err)
	rows := [][]any{
		{"Sr No", "Name", "Email", "Department", "Test Status", "Week 1 Test Duration", "Week 1 Max Score", "Week 1 Student Score", "Week 1 Total Percentage"},
		{1, "Asha", "asha@example.com", "CS", "Completed", "0:10:00", 20, 16, 80},
	}
	for i, row := range rows {
		ref, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, src.SetSheetRow("Overall Data", ref, &row))
	}
	// Decoy data on the first sheet must be ignored.
	require.NoError(t, src.SetCellValue("Sheet1", "A1", "decoy"))

	buf, err := src.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, src.Close())

	out, err := NewPipeline(nil).Generate(context.Background(), buf.Bytes(), dataset.FormatXLSX, ProfileWeekly)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "Good (75%+)", cell(t, f, "Overall Data", "G2"))
}

func TestGenerateErrors(t *testing.T) {
	ctx := context.Background()
	p := NewPipeline(nil)

	tests := []struct {
		name     string
		data     string
		format   dataset.Format
		profile  Profile
		wantKind Kind
	}{
		{
			name:     "header only dataset",
			data:     "Name,Department,Test Status\n",
			format:   dataset.FormatCSV,
			profile:  ProfileParticipation,
			wantKind: KindEmptyDataset,
		},
		{
			name:     "missing department column",
			data:     "Name,Test Status\nAsha,Completed\n",
			format:   dataset.FormatCSV,
			profile:  ProfileParticipation,
			wantKind: KindColumnNotFound,
		},
		{
			name:     "duplicate department columns",
			data:     "Department,Department,Test Status\nCS,CS,Completed\n",
			format:   dataset.FormatCSV,
			profile:  ProfileParticipation,
			wantKind: KindAmbiguousColumn,
		},
		{
			name:     "percentage before status",
			data:     "Name,Total Percentage,Department,Test Status\nAsha,80,CS,Completed\n",
			format:   dataset.FormatCSV,
			profile:  ProfilePerformance,
			wantKind: KindColumnOrder,
		},
		{
			name:     "corrupt xlsx bytes",
			data:     "PK\x03\x04 this is not a workbook",
			format:   dataset.FormatXLSX,
			profile:  ProfileParticipation,
			wantKind: KindDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Generate(ctx, []byte(tt.data), tt.format, tt.profile)
			require.Error(t, err)
			var ee *EngineError
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.wantKind, ee.Kind, "got %v", err)
		})
	}
}

// The pipeline holds no per-run state; concurrent generations over distinct
// inputs must not interfere.
func TestGenerateConcurrent(t *testing.T) {
	p := NewPipeline(nil)
	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := p.Generate(context.Background(), []byte(participationCSV), dataset.FormatCSV, ProfileParticipation)
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-done)
	}
}

func TestEngineErrorText(t *testing.T) {
	err := NewAmbiguousColumn("department", []string{"Department", "Dept Code"})
	assert.True(t, strings.Contains(err.Error(), "AMBIGUOUS_COLUMN"))
	assert.True(t, strings.Contains(err.Error(), "Dept Code"))
	assert.Equal(t, KindAmbiguousColumn, KindOf(err))
	assert.Equal(t, StageResolve, err.Stage)
}
