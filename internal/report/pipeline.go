package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"parulreports/internal/dataset"
	"parulreports/internal/workbook"
)

// overallDataSheet is the Excel sheet name the weekly portal export uses.
const overallDataSheet = "Overall Data"

// Pipeline runs one report generation end to end: decode, resolve columns,
// validate, classify, aggregate, assemble, serialize. A Pipeline holds no
// per-run state and is safe for concurrent use; each Generate call operates
// entirely on its own data.
type Pipeline struct {
	logger *slog.Logger
}

// NewPipeline creates a report pipeline.
func NewPipeline(logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger}
}

// Generate transforms uploaded dataset bytes into a serialized workbook.
// Every failure returns an *EngineError; no partial workbook is ever
// produced.
func (p *Pipeline) Generate(ctx context.Context, data []byte, format dataset.Format, profile Profile) ([]byte, error) {
	start := time.Now()

	var preferred []string
	if profile == ProfileWeekly {
		preferred = []string{overallDataSheet}
	}
	ds, err := dataset.Decode(data, format, preferred...)
	if err != nil {
		return nil, NewDecodeError(err)
	}

	if ds.Len() == 0 {
		return nil, NewEmptyDatasetError()
	}

	var sheets []workbook.Sheet
	switch profile {
	case ProfileParticipation:
		sheets, err = p.participationSheets(ds)
	case ProfilePerformance:
		sheets, err = p.performanceSheets(ds)
	case ProfileWeekly:
		sheets, err = p.weeklySheets(ds)
	default:
		return nil, NewInternalError(StageValidate, fmt.Errorf("unknown profile %q", profile))
	}
	if err != nil {
		return nil, asEngineError(err, StageAggregate)
	}

	out, err := workbook.Assemble(sheets)
	if err != nil {
		return nil, NewInternalError(StageSerialize, err)
	}

	p.logger.InfoContext(ctx, "report generated",
		slog.String("profile", profile.String()),
		slog.Int("records", ds.Len()),
		slog.Int("sheets", len(sheets)),
		slog.Int("bytes", len(out)),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

// asEngineError passes engine errors through unchanged and wraps anything
// else as an internal failure tagged with the stage it surfaced in.
func asEngineError(err error, stage Stage) error {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee
	}
	return NewInternalError(stage, err)
}

// participationFields lists the logical fields of the participation report
// in priority order: when a header could serve two fields, the
// earlier-declared field claims it.
var participationFields = []LogicalField{
	{Canonical: "department"},
	{Canonical: "test status", Aliases: []string{"status"}},
}

func resolveOrdered(headers []string, fields []LogicalField) ([]Column, error) {
	claimed := make(map[int]bool)
	cols := make([]Column, len(fields))
	for i, field := range fields {
		col, err := ResolveField(headers, field, claimed)
		if err != nil {
			return nil, err
		}
		claimed[col.Index] = true
		cols[i] = col
	}
	return cols, nil
}

func (p *Pipeline) participationSheets(ds *dataset.Dataset) ([]workbook.Sheet, error) {
	cols, err := resolveOrdered(ds.Headers, participationFields)
	if err != nil {
		return nil, err
	}
	dept, status := cols[0], cols[1]

	table := Crosstab(dept.Name, ds.Column(dept.Index), ds.Column(status.Index), nil, false)

	return []workbook.Sheet{
		rawDataSheet("Data", ds.Headers, stringRows(ds.Rows)),
		summarySheet(table, summaryOptions{
			name:        "Participation Summary",
			theme:       workbook.ParticipationTheme(),
			grandColumn: true,
			banded:      true,
			chart: &workbook.Chart{
				Title:      "Participation Summary by Department",
				XAxisTitle: "Department",
				YAxisTitle: "Count",
			},
		}),
	}, nil
}

// performanceFields adds the percentage column to the participation set.
var performanceFields = []LogicalField{
	{Canonical: "department"},
	{Canonical: "test status", Aliases: []string{"status"}},
	{Canonical: "total percentage", Aliases: []string{"percentage"}},
}

func (p *Pipeline) performanceSheets(ds *dataset.Dataset) ([]workbook.Sheet, error) {
	cols, err := resolveOrdered(ds.Headers, performanceFields)
	if err != nil {
		return nil, err
	}
	dept, status, pct := cols[0], cols[1], cols[2]

	// The percentage must reflect post-test results, so its column has to
	// sit at or after the test status column.
	if err := CheckColumnOrder(status, pct); err != nil {
		return nil, err
	}

	categories := make([]string, ds.Len())
	for i := range categories {
		categories[i] = string(ClassifyPerformance(ds.Cell(i, pct.Index)))
	}

	headers, rows := insertColumn(ds, pct.Index+1, "Category", categories)

	participation := Crosstab(dept.Name, ds.Column(dept.Index), ds.Column(status.Index), nil, false)
	performance := Crosstab(dept.Name, ds.Column(dept.Index), categories, PerformanceCategoryOrder, true)

	return []workbook.Sheet{
		rawDataSheet("Data", headers, rows),
		summarySheet(participation, summaryOptions{
			name:        "Participation Summary",
			theme:       workbook.ParticipationTheme(),
			grandColumn: true,
			banded:      true,
			chart: &workbook.Chart{
				Title:      "Participation Summary by Department",
				XAxisTitle: "Department",
				YAxisTitle: "Count",
			},
		}),
		summarySheet(performance, summaryOptions{
			name:        "Performance Summary",
			theme:       workbook.ParticipationTheme(),
			grandColumn: true,
			banded:      true,
			chart: &workbook.Chart{
				Title:      "Performance Summary by Department",
				XAxisTitle: "Department",
				YAxisTitle: "Count",
			},
		}),
	}, nil
}

// weeklyColumns holds every resolved input column of the weekly profile.
type weeklyColumns struct {
	name, status, duration      Column
	maxScore, studentScore, pct Column
	department, count           Column
}

func resolveWeeklyColumns(headers []string) (weeklyColumns, error) {
	var cols weeklyColumns
	var err error

	if cols.name, err = ResolveKeywords(headers, "name"); err != nil {
		return cols, err
	}
	if cols.status, err = ResolveKeywords(headers, "test", "status"); err != nil {
		return cols, err
	}
	if cols.duration, err = ResolveKeywords(headers, "test", "duration"); err != nil {
		return cols, err
	}
	if cols.maxScore, err = ResolveKeywords(headers, "max", "score"); err != nil {
		return cols, err
	}

	// Score columns share a common prefix, e.g. "Week 3 Max Score" pairs
	// with "Week 3 Student Score" and "Week 3 Total Percentage".
	prefix := scorePrefix(cols.maxScore.Name)
	if cols.studentScore, err = ResolveRelated(headers, prefix, "student score"); err != nil {
		return cols, err
	}
	if cols.pct, err = ResolveRelated(headers, prefix, "total percentage"); err != nil {
		return cols, err
	}
	if cols.department, err = ResolveKeywords(headers, "department"); err != nil {
		return cols, err
	}
	cols.count = CountColumn(headers)
	return cols, nil
}

func scorePrefix(maxScoreHeader string) string {
	lower := strings.ToLower(maxScoreHeader)
	idx := strings.LastIndex(lower, "max score")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(maxScoreHeader[:idx])
}

func (p *Pipeline) weeklySheets(ds *dataset.Dataset) ([]workbook.Sheet, error) {
	cols, err := resolveWeeklyColumns(ds.Headers)
	if err != nil {
		return nil, err
	}

	n := ds.Len()
	portal := make([]string, n)
	attempt := make([]string, n)
	category := make([]string, n)
	for i := 0; i < n; i++ {
		portal[i] = string(ClassifyPortal(ds.Cell(i, cols.name.Index)))
		attempt[i] = string(ClassifyAttempt(ds.Cell(i, cols.duration.Index)))
		category[i] = string(ClassifyWeekly(ds.Cell(i, cols.pct.Index)))
	}

	headers, rows := weeklyLayout(ds, cols, portal, attempt, category)

	overall := workbook.Sheet{
		Name:    overallDataSheet,
		Headers: headers,
		Rows:    rows,
		Theme:   workbook.WeeklyTheme(),
		// Classification columns sit at the front of the layout.
		CenterCols: []int{0, 1, 2, 6},
		WidthCap:   60,
	}

	countLabel := "Count of " + cols.count.Name
	depts := ds.Column(cols.department.Index)
	statuses := ds.Column(cols.status.Index)

	divPerformance := Crosstab(cols.department.Name, depts, category, WeeklyCategoryOrder, true)
	overallPerformance := Distribution("Category", "Count", category, WeeklyCategoryOrder, true)
	divParticipation := Crosstab(cols.department.Name, depts, statuses, WeeklyParticipationOrder, true)
	overallParticipation := Distribution("Test Status", "Count", statuses, WeeklyParticipationOrder, true)
	attemptSummary := Distribution("Attempt Status", countLabel, attempt, AttemptStatusOrder, true)

	return []workbook.Sheet{
		overall,
		summarySheet(divPerformance, summaryOptions{
			name:      "Div Wise Performance Summary",
			theme:     workbook.WeeklyTheme(),
			centerAll: true,
			widthCap:  60,
			chart: &workbook.Chart{
				Title:      "Department Wise Performance Summary",
				XAxisTitle: "Department",
				YAxisTitle: "Count",
			},
		}),
		summarySheet(overallPerformance, summaryOptions{
			name:      "Overall Performance Summary",
			theme:     workbook.WeeklyTheme(),
			centerAll: true,
			widthCap:  60,
			chart: &workbook.Chart{
				Title:      "Overall Performance Distribution",
				XAxisTitle: "Category",
				YAxisTitle: "Count",
			},
		}),
		summarySheet(divParticipation, summaryOptions{
			name:        "Div Wise Participation Summary",
			theme:       workbook.WeeklyTheme(),
			grandColumn: true,
			centerAll:   true,
			widthCap:    60,
			chart: &workbook.Chart{
				Title:      "Department Wise Participation",
				XAxisTitle: "Department",
				YAxisTitle: "Count",
			},
		}),
		summarySheet(overallParticipation, summaryOptions{
			name:      "Overall Participation Summary",
			theme:     workbook.WeeklyTheme(),
			centerAll: true,
			widthCap:  40,
			chart: &workbook.Chart{
				Title:      "Summary",
				XAxisTitle: "Test Status",
				YAxisTitle: "Count",
			},
		}),
		summarySheet(attemptSummary, summaryOptions{
			name:      "Attempt Status Summary",
			theme:     workbook.SoftTheme(),
			centerAll: true,
			widthCap:  40,
			chart: &workbook.Chart{
				Title:      "Attempt Status Distribution",
				XAxisTitle: "Attempt Status",
				YAxisTitle: "Count",
			},
		}),
	}, nil
}

// weeklyLayout reorders the dataset so the classification columns lead:
// test status, portal status, attempt status, max score, student score,
// total percentage, category, then every remaining column in input order.
func weeklyLayout(ds *dataset.Dataset, cols weeklyColumns, portal, attempt, category []string) ([]string, [][]any) {
	const derivedPortal, derivedAttempt, derivedCategory = -1, -2, -3

	sources := []int{
		cols.status.Index,
		derivedPortal,
		derivedAttempt,
		cols.maxScore.Index,
		cols.studentScore.Index,
		cols.pct.Index,
		derivedCategory,
	}
	used := map[int]bool{
		cols.status.Index:       true,
		cols.maxScore.Index:     true,
		cols.studentScore.Index: true,
		cols.pct.Index:          true,
	}
	for i := range ds.Headers {
		if !used[i] {
			sources = append(sources, i)
		}
	}

	headers := make([]string, len(sources))
	for i, src := range sources {
		switch src {
		case derivedPortal:
			headers[i] = "Portal Status"
		case derivedAttempt:
			headers[i] = "Attempt Status"
		case derivedCategory:
			headers[i] = "Category"
		default:
			headers[i] = ds.Headers[src]
		}
	}

	rows := make([][]any, ds.Len())
	for r := range rows {
		row := make([]any, len(sources))
		for i, src := range sources {
			switch src {
			case derivedPortal:
				row[i] = portal[r]
			case derivedAttempt:
				row[i] = attempt[r]
			case derivedCategory:
				row[i] = category[r]
			default:
				row[i] = ds.Cell(r, src)
			}
		}
		rows[r] = row
	}
	return headers, rows
}

// insertColumn returns the dataset's headers and rows with one extra column
// spliced in at the given position.
func insertColumn(ds *dataset.Dataset, at int, header string, values []string) ([]string, [][]any) {
	headers := make([]string, 0, len(ds.Headers)+1)
	headers = append(headers, ds.Headers[:at]...)
	headers = append(headers, header)
	headers = append(headers, ds.Headers[at:]...)

	rows := make([][]any, ds.Len())
	for r := range rows {
		row := make([]any, 0, len(headers))
		for c := 0; c < at; c++ {
			row = append(row, ds.Cell(r, c))
		}
		row = append(row, values[r])
		for c := at; c < len(ds.Headers); c++ {
			row = append(row, ds.Cell(r, c))
		}
		rows[r] = row
	}
	return headers, rows
}

func stringRows(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		converted := make([]any, len(row))
		for j, cell := range row {
			converted[j] = cell
		}
		out[i] = converted
	}
	return out
}

func rawDataSheet(name string, headers []string, rows [][]any) workbook.Sheet {
	return workbook.Sheet{
		Name:    name,
		Headers: headers,
		Rows:    rows,
		Theme:   workbook.ParticipationTheme(),
		Banded:  true,
	}
}

type summaryOptions struct {
	name        string
	theme       workbook.Theme
	chart       *workbook.Chart
	grandColumn bool
	centerAll   bool
	banded      bool
	widthCap    float64
}

// summarySheet renders a SummaryTable as a sheet descriptor. The chart's
// series span exactly the table's category columns; the Grand Total row and
// column stay out of the chart range.
func summarySheet(t *SummaryTable, opts summaryOptions) workbook.Sheet {
	headers := append([]string{t.RowDim}, t.Columns...)
	if opts.grandColumn {
		headers = append(headers, "Grand Total")
	}

	rows := make([][]any, len(t.RowLabels))
	for i, label := range t.RowLabels {
		row := make([]any, 0, len(headers))
		row = append(row, label)
		for _, col := range t.Columns {
			row = append(row, t.Count(label, col))
		}
		if opts.grandColumn {
			row = append(row, t.RowTotal(label))
		}
		rows[i] = row
	}

	totalRow := make([]any, 0, len(headers))
	totalRow = append(totalRow, "Grand Total")
	for _, ct := range t.ColumnTotals() {
		totalRow = append(totalRow, ct)
	}
	if opts.grandColumn {
		totalRow = append(totalRow, t.GrandTotal())
	}

	chart := opts.chart
	if chart != nil {
		c := *chart
		c.SeriesCols = len(t.Columns)
		chart = &c
	}

	return workbook.Sheet{
		Name:      opts.name,
		Headers:   headers,
		Rows:      rows,
		TotalRow:  totalRow,
		Theme:     opts.theme,
		Banded:    opts.banded,
		CenterAll: opts.centerAll,
		WidthCap:  opts.widthCap,
		Chart:     chart,
	}
}
