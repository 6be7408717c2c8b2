package report

import (
	"sort"
	"strings"
)

// BlankBucket is the fallback bucket for records whose grouping value is
// empty. Records are never silently dropped from a summary.
const BlankBucket = "(blank)"

// SummaryTable is an aggregated count matrix over one or two categorical
// dimensions. Rows keep first-seen dataset order unless a canonical row
// order is imposed; columns follow the profile's canonical category order.
type SummaryTable struct {
	RowDim    string
	RowLabels []string
	Columns   []string
	counts    map[string]map[string]int
}

// Crosstab builds a department-by-category style count table. rowKeys and
// colKeys are parallel, one entry per record. Canonical columns always
// appear (zero-filled) and in order when includeAll is set; otherwise only
// observed columns appear, ranked by canonical position. Columns outside the
// canonical list are appended in sorted order so anomalous values stay
// visible. A nil canonical list sorts all observed columns alphabetically.
func Crosstab(rowDim string, rowKeys, colKeys []string, canonical []string, includeAll bool) *SummaryTable {
	t := &SummaryTable{
		RowDim: rowDim,
		counts: make(map[string]map[string]int),
	}

	seen := make(map[string]bool)
	observed := make(map[string]bool)
	for i, rk := range rowKeys {
		row := bucket(rk)
		col := bucket(colKeys[i])
		if !seen[row] {
			seen[row] = true
			t.RowLabels = append(t.RowLabels, row)
		}
		observed[col] = true
		if t.counts[row] == nil {
			t.counts[row] = make(map[string]int)
		}
		t.counts[row][col]++
	}

	t.Columns = orderColumns(observed, canonical, includeAll)
	return t
}

// Distribution builds a one-dimensional count table: one row per category,
// a single count column labelled countLabel. Rows follow the canonical
// order; observed categories outside it are appended sorted.
func Distribution(rowDim, countLabel string, keys []string, canonical []string, includeAll bool) *SummaryTable {
	t := &SummaryTable{
		RowDim:  rowDim,
		Columns: []string{countLabel},
		counts:  make(map[string]map[string]int),
	}

	observed := make(map[string]bool)
	for _, k := range keys {
		row := bucket(k)
		observed[row] = true
		if t.counts[row] == nil {
			t.counts[row] = make(map[string]int)
		}
		t.counts[row][countLabel]++
	}

	t.RowLabels = orderColumns(observed, canonical, includeAll)
	return t
}

func bucket(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return BlankBucket
	}
	return key
}

func orderColumns(observed map[string]bool, canonical []string, includeAll bool) []string {
	if canonical == nil {
		cols := make([]string, 0, len(observed))
		for c := range observed {
			cols = append(cols, c)
		}
		sort.Strings(cols)
		return cols
	}

	var cols []string
	inCanonical := make(map[string]bool, len(canonical))
	for _, c := range canonical {
		inCanonical[c] = true
		if includeAll || observed[c] {
			cols = append(cols, c)
		}
	}
	var extras []string
	for c := range observed {
		if !inCanonical[c] {
			extras = append(extras, c)
		}
	}
	sort.Strings(extras)
	return append(cols, extras...)
}

// Count returns the cell value for a row label and column.
func (t *SummaryTable) Count(row, col string) int {
	return t.counts[row][col]
}

// Counts returns the full matrix in row-label and column order.
func (t *SummaryTable) Counts() [][]int {
	m := make([][]int, len(t.RowLabels))
	for i, row := range t.RowLabels {
		m[i] = make([]int, len(t.Columns))
		for j, col := range t.Columns {
			m[i][j] = t.counts[row][col]
		}
	}
	return m
}

// RowTotal returns the sum of a single row.
func (t *SummaryTable) RowTotal(row string) int {
	total := 0
	for _, col := range t.Columns {
		total += t.counts[row][col]
	}
	return total
}

// ColumnTotals returns per-column sums in column order.
func (t *SummaryTable) ColumnTotals() []int {
	totals := make([]int, len(t.Columns))
	for _, row := range t.RowLabels {
		for j, col := range t.Columns {
			totals[j] += t.counts[row][col]
		}
	}
	return totals
}

// GrandTotal returns the sum of every cell, which always equals the number
// of contributing records.
func (t *SummaryTable) GrandTotal() int {
	total := 0
	for _, ct := range t.ColumnTotals() {
		total += ct
	}
	return total
}

// PercentByRow returns each cell divided by its row total. An empty row
// yields zeros rather than an error.
func (t *SummaryTable) PercentByRow() [][]float64 {
	m := make([][]float64, len(t.RowLabels))
	for i, row := range t.RowLabels {
		m[i] = make([]float64, len(t.Columns))
		rowTotal := t.RowTotal(row)
		if rowTotal == 0 {
			continue
		}
		for j, col := range t.Columns {
			m[i][j] = float64(t.counts[row][col]) / float64(rowTotal)
		}
	}
	return m
}
