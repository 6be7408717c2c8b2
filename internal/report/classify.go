package report

import (
	"math"
	"strconv"
	"strings"
)

// naMarkers are the raw values treated as "no score recorded".
var naMarkers = map[string]bool{
	"":     true,
	"NA":   true,
	"N/A":  true,
	"-":    true,
	"NULL": true,
	"NONE": true,
}

// parsePercent converts a raw cell value to a numeric percentage. The second
// return value is false for missing markers and anything non-numeric.
func parsePercent(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if naMarkers[strings.ToUpper(s)] {
		return 0, false
	}
	s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	if naMarkers[strings.ToUpper(s)] {
		return 0, false
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	return p, true
}

// performanceBands maps a percentage to its category. Each band's lower
// bound is exclusive: a value lands in the first band it strictly exceeds,
// so 75.0 is Satisfactory and 75.0001 is Good. The final band catches
// everything at or below 25, negatives included.
var performanceBands = []struct {
	above float64
	cat   Category
}{
	{75, CategoryGood},
	{50, CategorySatisfactory},
	{25, CategoryNeedAttention},
	{math.Inf(-1), CategoryIntervention},
}

// ClassifyPerformance maps a raw percentage value to a performance category.
// Missing or non-numeric values classify as Not Attended, never an error.
func ClassifyPerformance(raw string) Category {
	p, ok := parsePercent(raw)
	if !ok {
		return CategoryNotAttended
	}
	for _, band := range performanceBands {
		if p > band.above {
			return band.cat
		}
	}
	return CategoryIntervention
}

// ClassifyPortal derives the portal status from the name column: the portal
// export writes "-" for accounts that never activated.
func ClassifyPortal(name string) Category {
	if strings.TrimSpace(name) == "-" {
		return PortalNotActivated
	}
	return PortalActivated
}

// ClassifyAttempt derives the attempt status from the test duration column.
func ClassifyAttempt(duration string) Category {
	switch strings.TrimSpace(duration) {
	case "", "-":
		return AttemptNone
	case "0:00:00":
		return AttemptUnsuccessful
	default:
		return AttemptSuccessful
	}
}

// weeklyBands use inclusive lower bounds on a 0..1 scale.
var weeklyBands = []struct {
	atLeast float64
	cat     Category
}{
	{0.75, WeeklyGood},
	{0.50, WeeklySatisfactory},
	{0.25, WeeklyNeedsAttention},
	{0, WeeklyIntervention},
}

// ClassifyWeekly maps a raw total percentage value to a weekly category.
// Values above 1 are treated as percentages and scaled down; missing values
// classify as Not Started and unparseable or negative ones as Invalid Score.
func ClassifyWeekly(raw string) Category {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "%", ""))
	if naMarkers[strings.ToUpper(s)] {
		return WeeklyNotStarted
	}
	score, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(score) || math.IsInf(score, 0) {
		return WeeklyInvalidScore
	}
	if score > 1 {
		score /= 100
	}
	for _, band := range weeklyBands {
		if score >= band.atLeast {
			return band.cat
		}
	}
	return WeeklyInvalidScore
}
