package report

import "fmt"

// Profile selects which report the engine generates.
type Profile string

const (
	ProfileParticipation Profile = "participation"
	ProfilePerformance   Profile = "performance"
	ProfileWeekly        Profile = "weekly"
)

// ParseProfile converts a user-supplied report type string to a Profile.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case ProfileParticipation, ProfilePerformance, ProfileWeekly:
		return Profile(s), nil
	default:
		return "", fmt.Errorf("unknown report profile: %q", s)
	}
}

func (p Profile) String() string {
	return string(p)
}

// OutputFilename returns the download name for a generated workbook.
// The weekly report uses a fixed name; the others derive from the upload.
func (p Profile) OutputFilename(base string) string {
	switch p {
	case ProfileParticipation:
		return base + "_participation_report.xlsx"
	case ProfilePerformance:
		return base + "_performance_report.xlsx"
	case ProfileWeekly:
		return "Parul_Weekly_Report_Processed.xlsx"
	default:
		return base + "_report.xlsx"
	}
}

// Category is a classification label assigned to a record by business rule.
type Category string

// Performance report categories.
const (
	CategoryGood          Category = "Good"
	CategorySatisfactory  Category = "Satisfactory"
	CategoryNeedAttention Category = "Need Attention"
	CategoryIntervention  Category = "Intervention"
	CategoryNotAttended   Category = "Not Attended"
)

// PerformanceCategoryOrder is the canonical column order for performance
// summaries. Charts and legends depend on this order being stable.
var PerformanceCategoryOrder = []string{
	string(CategoryGood),
	string(CategorySatisfactory),
	string(CategoryNeedAttention),
	string(CategoryIntervention),
	string(CategoryNotAttended),
}

// Weekly report categories. The labels carry the band ranges because they
// are rendered directly into the workbook.
const (
	WeeklyGood           Category = "Good (75%+)"
	WeeklySatisfactory   Category = "Satisfactory (50% - 75%)"
	WeeklyNeedsAttention Category = "Needs Attention (25% - 50%)"
	WeeklyIntervention   Category = "Intervention (0% - 25%)"
	WeeklyNotStarted     Category = "Not Started"
	WeeklyInvalidScore   Category = "Invalid Score"
)

// WeeklyCategoryOrder is the canonical column order for weekly performance
// summaries.
var WeeklyCategoryOrder = []string{
	string(WeeklyGood),
	string(WeeklySatisfactory),
	string(WeeklyNeedsAttention),
	string(WeeklyIntervention),
	string(WeeklyNotStarted),
}

// PortalStatus values derived from the name column.
const (
	PortalActivated    Category = "Activated"
	PortalNotActivated Category = "Not Activated"
)

// AttemptStatus values derived from the test duration column.
const (
	AttemptSuccessful   Category = "Successful Attempt"
	AttemptUnsuccessful Category = "Unsuccessful Attempt"
	AttemptNone         Category = "No Attempt"
)

// AttemptStatusOrder is the canonical row order for the attempt status
// summary.
var AttemptStatusOrder = []string{
	string(AttemptSuccessful),
	string(AttemptUnsuccessful),
	string(AttemptNone),
}

// WeeklyParticipationOrder is the canonical test status order for the weekly
// participation summaries.
var WeeklyParticipationOrder = []string{"Completed", "Not Started"}
