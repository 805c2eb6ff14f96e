package chart

// Test-only access to the series builders
var (
	WeeklyTotalsSeries = weeklyTotalsSeries
	WeeklyChangeSeries = weeklyChangeSeries
	SmoothingInput     = smoothingInput
)
