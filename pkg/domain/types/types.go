package types

import (
	"github.com/google/uuid"
)

// ReportID represents a report identifier
type ReportID string

// String returns the string representation
func (id ReportID) String() string {
	return string(id)
}

// NewReportID creates a new ReportID
func NewReportID() ReportID {
	return ReportID(uuid.New().String())
}

// ChartName identifies one of the rendered charts
type ChartName string

const (
	ChartDailySeries   ChartName = "daily_series"
	ChartWeeklyTotals  ChartName = "weekly_totals"
	ChartWeeklyChange  ChartName = "weekly_change"
	ChartNationalStats ChartName = "national_stats"
)

// String returns the string representation
func (n ChartName) String() string {
	return string(n)
}

// AllChartNames returns chart names in rendering order
func AllChartNames() []ChartName {
	return []ChartName{
		ChartDailySeries,
		ChartWeeklyTotals,
		ChartWeeklyChange,
		ChartNationalStats,
	}
}
