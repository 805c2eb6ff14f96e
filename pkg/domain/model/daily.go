package model

import (
	"time"

	"github.com/secmon-lab/deathweek/pkg/domain/types"
)

// DailyDeathRecord is one row of the daily deaths CSV, resolved to typed fields
type DailyDeathRecord struct {
	ReportDate      time.Time     `json:"report_date"`
	PublishDate     string        `json:"publish_date,omitempty"`
	DailyCount      int64         `json:"daily_count"`
	CumulativeCount int64         `json:"cumulative_count"`
	DayOfWeek       types.Weekday `json:"day_of_week"`
	WeekStart       time.Time     `json:"week_start"`
}

// NewDailyDeathRecord builds a record and derives its calendar fields
func NewDailyDeathRecord(reportDate time.Time, daily, cumulative int64) DailyDeathRecord {
	d := TruncateDay(reportDate)
	return DailyDeathRecord{
		ReportDate:      d,
		DailyCount:      daily,
		CumulativeCount: cumulative,
		DayOfWeek:       DayOfWeek(d),
		WeekStart:       WeekStart(d),
	}
}
