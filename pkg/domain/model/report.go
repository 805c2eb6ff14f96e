package model

import (
	"time"

	"github.com/secmon-lab/deathweek/pkg/domain/types"
)

// Chart refers to a rendered chart file. File is slash separated and relative to the
// chart output directory, so it can be served under /charts/.
type Chart struct {
	Name types.ChartName `json:"name"`
	Path string          `json:"path"`
	File string          `json:"file"`
}

// Source describes where a table came from
type Source struct {
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Report is the outcome of one pipeline run
type Report struct {
	ID           types.ReportID        `json:"id"`
	GeneratedAt  time.Time             `json:"generated_at"`
	DailySource  Source                `json:"daily_source"`
	WeeklySource Source                `json:"weekly_source"`
	Weeks        []WeeklyAggregate     `json:"weeks"`
	PartialWeeks []WeeklyAggregate     `json:"partial_weeks"`
	National     []NationalStatsRecord `json:"national"`
	Charts       []Chart               `json:"charts"`
	Narrative    string                `json:"narrative,omitempty"`
}

// NewReport creates an empty report stamped with a new ID
func NewReport(now time.Time) *Report {
	return &Report{
		ID:          types.NewReportID(),
		GeneratedAt: now,
	}
}

// CompleteWeeks returns weeks with all seven days present
func (r *Report) CompleteWeeks() []WeeklyAggregate {
	complete, _ := PartitionComplete(r.Weeks)
	return complete
}

// LatestCompleteWeek returns the most recent complete week, if any
func (r *Report) LatestCompleteWeek() (WeeklyAggregate, bool) {
	complete := r.CompleteWeeks()
	if len(complete) == 0 {
		return WeeklyAggregate{}, false
	}
	return complete[len(complete)-1], true
}

// Chart returns the rendered chart with the given name
func (r *Report) Chart(name types.ChartName) (Chart, bool) {
	for _, c := range r.Charts {
		if c.Name == name {
			return c, true
		}
	}
	return Chart{}, false
}
