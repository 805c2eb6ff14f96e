package model

import (
	"sort"
	"time"
)

// DaysPerWeek is the number of daily records in a complete week
const DaysPerWeek = 7

// WeeklyAggregate is the sum of daily deaths for one Monday-anchored week.
// PriorWeekTotal and Change are nil when there is no preceding week.
type WeeklyAggregate struct {
	WeekStart      time.Time `json:"week_start"`
	TotalDeaths    int64     `json:"total_deaths"`
	DayCount       int       `json:"day_count"`
	PriorWeekTotal *int64    `json:"prior_week_total"`
	Change         *int64    `json:"change"`
}

// IsComplete returns true if all seven days of the week contributed
func (w WeeklyAggregate) IsComplete() bool {
	return w.DayCount == DaysPerWeek
}

// HasChange returns true if a week-over-week change is defined
func (w WeeklyAggregate) HasChange() bool {
	return w.Change != nil
}

// AggregateByWeek groups records by week start, sums their daily counts and counts the
// contributing records. The result is ordered by ascending week start.
func AggregateByWeek(records []DailyDeathRecord) []WeeklyAggregate {
	if len(records) == 0 {
		return []WeeklyAggregate{}
	}

	index := make(map[time.Time]int)
	weeks := make([]WeeklyAggregate, 0, len(records)/DaysPerWeek+1)
	for _, r := range records {
		key := WeekStart(r.ReportDate)
		i, ok := index[key]
		if !ok {
			i = len(weeks)
			index[key] = i
			weeks = append(weeks, WeeklyAggregate{WeekStart: key})
		}
		weeks[i].TotalDeaths += r.DailyCount
		weeks[i].DayCount++
	}

	sort.Slice(weeks, func(a, b int) bool {
		return weeks[a].WeekStart.Before(weeks[b].WeekStart)
	})
	return weeks
}

// WithWeekOverWeekChange returns a copy of weeks with PriorWeekTotal and Change set from
// the preceding element. weeks must already be sorted by week start.
func WithWeekOverWeekChange(weeks []WeeklyAggregate) []WeeklyAggregate {
	out := make([]WeeklyAggregate, len(weeks))
	for i, w := range weeks {
		w.PriorWeekTotal = nil
		w.Change = nil
		if i > 0 {
			prior := weeks[i-1].TotalDeaths
			change := w.TotalDeaths - prior
			w.PriorWeekTotal = &prior
			w.Change = &change
		}
		out[i] = w
	}
	return out
}

// PartitionComplete splits weeks into complete and partial weeks, preserving order
func PartitionComplete(weeks []WeeklyAggregate) (complete, partial []WeeklyAggregate) {
	complete = []WeeklyAggregate{}
	partial = []WeeklyAggregate{}
	for _, w := range weeks {
		if w.IsComplete() {
			complete = append(complete, w)
		} else {
			partial = append(partial, w)
		}
	}
	return complete, partial
}
