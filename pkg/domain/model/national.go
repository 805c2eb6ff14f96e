package model

import "time"

// Measure is a named numeric column carried through from the national statistics
// workbook without modification
type Measure struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// NationalStatsRecord is one weekly row of the national statistics workbook
type NationalStatsRecord struct {
	WeekNumber  int       `json:"week_number"`
	WeekEnding  time.Time `json:"week_ending"`
	CovidDeaths int64     `json:"covid_deaths"`
	Comparisons []Measure `json:"comparisons,omitempty"`
}

// Comparison returns the carried-through value for name
func (r NationalStatsRecord) Comparison(name string) (float64, bool) {
	for _, m := range r.Comparisons {
		if m.Name == name {
			return m.Value, true
		}
	}
	return 0, false
}
