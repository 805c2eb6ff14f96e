package usecase

import (
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/service/fetch"
)

// Positions of the four daily CSV columns
const (
	dailyColReportDate = iota
	dailyColPublishDate
	dailyColCumulative
	dailyColDaily
	dailyColumnCount
)

// NationalLayout names the columns of the national statistics table and anchors its
// implicit weekly cadence
type NationalLayout struct {
	WeekColumn  string
	CovidColumn string
	// FirstWeekEnding is the week ending date of the first data row
	FirstWeekEnding time.Time
}

// DefaultNationalLayout matches the 2020 weekly deaths workbook
func DefaultNationalLayout() NationalLayout {
	return NationalLayout{
		WeekColumn:      "Week number",
		CovidColumn:     "Deaths involving COVID-19",
		FirstWeekEnding: model.Date(2020, time.January, 3),
	}
}

// DecodeDaily resolves the daily deaths table into typed records. It rejects duplicate or
// out-of-order report dates, negative counts and a decreasing cumulative count.
func DecodeDaily(table *fetch.Table) ([]model.DailyDeathRecord, error) {
	if table.Width() != dailyColumnCount {
		return nil, goerr.New("daily table must have exactly four columns",
			goerr.T(model.ErrTagShape),
			goerr.V("columns", table.Header()))
	}
	if table.Len() > 0 {
		for col, want := range map[int]fetch.ColumnKind{
			dailyColReportDate: fetch.KindDate,
			dailyColCumulative: fetch.KindInteger,
			dailyColDaily:      fetch.KindInteger,
		} {
			if got := table.Kind(col); got != want {
				return nil, goerr.New("unexpected daily column type",
					goerr.T(model.ErrTagShape),
					goerr.V("column", table.Header()[col]),
					goerr.V("want", want.String()),
					goerr.V("got", got.String()))
			}
		}
	}

	records := make([]model.DailyDeathRecord, 0, table.Len())
	for row := 0; row < table.Len(); row++ {
		reportDate, err := table.Date(row, dailyColReportDate)
		if err != nil {
			return nil, err
		}
		cumulative, err := table.Int(row, dailyColCumulative)
		if err != nil {
			return nil, err
		}
		daily, err := table.Int(row, dailyColDaily)
		if err != nil {
			return nil, err
		}
		if daily < 0 || cumulative < 0 {
			return nil, goerr.New("negative death count",
				goerr.T(model.ErrTagShape),
				goerr.V("row", row),
				goerr.V("daily", daily),
				goerr.V("cumulative", cumulative))
		}

		if n := len(records); n > 0 {
			prev := records[n-1]
			switch {
			case reportDate.Equal(prev.ReportDate):
				return nil, goerr.New("duplicate report date",
					goerr.T(model.ErrTagShape),
					goerr.V("row", row),
					goerr.V("date", model.FormatDayMonthYear(reportDate)))
			case reportDate.Before(prev.ReportDate):
				return nil, goerr.New("report dates are not ascending",
					goerr.T(model.ErrTagShape),
					goerr.V("row", row),
					goerr.V("date", model.FormatDayMonthYear(reportDate)),
					goerr.V("previous", model.FormatDayMonthYear(prev.ReportDate)))
			case cumulative < prev.CumulativeCount:
				return nil, goerr.New("cumulative count decreased",
					goerr.T(model.ErrTagShape),
					goerr.V("row", row),
					goerr.V("cumulative", cumulative),
					goerr.V("previous", prev.CumulativeCount))
			}
		}

		rec := model.NewDailyDeathRecord(reportDate, daily, cumulative)
		rec.PublishDate = table.Value(row, dailyColPublishDate)
		records = append(records, rec)
	}

	return records, nil
}

// DecodeNational resolves the national statistics table into typed records. Week ending
// dates come from row positions, so the week number column must count 1..n in row order
// and the last week must have ended by asOf.
func DecodeNational(table *fetch.Table, layout NationalLayout, asOf time.Time) ([]model.NationalStatsRecord, error) {
	if layout.FirstWeekEnding.IsZero() {
		return nil, goerr.New("first week ending date is not set", goerr.T(model.ErrTagShape))
	}

	weekCol, ok := table.Index(layout.WeekColumn)
	if !ok {
		return nil, goerr.New("week number column not found",
			goerr.T(model.ErrTagShape),
			goerr.V("column", layout.WeekColumn),
			goerr.V("header", table.Header()))
	}
	covidCol, ok := table.Index(layout.CovidColumn)
	if !ok {
		return nil, goerr.New("covid deaths column not found",
			goerr.T(model.ErrTagShape),
			goerr.V("column", layout.CovidColumn),
			goerr.V("header", table.Header()))
	}

	var comparisonCols []int
	for col, name := range table.Header() {
		if col == weekCol || col == covidCol || strings.TrimSpace(name) == "" {
			continue
		}
		if k := table.Kind(col); k == fetch.KindInteger || k == fetch.KindNumber {
			comparisonCols = append(comparisonCols, col)
		}
	}

	records := make([]model.NationalStatsRecord, 0, table.Len())
	for row := 0; row < table.Len(); row++ {
		week, err := table.Int(row, weekCol)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid week number", goerr.T(model.ErrTagShape))
		}
		if week != int64(row+1) {
			return nil, goerr.New("week numbers do not follow row order",
				goerr.T(model.ErrTagShape),
				goerr.V("row", row),
				goerr.V("week", week),
				goerr.V("expected", row+1))
		}

		covid, err := table.Int(row, covidCol)
		if err != nil {
			return nil, err
		}
		if covid < 0 {
			return nil, goerr.New("negative covid death count",
				goerr.T(model.ErrTagShape),
				goerr.V("row", row),
				goerr.V("value", covid))
		}

		rec := model.NationalStatsRecord{
			WeekNumber:  int(week),
			WeekEnding:  model.WeekEndingFromIndex(layout.FirstWeekEnding, row),
			CovidDeaths: covid,
		}
		for _, col := range comparisonCols {
			if table.Value(row, col) == "" {
				continue
			}
			v, err := table.Float(row, col)
			if err != nil {
				return nil, err
			}
			rec.Comparisons = append(rec.Comparisons, model.Measure{Name: table.Header()[col], Value: v})
		}
		records = append(records, rec)
	}

	if n := len(records); n > 0 && !asOf.IsZero() {
		last := records[n-1].WeekEnding
		if last.After(model.TruncateDay(asOf)) {
			return nil, goerr.New("national table has more weeks than have elapsed",
				goerr.T(model.ErrTagShape),
				goerr.V("rows", n),
				goerr.V("last_week_ending", last.Format(time.DateOnly)),
				goerr.V("as_of", asOf.Format(time.DateOnly)))
		}
	}

	return records, nil
}
