package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/domain/types"
)

func TestReportLatestCompleteWeek(t *testing.T) {
	t.Run("skips trailing partial week", func(t *testing.T) {
		r := model.NewReport(time.Now())
		r.Weeks = []model.WeeklyAggregate{
			{WeekStart: model.Date(2020, time.March, 9), TotalDeaths: 40, DayCount: 7},
			{WeekStart: model.Date(2020, time.March, 16), TotalDeaths: 242, DayCount: 7},
			{WeekStart: model.Date(2020, time.March, 23), TotalDeaths: 90, DayCount: 2},
		}

		w, ok := r.LatestCompleteWeek()
		gt.True(t, ok)
		gt.Equal(t, w.TotalDeaths, int64(242))
	})

	t.Run("no complete weeks", func(t *testing.T) {
		r := model.NewReport(time.Now())
		_, ok := r.LatestCompleteWeek()
		gt.False(t, ok)
	})
}

func TestReportChart(t *testing.T) {
	r := model.NewReport(time.Now())
	r.Charts = []model.Chart{{Name: types.ChartWeeklyTotals, Path: "out/weekly_totals.png"}}

	c, ok := r.Chart(types.ChartWeeklyTotals)
	gt.True(t, ok)
	gt.Equal(t, c.Path, "out/weekly_totals.png")

	_, ok = r.Chart(types.ChartDailySeries)
	gt.False(t, ok)
}
