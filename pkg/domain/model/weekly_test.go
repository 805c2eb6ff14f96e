package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
)

func dailyRange(from time.Time, counts ...int64) []model.DailyDeathRecord {
	records := make([]model.DailyDeathRecord, 0, len(counts))
	var cumulative int64
	for i, c := range counts {
		cumulative += c
		records = append(records, model.NewDailyDeathRecord(from.AddDate(0, 0, i), c, cumulative))
	}
	return records
}

func TestAggregateByWeek(t *testing.T) {
	t.Run("no records yields no weeks", func(t *testing.T) {
		weeks := model.AggregateByWeek(nil)
		gt.A(t, weeks).Length(0)
	})

	t.Run("records within one week yield one aggregate", func(t *testing.T) {
		records := dailyRange(model.Date(2020, time.March, 10), 1, 2, 3)
		weeks := model.AggregateByWeek(records)
		gt.A(t, weeks).Length(1)
		gt.Equal(t, weeks[0].WeekStart, model.Date(2020, time.March, 9))
		gt.Equal(t, weeks[0].TotalDeaths, int64(6))
		gt.Equal(t, weeks[0].DayCount, 3)
		gt.False(t, weeks[0].IsComplete())
	})

	t.Run("splits on Monday and sums complete weeks exactly", func(t *testing.T) {
		// Thu 2020-03-05 .. Sun 2020-03-22
		counts := []int64{0, 1, 0, 1, 1, 4, 0, 2, 1, 18, 15, 22, 16, 34, 43, 36, 56, 35}
		records := dailyRange(model.Date(2020, time.March, 5), counts...)
		weeks := model.AggregateByWeek(records)

		gt.A(t, weeks).Length(3)
		gt.Equal(t, weeks[0].WeekStart, model.Date(2020, time.March, 2))
		gt.Equal(t, weeks[0].DayCount, 4)
		gt.Equal(t, weeks[0].TotalDeaths, int64(2))

		gt.Equal(t, weeks[1].WeekStart, model.Date(2020, time.March, 9))
		gt.Equal(t, weeks[1].DayCount, 7)
		gt.Equal(t, weeks[1].TotalDeaths, int64(1+4+0+2+1+18+15))

		gt.Equal(t, weeks[2].WeekStart, model.Date(2020, time.March, 16))
		gt.True(t, weeks[2].IsComplete())
		gt.Equal(t, weeks[2].TotalDeaths, int64(22+16+34+43+36+56+35))

		for _, w := range weeks {
			gt.V(t, w.Change).Nil()
			gt.V(t, w.PriorWeekTotal).Nil()
		}
	})

	t.Run("orders weeks regardless of input order", func(t *testing.T) {
		records := append(
			dailyRange(model.Date(2020, time.April, 6), 5),
			dailyRange(model.Date(2020, time.March, 30), 7)...,
		)
		weeks := model.AggregateByWeek(records)
		gt.A(t, weeks).Length(2)
		gt.Equal(t, weeks[0].WeekStart, model.Date(2020, time.March, 30))
		gt.Equal(t, weeks[1].WeekStart, model.Date(2020, time.April, 6))
	})
}

func TestWithWeekOverWeekChange(t *testing.T) {
	t.Run("first week has no change", func(t *testing.T) {
		weeks := []model.WeeklyAggregate{
			{WeekStart: model.Date(2020, time.March, 2), TotalDeaths: 3, DayCount: 7},
			{WeekStart: model.Date(2020, time.March, 9), TotalDeaths: 331, DayCount: 7},
		}

		out := model.WithWeekOverWeekChange(weeks)
		gt.A(t, out).Length(2)
		gt.V(t, out[0].Change).Nil()
		gt.V(t, out[0].PriorWeekTotal).Nil()
		gt.False(t, out[0].HasChange())
		gt.V(t, out[1].Change).NotNil()
		gt.Equal(t, *out[1].Change, int64(328))
		gt.Equal(t, *out[1].PriorWeekTotal, int64(3))
	})

	t.Run("does not modify input", func(t *testing.T) {
		weeks := []model.WeeklyAggregate{
			{TotalDeaths: 10},
			{TotalDeaths: 4},
			{TotalDeaths: 9},
		}
		out := model.WithWeekOverWeekChange(weeks)
		for _, w := range weeks {
			gt.V(t, w.Change).Nil()
		}
		for i := 1; i < len(out); i++ {
			gt.Equal(t, *out[i].Change, out[i].TotalDeaths-out[i-1].TotalDeaths)
		}
		gt.Equal(t, *out[1].Change, int64(-6))
	})

	t.Run("empty input", func(t *testing.T) {
		gt.A(t, model.WithWeekOverWeekChange(nil)).Length(0)
	})
}

func TestPartitionComplete(t *testing.T) {
	weeks := []model.WeeklyAggregate{
		{WeekStart: model.Date(2020, time.March, 2), DayCount: 4},
		{WeekStart: model.Date(2020, time.March, 9), DayCount: 7},
		{WeekStart: model.Date(2020, time.March, 16), DayCount: 7},
		{WeekStart: model.Date(2020, time.March, 23), DayCount: 2},
	}

	complete, partial := model.PartitionComplete(weeks)
	gt.A(t, complete).Length(2)
	gt.A(t, partial).Length(2)
	gt.Equal(t, partial[0].WeekStart, model.Date(2020, time.March, 2))
	gt.Equal(t, partial[1].WeekStart, model.Date(2020, time.March, 23))
}
