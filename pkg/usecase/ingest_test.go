package usecase_test

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
	"github.com/secmon-lab/deathweek/pkg/domain/types"
	"github.com/secmon-lab/deathweek/pkg/service/fetch"
	"github.com/secmon-lab/deathweek/pkg/usecase"
)

const dailyHeader = "Publicly confirmed as deceased as of 5pm this day,Publish date,UK cumulative,UK daily\n"

func csvTable(t *testing.T, body string) *fetch.Table {
	t.Helper()
	table, err := fetch.ParseCSV(strings.NewReader(body))
	gt.NoError(t, err)
	return table
}

func TestDecodeDaily(t *testing.T) {
	t.Run("derives calendar fields", func(t *testing.T) {
		table := csvTable(t, dailyHeader+
			"05-Mar-20,06-Mar-20,1,1\n"+
			"06-Mar-20,07-Mar-20,1,0\n"+
			"09-Mar-20,10-Mar-20,4,3\n")

		records, err := usecase.DecodeDaily(table)
		gt.NoError(t, err)
		gt.A(t, records).Length(3)

		gt.Equal(t, records[0].ReportDate, model.Date(2020, time.March, 5))
		gt.Equal(t, records[0].DayOfWeek, types.Thu)
		gt.Equal(t, records[0].WeekStart, model.Date(2020, time.March, 2))
		gt.Equal(t, records[0].PublishDate, "06-Mar-20")
		gt.Equal(t, records[2].DayOfWeek, types.Mon)
		gt.Equal(t, records[2].WeekStart, model.Date(2020, time.March, 9))
		gt.Equal(t, records[2].DailyCount, int64(3))
		gt.Equal(t, records[2].CumulativeCount, int64(4))
	})

	t.Run("header only yields no records", func(t *testing.T) {
		records, err := usecase.DecodeDaily(csvTable(t, dailyHeader))
		gt.NoError(t, err)
		gt.A(t, records).Length(0)
	})

	failures := map[string]string{
		"duplicate report date": dailyHeader +
			"05-Mar-20,06-Mar-20,1,1\n" +
			"05-Mar-20,06-Mar-20,2,1\n",
		"descending dates": dailyHeader +
			"06-Mar-20,07-Mar-20,1,1\n" +
			"05-Mar-20,06-Mar-20,2,1\n",
		"decreasing cumulative": dailyHeader +
			"05-Mar-20,06-Mar-20,5,1\n" +
			"06-Mar-20,07-Mar-20,4,1\n",
		"negative daily": dailyHeader +
			"05-Mar-20,06-Mar-20,1,-1\n",
		"extra column": "a,b,c,d,e\n05-Mar-20,x,1,1,1\n",
		"text in count column": dailyHeader +
			"05-Mar-20,06-Mar-20,1,one\n",
		"iso dates": dailyHeader +
			"2020-03-05,2020-03-06,1,1\n",
	}
	for name, body := range failures {
		t.Run("rejects "+name, func(t *testing.T) {
			_, err := usecase.DecodeDaily(csvTable(t, body))
			gt.Error(t, err)
			gt.B(t, goerr.HasTag(err, model.ErrTagShape)).True()
		})
	}
}

func nationalTable(t *testing.T, rows [][]string) *fetch.Table {
	t.Helper()
	table, err := fetch.NewTable(
		[]string{"Week number", "Total deaths, all ages", "Deaths involving COVID-19", "Notes"},
		rows,
	)
	gt.NoError(t, err)
	return table
}

func TestDecodeNational(t *testing.T) {
	asOf := model.Date(2020, time.June, 1)

	t.Run("derives week ending from row index", func(t *testing.T) {
		rows := make([][]string, 0, 17)
		for i := 1; i <= 17; i++ {
			covid := "0"
			if i >= 11 {
				covid = "1,000"
			}
			rows = append(rows, []string{strconv.Itoa(i), "12000", covid, ""})
		}

		records, err := usecase.DecodeNational(nationalTable(t, rows), usecase.DefaultNationalLayout(), asOf)
		gt.NoError(t, err)
		gt.A(t, records).Length(17)
		gt.Equal(t, records[0].WeekEnding, model.Date(2020, time.January, 3))
		gt.Equal(t, records[16].WeekEnding, model.Date(2020, time.April, 17))
		gt.Equal(t, records[16].WeekNumber, 17)
		gt.Equal(t, records[16].CovidDeaths, int64(1000))

		total, ok := records[0].Comparison("Total deaths, all ages")
		gt.True(t, ok)
		gt.Equal(t, total, 12000.0)
		_, ok = records[0].Comparison("Notes")
		gt.False(t, ok)
	})

	t.Run("rejects week numbers out of row order", func(t *testing.T) {
		rows := [][]string{
			{"1", "12000", "0", ""},
			{"3", "12000", "0", ""},
		}
		_, err := usecase.DecodeNational(nationalTable(t, rows), usecase.DefaultNationalLayout(), asOf)
		gt.Error(t, err)
		gt.B(t, goerr.HasTag(err, model.ErrTagShape)).True()
	})

	t.Run("rejects more weeks than have elapsed", func(t *testing.T) {
		rows := [][]string{
			{"1", "12000", "0", ""},
			{"2", "12000", "0", ""},
		}
		_, err := usecase.DecodeNational(nationalTable(t, rows), usecase.DefaultNationalLayout(), model.Date(2020, time.January, 5))
		gt.Error(t, err)
		gt.B(t, goerr.HasTag(err, model.ErrTagShape)).True()
	})

	t.Run("rejects missing covid column", func(t *testing.T) {
		layout := usecase.DefaultNationalLayout()
		layout.CovidColumn = "COVID-19 deaths (registered)"
		_, err := usecase.DecodeNational(nationalTable(t, nil), layout, asOf)
		gt.Error(t, err)
		gt.B(t, goerr.HasTag(err, model.ErrTagShape)).True()
	})

	t.Run("column names are matched case-insensitively", func(t *testing.T) {
		layout := usecase.DefaultNationalLayout()
		layout.WeekColumn = "WEEK NUMBER"
		records, err := usecase.DecodeNational(nationalTable(t, [][]string{{"1", "1", "0", ""}}), layout, asOf)
		gt.NoError(t, err)
		gt.A(t, records).Length(1)
	})
}
