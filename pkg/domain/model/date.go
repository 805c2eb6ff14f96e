package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/types"
)

// DayMonthYearLayout is the DD-MMM-YY form used by the daily deaths CSV, e.g. "05-Mar-20"
const DayMonthYearLayout = "02-Jan-06"

// monthAbbrev holds the abbreviations FormatDayMonthYear writes. Other casings are
// rejected so a parsed date always formats back to its input.
var monthAbbrev = map[string]time.Month{
	"Jan": time.January,
	"Feb": time.February,
	"Mar": time.March,
	"Apr": time.April,
	"May": time.May,
	"Jun": time.June,
	"Jul": time.July,
	"Aug": time.August,
	"Sep": time.September,
	"Oct": time.October,
	"Nov": time.November,
	"Dec": time.December,
}

// Date returns the calendar date at UTC midnight
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// TruncateDay drops the time of day, keeping the calendar date in d's location
func TruncateDay(d time.Time) time.Time {
	y, m, day := d.Date()
	return Date(y, m, day)
}

// ParseDayMonthYear parses DD-MMM-YY with the month as Jan..Dec. Two-digit years always
// map to 2000-2099.
func ParseDayMonthYear(s string) (time.Time, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 || !isTwoDigits(parts[0]) || len(parts[1]) != 3 || !isTwoDigits(parts[2]) {
		return time.Time{}, goerr.New("date does not match DD-MMM-YY",
			goerr.T(ErrTagParse),
			goerr.V("value", s))
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "invalid day of month",
			goerr.T(ErrTagParse),
			goerr.V("value", s))
	}

	month, ok := monthAbbrev[parts[1]]
	if !ok {
		return time.Time{}, goerr.New("unrecognized month abbreviation",
			goerr.T(ErrTagParse),
			goerr.V("value", s),
			goerr.V("month", parts[1]))
	}

	yy, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "invalid two-digit year",
			goerr.T(ErrTagParse),
			goerr.V("value", s))
	}

	d := Date(2000+yy, month, day)
	// time.Date normalises 31-Feb into March; reject instead.
	if d.Day() != day || d.Month() != month {
		return time.Time{}, goerr.New("day out of range for month",
			goerr.T(ErrTagParse),
			goerr.V("value", s))
	}
	return d, nil
}

func isTwoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

// FormatDayMonthYear formats d as DD-MMM-YY
func FormatDayMonthYear(d time.Time) string {
	return d.Format(DayMonthYearLayout)
}

// DayOfWeek returns the Monday-first weekday of d
func DayOfWeek(d time.Time) types.Weekday {
	return types.WeekdayFromTime(d.Weekday())
}

// WeekStart returns the Monday on or before d. This is the weekly bucket key.
func WeekStart(d time.Time) time.Time {
	d = TruncateDay(d)
	return d.AddDate(0, 0, -DayOfWeek(d).Index())
}

// WeekEndingFromIndex returns start + 7*index days.
//
// The national statistics workbook has no date column; its rows are consecutive weeks,
// so the row index is the only source of the week ending date.
func WeekEndingFromIndex(start time.Time, index int) time.Time {
	return TruncateDay(start).AddDate(0, 0, 7*index)
}
