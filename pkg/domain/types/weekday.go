package types

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// Weekday is a day of the week in Monday-first order. The zero value is Monday so that
// the integer value doubles as the palette and legend index.
type Weekday int

const (
	Mon Weekday = iota
	Tue
	Wed
	Thu
	Fri
	Sat
	Sun
)

var weekdayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeekdayFromTime converts a standard library weekday (Sunday-first) to Weekday
func WeekdayFromTime(d time.Weekday) Weekday {
	return Weekday((int(d) + 6) % 7)
}

// String returns the abbreviated English name
func (w Weekday) String() string {
	if !w.IsValid() {
		return "Weekday(?)"
	}
	return weekdayNames[w]
}

// MarshalText encodes the weekday by its abbreviated name, e.g. "Thu"
func (w Weekday) MarshalText() ([]byte, error) {
	if !w.IsValid() {
		return nil, goerr.New("invalid weekday", goerr.V("value", int(w)))
	}
	return []byte(weekdayNames[w]), nil
}

// UnmarshalText decodes an abbreviated name written by MarshalText
func (w *Weekday) UnmarshalText(text []byte) error {
	for i, name := range weekdayNames {
		if name == string(text) {
			*w = Weekday(i)
			return nil
		}
	}
	return goerr.New("unknown weekday", goerr.V("value", string(text)))
}

// Index returns the zero-based Monday-first position
func (w Weekday) Index() int {
	return int(w)
}

// IsValid checks if the weekday is within Mon..Sun
func (w Weekday) IsValid() bool {
	return w >= Mon && w <= Sun
}

// AllWeekdays returns Mon..Sun in display order
func AllWeekdays() []Weekday {
	return []Weekday{Mon, Tue, Wed, Thu, Fri, Sat, Sun}
}
