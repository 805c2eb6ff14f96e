package fetch

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/deathweek/pkg/domain/model"
)

// ColumnKind is the type inferred for a table column from its content
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindInteger
	KindNumber
	KindDate
)

// String returns the string representation
func (k ColumnKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// Table is a rectangular table of named columns as fetched from a source. Values are kept
// as text; typed access goes through Int, Float and Date.
type Table struct {
	header []string
	rows   [][]string
	kinds  []ColumnKind
}

// NewTable builds a table, padding short rows with empty cells and inferring column kinds
func NewTable(header []string, rows [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, goerr.New("table has no header", goerr.T(model.ErrTagParse))
	}

	h := make([]string, len(header))
	for i, name := range header {
		h[i] = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
	}

	normalized := make([][]string, 0, len(rows))
	for i, row := range rows {
		if len(row) > len(h) {
			for _, extra := range row[len(h):] {
				if strings.TrimSpace(extra) != "" {
					return nil, goerr.New("row is wider than header",
						goerr.T(model.ErrTagParse),
						goerr.V("row", i),
						goerr.V("width", len(row)),
						goerr.V("header_width", len(h)))
				}
			}
			row = row[:len(h)]
		}
		cells := make([]string, len(h))
		for j, v := range row {
			cells[j] = strings.TrimSpace(v)
		}
		normalized = append(normalized, cells)
	}

	t := &Table{header: h, rows: normalized}
	t.kinds = make([]ColumnKind, len(h))
	for col := range h {
		t.kinds[col] = t.inferKind(col)
	}
	return t, nil
}

// Header returns the column names
func (t *Table) Header() []string {
	return t.header
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Width returns the number of columns
func (t *Table) Width() int {
	return len(t.header)
}

// Kind returns the inferred kind of column col
func (t *Table) Kind(col int) ColumnKind {
	return t.kinds[col]
}

// Index finds a column by name, ignoring case and surrounding space
func (t *Table) Index(name string) (int, bool) {
	want := strings.ToLower(strings.TrimSpace(name))
	for i, h := range t.header {
		if strings.ToLower(h) == want {
			return i, true
		}
	}
	return -1, false
}

// Value returns the raw cell text
func (t *Table) Value(row, col int) string {
	return t.rows[row][col]
}

// Int returns the cell as an integer
func (t *Table) Int(row, col int) (int64, error) {
	v, err := ParseInteger(t.rows[row][col])
	if err != nil {
		return 0, goerr.Wrap(err, "invalid integer cell",
			goerr.V("row", row),
			goerr.V("column", t.header[col]))
	}
	return v, nil
}

// Float returns the cell as a number
func (t *Table) Float(row, col int) (float64, error) {
	v, err := ParseNumber(t.rows[row][col])
	if err != nil {
		return 0, goerr.Wrap(err, "invalid numeric cell",
			goerr.V("row", row),
			goerr.V("column", t.header[col]))
	}
	return v, nil
}

// Date returns the cell as a DD-MMM-YY calendar date
func (t *Table) Date(row, col int) (time.Time, error) {
	v, err := model.ParseDayMonthYear(t.rows[row][col])
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "invalid date cell",
			goerr.V("row", row),
			goerr.V("column", t.header[col]))
	}
	return v, nil
}

func (t *Table) inferKind(col int) ColumnKind {
	seen := 0
	integer, number, date := true, true, true
	for _, row := range t.rows {
		v := row[col]
		if v == "" {
			continue
		}
		seen++
		if number {
			f, err := ParseNumber(v)
			if err != nil {
				number, integer = false, false
			} else if f != math.Trunc(f) {
				integer = false
			}
		}
		if date {
			if _, err := model.ParseDayMonthYear(v); err != nil {
				date = false
			}
		}
		if !number && !date {
			return KindString
		}
	}

	switch {
	case seen == 0:
		return KindString
	case integer:
		return KindInteger
	case number:
		return KindNumber
	case date:
		return KindDate
	default:
		return KindString
	}
}

// ParseInteger parses a whole number, accepting thousands separators and integral
// decimals such as "12.0" written by spreadsheet exports
func ParseInteger(s string) (int64, error) {
	f, err := ParseNumber(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, goerr.New("not a whole number",
			goerr.T(model.ErrTagParse),
			goerr.V("value", s))
	}
	return int64(f), nil
}

// ParseNumber parses a decimal number, accepting thousands separators
func ParseNumber(s string) (float64, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if clean == "" {
		return 0, goerr.New("empty numeric value", goerr.T(model.ErrTagParse))
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, goerr.New("not a number",
			goerr.T(model.ErrTagParse),
			goerr.V("value", s))
	}
	return f, nil
}
