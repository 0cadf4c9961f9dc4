package core

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unit is the calendar bucket size used to compare payments.
type Unit int

const (
	UnitQuarter Unit = iota + 1
	UnitHalfYear
	UnitYear
)

// Period is one calendar bucket of a given year, e.g. the second quarter of 2023.
// Index is 1-4 for quarters, 1-2 for halves and always 1 for a year.
type Period struct {
	Unit  Unit `json:"unit"`
	Index int  `json:"index"`
	Year  int  `json:"year"`
}

// QuarterOf maps a month (1-12) to its quarter using truncating integer division.
func QuarterOf(month int) int {
	return (month-1)/3 + 1
}

// HalfOf maps a month (1-12) to its half of the year.
func HalfOf(month int) int {
	return (month-1)/6 + 1
}

// ParseUnit accepts quarter, half or year (case-insensitive). Empty means quarter.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "quarter", "q":
		return UnitQuarter, nil
	case "half", "halfyear", "half-year", "h":
		return UnitHalfYear, nil
	case "year", "y":
		return UnitYear, nil
	default:
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidPeriod, s)
	}
}

func (u Unit) String() string {
	switch u {
	case UnitQuarter:
		return "quarter"
	case UnitHalfYear:
		return "half"
	case UnitYear:
		return "year"
	default:
		return "unit(" + strconv.Itoa(int(u)) + ")"
	}
}

func (u Unit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

func (u *Unit) UnmarshalText(b []byte) error {
	parsed, err := ParseUnit(string(b))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Count is the number of buckets of this unit in a year.
func (u Unit) Count() int {
	switch u {
	case UnitQuarter:
		return 4
	case UnitHalfYear:
		return 2
	case UnitYear:
		return 1
	default:
		return 0
	}
}

// span is the number of months covered by one bucket.
func (u Unit) span() int {
	switch u {
	case UnitQuarter:
		return 3
	case UnitHalfYear:
		return 6
	default:
		return 12
	}
}

// NewPeriod validates the selector against the unit. The selector is ignored for years.
func NewPeriod(unit Unit, index, year int) (Period, error) {
	if unit.Count() == 0 {
		return Period{}, fmt.Errorf("%w: unknown unit %d", ErrInvalidPeriod, int(unit))
	}
	if year < 1 || year > 9999 {
		return Period{}, fmt.Errorf("%w: year %d out of range", ErrInvalidPeriod, year)
	}
	if unit == UnitYear {
		index = 1
	}
	if index < 1 || index > unit.Count() {
		return Period{}, fmt.Errorf("%w: %s %d out of range 1-%d", ErrInvalidPeriod, unit, index, unit.Count())
	}
	return Period{Unit: unit, Index: index, Year: year}, nil
}

// ResolvePeriod is NewPeriod with defaults taken from now: year 0 means the
// current year and index 0 means the bucket holding the current month.
func ResolvePeriod(unit Unit, index, year int, now time.Time) (Period, error) {
	if year == 0 {
		year = now.Year()
	}
	if index == 0 && unit.Count() > 0 {
		index = (int(now.Month())-1)/unit.span() + 1
	}
	return NewPeriod(unit, index, year)
}

// Periods lists every bucket of unit in year, in calendar order.
func Periods(unit Unit, year int) []Period {
	out := make([]Period, 0, unit.Count())
	for i := 1; i <= unit.Count(); i++ {
		out = append(out, Period{Unit: unit, Index: i, Year: year})
	}
	return out
}

// Months returns the first and last month (inclusive) of the period.
func (p Period) Months() (first, last int) {
	span := p.Unit.span()
	first = (p.Index-1)*span + 1
	return first, first + span - 1
}

// Contains reports whether d falls inside the period.
func (p Period) Contains(d Date) bool {
	if d.Year() != p.Year {
		return false
	}
	switch p.Unit {
	case UnitQuarter:
		return QuarterOf(d.Month()) == p.Index
	case UnitHalfYear:
		return HalfOf(d.Month()) == p.Index
	case UnitYear:
		return true
	default:
		return false
	}
}

// Predicate returns Contains as a standalone filter.
func (p Period) Predicate() func(Date) bool {
	return p.Contains
}

// Label renders the period as "Q1 2023", "H2 2023" or "2023".
func (p Period) Label() string {
	switch p.Unit {
	case UnitQuarter:
		return fmt.Sprintf("Q%d %d", p.Index, p.Year)
	case UnitHalfYear:
		return fmt.Sprintf("H%d %d", p.Index, p.Year)
	default:
		return strconv.Itoa(p.Year)
	}
}

func (p Period) String() string {
	return p.Label()
}
