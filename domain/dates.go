package domain

import "time"

// Business dates are civil dates stored as midnight UTC so that arithmetic
// never crosses a DST boundary.

// NewDate builds a business date.
func NewDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// BusinessDate returns the civil date of ts as observed in loc.
func BusinessDate(ts time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := ts.In(loc)
	return NewDate(local.Year(), local.Month(), local.Day())
}

// TruncateDate drops the clock part of an already-civil date.
func TruncateDate(d time.Time) time.Time {
	return NewDate(d.Year(), d.Month(), d.Day())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return NewDate(year, month+1, 0).Day()
}

// ParseDate parses YYYY-MM-DD into a business date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return TruncateDate(t), nil
}
