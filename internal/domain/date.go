package domain

import (
	"fmt"
	"time"
)

// Date is a calendar date without a time component. Streak arithmetic is
// calendar-day based, so dates are compared and stored in this form
// (YYYY-MM-DD) rather than as timestamps.
type Date struct {
	year  int
	month time.Month
	day   int
}

// DateOf returns the calendar date of t in UTC.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{year: y, month: m, day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day)
}

// Time returns midnight UTC of the date, for storage in DATE columns.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the date is the zero value (used as "never active").
func (d Date) IsZero() bool {
	return d.year == 0 && d.month == 0 && d.day == 0
}

// AddDays returns the date n days after d (n may be negative).
// Normalization is delegated to the time package.
func (d Date) AddDays(n int) Date {
	t := time.Date(d.year, d.month, d.day+n, 0, 0, 0, 0, time.UTC)
	return DateOf(t)
}

// Equal reports whether two dates are the same calendar day.
func (d Date) Equal(other Date) bool {
	return d == other
}
