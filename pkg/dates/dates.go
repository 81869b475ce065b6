// Package dates holds calendar-date helpers. A date is a time.Time at
// midnight UTC, so adding days never shifts it by the viewer's offset.
package dates

import (
	"errors"
	"strings"
	"time"
)

// Layout is the storage and input format of calendar dates.
const Layout = "2006-01-02"

// ErrInvalidDate is returned for empty or malformed date strings.
var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// Parse parses a YYYY-MM-DD string into a date.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	d, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// Today returns the calendar date of now as seen in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return Of(now.In(loc))
}

// Of drops the clock part of t, keeping its year, month and day.
func Of(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays moves a date by n calendar days.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Of(b).Sub(Of(a)).Hours() / 24)
}

// Format renders a date in Layout.
func Format(d time.Time) string {
	return d.Format(Layout)
}
