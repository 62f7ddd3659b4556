package utils

import (
	"fmt"
	"time"
)

const MonthLayout = "2006-01"

// ParseMonth parses a YYYY-MM payroll month into the first instant of that month (UTC).
func ParseMonth(month string) (time.Time, error) {
	if len(month) != len(MonthLayout) {
		return time.Time{}, fmt.Errorf("month %q must be in YYYY-MM format", month)
	}
	t, err := time.Parse(MonthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("month %q must be in YYYY-MM format", month)
	}
	return t, nil
}

// DaysInMonth returns the calendar length of a YYYY-MM month.
func DaysInMonth(month string) (int, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return 0, err
	}
	return t.AddDate(0, 1, -1).Day(), nil
}

// AddMonthsClamped moves t by n months, clamping the day to the target month's length
// so that Jan 31 + 1 month is Feb 28/29 instead of rolling into March.
func AddMonthsClamped(t time.Time, n int) time.Time {
	firstOfTarget := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location()).AddDate(0, n, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
