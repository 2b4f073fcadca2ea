// Package dates parses and formats the calendar dates used for due, hide,
// and recurrence end fields.
//
// All dates are normalized to midnight UTC so they compare and store as plain
// calendar days.
package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout is the canonical storage and display format.
const Layout = "2006-01-02"

// ErrInvalidDate is returned when a date value cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

var layouts = []string{
	Layout,
	"2006/01/02",
	"20060102",
	"2006-1-2",
}

// Today returns the calendar day of now as midnight UTC.
func Today(now time.Time) time.Time {
	return Day(now)
}

// Day truncates t to its calendar day, expressed as midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsRelative reports whether value is a short relative form like "+3" or "-1w".
func IsRelative(value string) bool {
	value = strings.TrimSpace(value)
	return strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-")
}

// Parse parses an absolute date, a keyword (today, tomorrow, yesterday), or a
// relative offset counted from base.
func Parse(value string, base time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	if IsRelative(value) {
		return Offset(value, base)
	}

	switch strings.ToLower(value) {
	case "today":
		return Day(base), nil
	case "tomorrow":
		return Day(base).AddDate(0, 0, 1), nil
	case "yesterday":
		return Day(base).AddDate(0, 0, -1), nil
	}

	for _, layout := range layouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return Day(parsed), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// Offset applies a signed offset like "+3", "-2w", or "+1m" to base.
// A bare sign means zero. Units are d (default), w, m, and y.
func Offset(value string, base time.Time) (time.Time, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty offset", ErrInvalidDate)
	}

	sign := 1
	switch value[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return time.Time{}, fmt.Errorf("%w: offset %q must start with + or -", ErrInvalidDate, value)
	}
	body := value[1:]

	unit := byte('d')
	if body != "" {
		last := body[len(body)-1]
		if last < '0' || last > '9' {
			unit = last
			body = body[:len(body)-1]
		}
	}

	amount := 0
	if body != "" {
		n, err := strconv.Atoi(body)
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("%w: offset %q", ErrInvalidDate, value)
		}
		amount = n
	}
	amount *= sign

	day := Day(base)
	switch unit {
	case 'd':
		return day.AddDate(0, 0, amount), nil
	case 'w':
		return day.AddDate(0, 0, 7*amount), nil
	case 'm':
		return AddMonths(day, amount), nil
	case 'y':
		return AddMonths(day, 12*amount), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown offset unit %q", ErrInvalidDate, string(unit))
	}
}

// AddMonths adds n calendar months to t, clamping the day to the last day of
// the resulting month.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the whole number of days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// Format renders a date pointer, or an empty string for nil.
func Format(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(Layout)
}

// Ptr returns a pointer to a copy of t.
func Ptr(t time.Time) *time.Time {
	return &t
}
