package ui

import (
	"fmt"
	"time"

	"github.com/amonks/myt/internal/age"
)

const dayLayout = "2006-01-02"

// FormatTimeAgo returns a compact age string like "2m ago".
func FormatTimeAgo(then time.Time, now time.Time) string {
	age := formatTimeAge(then, now)
	if age == "-" {
		return age
	}
	return age + " ago"
}

// FormatTimeAgeShort returns a compact age string like "2m".
func FormatTimeAgeShort(then time.Time, now time.Time) string {
	return formatTimeAge(then, now)
}

// FormatDurationShort formats a duration using short units (s/m/h/d).
func FormatDurationShort(duration time.Duration) string {
	if duration < 0 {
		duration = 0
	}

	duration = duration.Truncate(time.Second)
	seconds := int64(duration.Seconds())
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}

	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}

	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%dh", hours)
	}

	days := hours / 24
	return fmt.Sprintf("%dd", days)
}

// FormatDay renders a calendar day, or "-" when unset.
func FormatDay(day *time.Time) string {
	if day == nil {
		return "-"
	}
	return day.Format(dayLayout)
}

// FormatDue renders a due date with a relative hint like "2021-01-08 (+2d)".
func FormatDue(due *time.Time, today time.Time) string {
	if due == nil {
		return "-"
	}
	days := int(due.Sub(today).Hours() / 24)
	switch {
	case days == 0:
		return due.Format(dayLayout) + " (today)"
	case days > 0:
		return fmt.Sprintf("%s (+%dd)", due.Format(dayLayout), days)
	default:
		return fmt.Sprintf("%s (%dd)", due.Format(dayLayout), days)
	}
}

func formatTimeAge(then time.Time, now time.Time) string {
	duration, ok := age.AgeData(then, now)
	if !ok {
		return "-"
	}
	return FormatDurationShort(duration)
}
