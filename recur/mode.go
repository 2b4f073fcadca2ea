// Package recur computes occurrence dates for recurring tasks.
//
// A Rule pairs a Mode with an optional When list. Basic modes step from an
// anchor date by a fixed calendar interval. Extended modes pick matching
// weekdays, days of the month, or months of the year.
package recur

// Mode identifies how a recurring task repeats.
type Mode string

const (
	// Daily repeats every day.
	Daily Mode = "D"

	// Weekly repeats every 7 days.
	Weekly Mode = "W"

	// Fortnightly repeats every 14 days.
	Fortnightly Mode = "BW"

	// Monthly repeats on the anchor's day every month.
	Monthly Mode = "M"

	// Quarterly repeats every 3 months.
	Quarterly Mode = "Q"

	// Semiannual repeats every 6 months.
	Semiannual Mode = "SA"

	// Annual repeats every 12 months.
	Annual Mode = "Y"

	// Weekdays repeats on the listed days of the week (1=Monday..7=Sunday).
	Weekdays Mode = "WD"

	// MonthDays repeats on the listed days of the month (1..31).
	MonthDays Mode = "MD"

	// Months repeats on the anchor's day in the listed months (1..12).
	Months Mode = "MY"
)

// ValidModes returns all valid recurrence modes.
func ValidModes() []Mode {
	return []Mode{Daily, Weekly, Fortnightly, Monthly, Quarterly, Semiannual, Annual, Weekdays, MonthDays, Months}
}

// IsValid returns true if the mode is a known valid value.
func (m Mode) IsValid() bool {
	for _, valid := range ValidModes() {
		if m == valid {
			return true
		}
	}
	return false
}

// IsExtended returns true for modes that need a When list.
func (m Mode) IsExtended() bool {
	switch m {
	case Weekdays, MonthDays, Months:
		return true
	default:
		return false
	}
}

// Name returns a human-readable name for the mode.
func (m Mode) Name() string {
	switch m {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Fortnightly:
		return "fortnightly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Semiannual:
		return "semiannual"
	case Annual:
		return "annual"
	case Weekdays:
		return "weekdays"
	case MonthDays:
		return "monthdays"
	case Months:
		return "months"
	default:
		return "unknown"
	}
}

var modeAliases = map[string]Mode{
	"DAILY":       Daily,
	"WEEKLY":      Weekly,
	"FORTNIGHTLY": Fortnightly,
	"BIWEEKLY":    Fortnightly,
	"MONTHLY":     Monthly,
	"QUARTERLY":   Quarterly,
	"SEMIANNUAL":  Semiannual,
	"ANNUAL":      Annual,
	"YEARLY":      Annual,
	"WEEKDAY":     Weekdays,
	"WEEKDAYS":    Weekdays,
	"MONTHDAY":    MonthDays,
	"MONTHDAYS":   MonthDays,
	"MONTH":       Months,
	"MONTHS":      Months,
}

// whenRange returns the inclusive bounds of When values for extended modes.
func (m Mode) whenRange() (int, int) {
	switch m {
	case Weekdays:
		return 1, 7
	case MonthDays:
		return 1, 31
	case Months:
		return 1, 12
	default:
		return 0, 0
	}
}
