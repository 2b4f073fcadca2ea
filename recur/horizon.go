package recur

import (
	"fmt"
	"time"
)

// Horizons maps each mode to how many days ahead occurrences are
// materialized. An occurrence is materialized while (date - today) is less
// than the horizon.
type Horizons map[Mode]int

// DefaultHorizons returns the stock horizon for every mode.
func DefaultHorizons() Horizons {
	return Horizons{
		Daily:       2,
		Weekly:      8,
		Fortnightly: 15,
		Monthly:     32,
		Quarterly:   93,
		Semiannual:  185,
		Annual:      367,
		Weekdays:    8,
		MonthDays:   32,
		Months:      367,
	}
}

// Days returns the horizon for mode, falling back to the default.
func (h Horizons) Days(mode Mode) int {
	if days, ok := h[mode]; ok && days > 0 {
		return days
	}
	return DefaultHorizons()[mode]
}

// Until returns the last date inside the horizon for mode.
func (h Horizons) Until(mode Mode, today time.Time) time.Time {
	return today.AddDate(0, 0, h.Days(mode)-1)
}

// With returns a copy of h with overrides applied.
func (h Horizons) With(overrides map[string]int) (Horizons, error) {
	merged := make(Horizons, len(h)+len(overrides))
	for mode, days := range h {
		merged[mode] = days
	}
	for key, days := range overrides {
		mode, err := ParseMode(key)
		if err != nil {
			return nil, err
		}
		if days < 1 {
			return nil, fmt.Errorf("%w: horizon for %s must be at least 1 day, got %d", ErrInvalidRule, mode, days)
		}
		merged[mode] = days
	}
	return merged, nil
}
