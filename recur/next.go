package recur

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amonks/myt/internal/dates"
	rcron "github.com/robfig/cron/v3"
)

// Next returns up to count occurrence dates of the rule anchored at anchor
// that fall on or after from and no later than until. A zero until means no
// upper bound. Fewer than count dates are returned when until is reached.
func (r Rule) Next(anchor, from, until time.Time, count int) ([]time.Time, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, nil
	}

	anchor = dates.Day(anchor)
	from = dates.Day(from)
	if !until.IsZero() {
		until = dates.Day(until)
		if until.Before(from) {
			return nil, nil
		}
	}

	if r.Mode.IsExtended() {
		return r.nextScheduled(anchor, from, until, count)
	}
	return r.nextStepped(anchor, from, until, count), nil
}

func (r Rule) nextStepped(anchor, from, until time.Time, count int) []time.Time {
	step := r.stepper(anchor)

	k := 0
	if days := r.stepDays(); days > 0 && from.After(anchor) {
		// Jump close to from instead of walking every step.
		k = dates.DaysBetween(anchor, from) / days
	}

	var out []time.Time
	for len(out) < count {
		next := step(k)
		k++
		if next.Before(from) {
			continue
		}
		if !until.IsZero() && next.After(until) {
			break
		}
		out = append(out, next)
	}
	return out
}

func (r Rule) stepDays() int {
	switch r.Mode {
	case Daily:
		return 1
	case Weekly:
		return 7
	case Fortnightly:
		return 14
	default:
		return 0
	}
}

func (r Rule) stepMonths() int {
	switch r.Mode {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case Semiannual:
		return 6
	case Annual:
		return 12
	default:
		return 0
	}
}

// stepper returns the k-th occurrence counted from the anchor. Month steps
// are computed from the anchor each time so a 31st anchor returns to the
// 31st after a short month.
func (r Rule) stepper(anchor time.Time) func(k int) time.Time {
	if days := r.stepDays(); days > 0 {
		return func(k int) time.Time {
			return anchor.AddDate(0, 0, k*days)
		}
	}
	months := r.stepMonths()
	return func(k int) time.Time {
		return dates.AddMonths(anchor, k*months)
	}
}

// nextScheduled walks a cron schedule. Weekdays fire on matching days.
// MonthDays and Months fire once per matching month, and the days in that
// month are expanded with values past the month's end clamped to its last
// day.
func (r Rule) nextScheduled(anchor, from, until time.Time, count int) ([]time.Time, error) {
	schedule, err := rcron.ParseStandard(r.cronSpec())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}

	start := from
	if anchor.After(start) {
		start = anchor
	}

	cursor := start
	if r.Mode != Weekdays {
		cursor = time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	cursor = cursor.Add(-time.Second)

	var out []time.Time
	for len(out) < count {
		fired := schedule.Next(cursor)
		if fired.IsZero() {
			break
		}
		cursor = fired
		fired = dates.Day(fired)
		if !until.IsZero() && fired.After(until) {
			break
		}
		for _, next := range r.expand(fired, anchor) {
			if next.Before(start) {
				continue
			}
			if !until.IsZero() && next.After(until) {
				return out, nil
			}
			out = append(out, next)
			if len(out) == count {
				break
			}
		}
	}
	return out, nil
}

// expand returns the occurrences for one firing of the schedule.
func (r Rule) expand(fired, anchor time.Time) []time.Time {
	switch r.Mode {
	case MonthDays:
		last := dates.DaysIn(fired.Year(), fired.Month())
		out := make([]time.Time, 0, len(r.When))
		prev := 0
		for _, n := range r.When {
			d := min(n, last)
			if d == prev {
				continue
			}
			prev = d
			out = append(out, time.Date(fired.Year(), fired.Month(), d, 0, 0, 0, 0, time.UTC))
		}
		return out
	case Months:
		d := min(anchor.Day(), dates.DaysIn(fired.Year(), fired.Month()))
		return []time.Time{time.Date(fired.Year(), fired.Month(), d, 0, 0, 0, 0, time.UTC)}
	default:
		return []time.Time{fired}
	}
}

// cronSpec builds a midnight UTC schedule for an extended rule. Month-based
// modes fire on the first of each matching month.
func (r Rule) cronSpec() string {
	dom, month, dow := "*", "*", "*"
	switch r.Mode {
	case Weekdays:
		days := make([]string, len(r.When))
		for i, n := range r.When {
			// cron counts Sunday as 0.
			days[i] = strconv.Itoa(n % 7)
		}
		dow = strings.Join(days, ",")
	case MonthDays:
		dom = "1"
	case Months:
		dom = "1"
		month = r.WhenString()
	}
	return fmt.Sprintf("CRON_TZ=UTC 0 0 %s %s %s", dom, month, dow)
}
