package recur

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/amonks/myt/internal/validation"
)

// ErrInvalidRule is returned when a recurrence rule cannot be parsed or is
// inconsistent.
var ErrInvalidRule = errors.New("invalid recurrence rule")

// Rule describes how a task repeats.
type Rule struct {
	Mode Mode  `json:"mode" yaml:"mode"`
	When []int `json:"when,omitempty" yaml:"when,omitempty"`
}

// Parse reads rules like "D", "weekly", "WD1,3,5", or "MD 1,15".
// Mode codes and names are case-insensitive.
func Parse(value string) (Rule, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Rule{}, fmt.Errorf("%w: empty rule", ErrInvalidRule)
	}

	split := strings.IndexFunc(value, func(r rune) bool { return !unicode.IsLetter(r) })
	head, tail := value, ""
	if split >= 0 {
		head, tail = value[:split], value[split:]
	}

	mode, err := ParseMode(head)
	if err != nil {
		return Rule{}, err
	}

	when, err := ParseWhen(tail)
	if err != nil {
		return Rule{}, err
	}

	rule := Rule{Mode: mode, When: when}
	if err := rule.Validate(); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// ParseMode reads a mode code or name.
func ParseMode(value string) (Mode, error) {
	upper := strings.ToUpper(strings.TrimSpace(value))
	if mode := Mode(upper); mode.IsValid() {
		return mode, nil
	}
	if mode, ok := modeAliases[upper]; ok {
		return mode, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q (valid: %s)", ErrInvalidRule, value, validation.FormatValidValues(ValidModes()))
}

// ParseWhen reads a comma or space separated list of integers.
func ParseWhen(value string) ([]int, error) {
	fields := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
	if len(fields) == 0 {
		return nil, nil
	}

	when := make([]int, 0, len(fields))
	seen := make(map[int]bool, len(fields))
	for _, field := range fields {
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrInvalidRule, field)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		when = append(when, n)
	}
	sort.Ints(when)
	return when, nil
}

// Validate checks that the When list matches the mode.
func (r Rule) Validate() error {
	if !r.Mode.IsValid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidRule, r.Mode)
	}
	if !r.Mode.IsExtended() {
		if len(r.When) > 0 {
			return fmt.Errorf("%w: mode %s takes no values", ErrInvalidRule, r.Mode)
		}
		return nil
	}

	if len(r.When) == 0 {
		return fmt.Errorf("%w: mode %s needs at least one value", ErrInvalidRule, r.Mode)
	}
	lo, hi := r.Mode.whenRange()
	for _, n := range r.When {
		if n < lo || n > hi {
			return fmt.Errorf("%w: %s value %d outside %d..%d", ErrInvalidRule, r.Mode, n, lo, hi)
		}
	}
	return nil
}

// WhenString renders the When list as "1,3,5".
func (r Rule) WhenString() string {
	parts := make([]string, len(r.When))
	for i, n := range r.When {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// String renders the rule in the form accepted by Parse.
func (r Rule) String() string {
	return string(r.Mode) + r.WhenString()
}
