// Package validation holds helpers for enum-style string validation.
package validation

import (
	"fmt"
	"strings"
)

// FormatValidValues joins string-like values for error messages.
func FormatValidValues[T ~string](values []T) string {
	formatted := make([]string, 0, len(values))
	for _, value := range values {
		formatted = append(formatted, string(value))
	}
	return strings.Join(formatted, ", ")
}

// FormatInvalidValueError wraps base with the rejected value and the valid set.
func FormatInvalidValueError[T ~string](base error, value T, valid []T) error {
	return fmt.Errorf("%w: %q (valid: %s)", base, string(value), FormatValidValues(valid))
}

// Contains reports whether value is one of valid.
func Contains[T ~string](valid []T, value T) bool {
	for _, candidate := range valid {
		if candidate == value {
			return true
		}
	}
	return false
}
