// Package taskenv reads the environment variables that override myt defaults.
package taskenv

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/amonks/myt/internal/dates"
)

const (
	// DatabaseEnvVar overrides the database path from the config file.
	DatabaseEnvVar = "MYT_DB"

	// TodayEnvVar pins the current day, as YYYY-MM-DD.
	TodayEnvVar = "MYT_TODAY"
)

// DatabasePath returns the database path from the environment, or "".
func DatabasePath() string {
	return strings.TrimSpace(os.Getenv(DatabaseEnvVar))
}

// Clock returns the clock implied by the environment: a fixed time at noon
// UTC of the pinned day, or time.Now.
func Clock() (func() time.Time, error) {
	value := strings.TrimSpace(os.Getenv(TodayEnvVar))
	if value == "" {
		return time.Now, nil
	}

	day, err := time.Parse(dates.Layout, value)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", TodayEnvVar, err)
	}
	pinned := day.Add(12 * time.Hour)
	return func() time.Time { return pinned }, nil
}
