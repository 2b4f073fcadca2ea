// Package task implements a personal task tracker backed by an append-only,
// versioned SQLite store.
//
// Every change to a task writes a new version keyed by (UUID, version); the
// highest version of a UUID is its current state. The public API mirrors the
// CLI commands:
//   - Add, Modify, Start, Stop, Complete, Revert, Delete, ToggleNow for the lifecycle
//   - Resolve, ReadCurrent, ReadVersions, History for querying
//   - Materialize, MaterializeDaily, EmptyBin for housekeeping
package task

import (
	"fmt"
	"strings"

	"github.com/amonks/myt/internal/validation"
)

// Priority ranks how urgent a task is.
type Priority string

const (
	// PriorityHigh is the most urgent priority.
	PriorityHigh Priority = "H"

	// PriorityMedium sits between high and normal.
	PriorityMedium Priority = "M"

	// PriorityNormal is the default priority.
	PriorityNormal Priority = "N"

	// PriorityLow is the least urgent priority.
	PriorityLow Priority = "L"
)

// ValidPriorities returns all valid priority values.
func ValidPriorities() []Priority {
	return []Priority{PriorityHigh, PriorityMedium, PriorityNormal, PriorityLow}
}

// IsValid returns true if the priority is a known valid value.
func (p Priority) IsValid() bool {
	return validation.Contains(ValidPriorities(), p)
}

// Name returns a human-readable name for the priority.
func (p Priority) Name() string {
	switch p {
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityNormal:
		return "normal"
	case PriorityLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParsePriority normalizes user input such as "h", "High", or "MED".
func ParsePriority(value string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "h", "hi", "high":
		return PriorityHigh, nil
	case "m", "med", "medium":
		return PriorityMedium, nil
	case "n", "norm", "normal", "":
		return PriorityNormal, nil
	case "l", "lo", "low":
		return PriorityLow, nil
	}
	return "", invalid(validation.FormatInvalidValueError(ErrInvalidPriority, Priority(value), ValidPriorities()))
}

// Status is the work state of a task.
type Status string

const (
	// StatusToDo is a task not yet started.
	StatusToDo Status = "TO_DO"

	// StatusStarted is a task being worked on.
	StatusStarted Status = "STARTED"

	// StatusDone is a completed task.
	StatusDone Status = "DONE"
)

// ValidStatuses returns all valid status values.
func ValidStatuses() []Status {
	return []Status{StatusToDo, StatusStarted, StatusDone}
}

// IsValid returns true if the status is a known valid value.
func (s Status) IsValid() bool {
	return validation.Contains(ValidStatuses(), s)
}

// Area is the lifecycle partition a task version lives in.
type Area string

const (
	// AreaPending holds open tasks.
	AreaPending Area = "pending"

	// AreaCompleted holds finished tasks.
	AreaCompleted Area = "completed"

	// AreaBin holds deleted tasks until the bin is emptied.
	AreaBin Area = "bin"
)

// ValidAreas returns all valid area values.
func ValidAreas() []Area {
	return []Area{AreaPending, AreaCompleted, AreaBin}
}

// IsValid returns true if the area is a known valid value.
func (a Area) IsValid() bool {
	return validation.Contains(ValidAreas(), a)
}

// Type distinguishes ordinary tasks from recurrence bookkeeping.
type Type string

const (
	// TypeNormal is a task that does not recur.
	TypeNormal Type = "NORMAL"

	// TypeBase is the hidden template of a recurring task.
	TypeBase Type = "BASE"

	// TypeDerived is a dated occurrence materialized from a base.
	TypeDerived Type = "DERIVED"
)

// ValidTypes returns all valid task type values.
func ValidTypes() []Type {
	return []Type{TypeNormal, TypeBase, TypeDerived}
}

// IsValid returns true if the type is a known valid value.
func (t Type) IsValid() bool {
	return validation.Contains(ValidTypes(), t)
}

// Sequence number sentinels.
const (
	// IDUnassigned asks the store to derive a fresh sequence number on write.
	IDUnassigned = 0

	// IDTombstone marks a version that holds no user-visible sequence number.
	IDTombstone = -1
)

// ClearValue is the user input that clears a field.
const ClearValue = "clr"

// FormatID renders a sequence number for display.
func FormatID(id int) string {
	if id <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", id)
}
