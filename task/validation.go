package task

import (
	"errors"
	"fmt"
)

var (
	// ErrTaskNotFound is returned when a UUID has no stored versions.
	ErrTaskNotFound = errors.New("task not found")

	// ErrEmptyDescription is returned when a task is added without a description.
	ErrEmptyDescription = errors.New("description cannot be empty")

	// ErrInvalidPriority is returned when priority input cannot be normalized.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidDate is returned when a date field cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidFilter is returned for filter tokens that are not part of the grammar.
	ErrInvalidFilter = errors.New("invalid filter")

	// ErrConflictingLenses is returned when DONE and BIN are combined with each
	// other or with the pending lenses.
	ErrConflictingLenses = errors.New("DONE and BIN cannot be combined with each other or with OVERDUE, TODAY, HIDDEN, STARTED")

	// ErrInvalidRecurrence is returned for malformed recurrence rules.
	ErrInvalidRecurrence = errors.New("invalid recurrence")

	// ErrDueRequired is returned when a recurring task has no due date.
	ErrDueRequired = errors.New("recurring tasks need a due date")

	// ErrEndBeforeDue is returned when the recurrence end precedes the due date.
	ErrEndBeforeDue = errors.New("recurrence end is before due date")

	// ErrEndWithoutRecurrence is returned when an end date is set on a task that does not recur.
	ErrEndWithoutRecurrence = errors.New("recurrence end needs a recurrence rule")

	// ErrHideNeedsDue is returned when hide is given relative to a missing due date.
	ErrHideNeedsDue = errors.New("hide relative to due needs a due date")

	// ErrRecurrenceScope is returned when a recurrence rule change targets a
	// single occurrence instead of the whole set.
	ErrRecurrenceScope = errors.New("recurrence changes apply to all instances; use --all-instances")

	// ErrNowNeedsSingleTask is returned when toggle-now resolves to several tasks.
	ErrNowNeedsSingleTask = errors.New("now can only be toggled on a single task")

	// ErrAmbiguousUUIDPrefix is returned when a uuid: prefix matches several tasks.
	ErrAmbiguousUUIDPrefix = errors.New("ambiguous uuid prefix")
)

// ValidationError reports input that was rejected before anything was written.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// StorageError reports a failure of the backing store. The surrounding
// transaction has been rolled back.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

func invalid(err error) error {
	if err == nil || IsValidation(err) {
		return err
	}
	return &ValidationError{Err: err}
}

func invalidf(base error, format string, args ...any) error {
	return &ValidationError{Err: fmt.Errorf("%w: %s", base, fmt.Sprintf(format, args...))}
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StorageError
	if errors.As(err, &existing) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// ValidateTask checks the field invariants of a version about to be written.
func ValidateTask(t *Task) error {
	if !t.Priority.IsValid() {
		return invalid(fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority))
	}
	if !t.Status.IsValid() {
		return invalid(fmt.Errorf("invalid status %q", t.Status))
	}
	if !t.Area.IsValid() {
		return invalid(fmt.Errorf("invalid area %q", t.Area))
	}
	if !t.Type.IsValid() {
		return invalid(fmt.Errorf("invalid task type %q", t.Type))
	}
	if t.Type == TypeDerived && t.BaseUUID == "" {
		return invalid(errors.New("derived task needs a base"))
	}
	if t.Recur != nil {
		if err := t.Recur.Validate(); err != nil {
			return invalid(fmt.Errorf("%w: %w", ErrInvalidRecurrence, err))
		}
		if t.Due == nil {
			return invalid(ErrDueRequired)
		}
	}
	if t.RecurEnd != nil {
		if t.Recur == nil {
			return invalid(ErrEndWithoutRecurrence)
		}
		if t.Type != TypeDerived && t.Due != nil && t.RecurEnd.Before(*t.Due) {
			return invalidf(ErrEndBeforeDue, "end %s, due %s", t.RecurEnd.Format("2006-01-02"), t.Due.Format("2006-01-02"))
		}
	}
	return nil
}
