package task

import (
	"slices"
	"time"

	"github.com/amonks/myt/internal/dates"
	"github.com/amonks/myt/recur"
)

// Task is one stored version of a task.
type Task struct {
	UUID        string
	Version     int
	ID          int
	Description string
	Priority    Priority
	Status      Status
	Due         *time.Time
	Hide        *time.Time
	Area        Area
	Groups      string
	Tags        []string
	CreatedAt   time.Time
	EventID     string
	Now         bool
	Type        Type
	BaseUUID    string
	Recur       *recur.Rule
	RecurEnd    *time.Time
}

// Ref identifies one stored version.
type Ref struct {
	UUID    string
	Version int
}

// Ref returns the version key of t.
func (t Task) Ref() Ref {
	return Ref{UUID: t.UUID, Version: t.Version}
}

// Hidden reports whether the task is suppressed from default views today.
func (t Task) Hidden(today time.Time) bool {
	return t.Hide != nil && t.Hide.After(today)
}

// Overdue reports whether the task was due before today and is not hidden.
func (t Task) Overdue(today time.Time) bool {
	return t.Due != nil && t.Due.Before(today) && !t.Hidden(today)
}

// DueToday reports whether the task is due today and is not hidden.
func (t Task) DueToday(today time.Time) bool {
	return t.Due != nil && t.Due.Equal(today) && !t.Hidden(today)
}

// IsRecurring reports whether the task belongs to a recurring set.
func (t Task) IsRecurring() bool {
	return t.Type == TypeBase || t.Type == TypeDerived
}

// clone returns a deep copy that can be changed without touching t.
func (t Task) clone() Task {
	c := t
	c.Due = copyDate(t.Due)
	c.Hide = copyDate(t.Hide)
	c.RecurEnd = copyDate(t.RecurEnd)
	c.Tags = slices.Clone(t.Tags)
	if t.Recur != nil {
		rule := recur.Rule{Mode: t.Recur.Mode, When: slices.Clone(t.Recur.When)}
		c.Recur = &rule
	}
	return c
}

// unlink detaches a derived task from its recurring set.
func (t *Task) unlink() {
	t.Type = TypeNormal
	t.BaseUUID = ""
	t.Recur = nil
	t.RecurEnd = nil
}

func copyDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	return dates.Ptr(*d)
}

// hideOffset returns how many days before due the task is hidden until.
func (t Task) hideOffset() (int, bool) {
	if t.Due == nil || t.Hide == nil {
		return 0, false
	}
	return dates.DaysBetween(*t.Hide, *t.Due), true
}

// normalizeTags sorts tags and drops duplicates and blanks.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
