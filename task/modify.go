package task

import (
	"context"
	"strings"
	"time"

	"github.com/amonks/myt/internal/dates"
	internalstrings "github.com/amonks/myt/internal/strings"
)

// Change is an optional field update. An unset Change keeps the current
// value, ClearValue clears it, anything else sets it.
type Change struct {
	Set   bool
	Value string
}

// SetTo returns a Change that sets a field to value.
func SetTo(value string) Change {
	return Change{Set: true, Value: value}
}

// Clears reports whether the change clears the field.
func (c Change) Clears() bool {
	return c.Set && strings.EqualFold(strings.TrimSpace(c.Value), ClearValue)
}

// ModifyOptions configures Modify. Values use the same grammar as AddOptions;
// Tags is a delta such as "-old,+new".
type ModifyOptions struct {
	Description Change
	Priority    Change
	Due         Change
	Hide        Change
	Groups      Change
	Tags        Change
	Recur       Change
	RecurEnd    Change

	// AllInstances applies the change to the whole recurring set of each
	// derived target instead of the single occurrence.
	AllInstances bool
}

// touchesSchedule reports whether the change affects occurrence dates.
func (o ModifyOptions) touchesSchedule() bool {
	return o.Due.Set || o.Hide.Set || o.Recur.Set || o.RecurEnd.Set
}

// touchesRule reports whether the change edits the recurrence rule.
func (o ModifyOptions) touchesRule() bool {
	return o.Recur.Set || o.RecurEnd.Set
}

// apply merges the changes into t.
func (o ModifyOptions) apply(t *Task, today time.Time) error {
	if o.Description.Set {
		if o.Description.Clears() {
			t.Description = ""
		} else {
			t.Description = internalstrings.NormalizeWhitespace(o.Description.Value)
		}
	}
	if o.Priority.Set {
		if o.Priority.Clears() {
			t.Priority = PriorityNormal
		} else {
			priority, err := ParsePriority(o.Priority.Value)
			if err != nil {
				return err
			}
			t.Priority = priority
		}
	}
	if o.Groups.Set {
		if o.Groups.Clears() {
			t.Groups = ""
		} else {
			t.Groups = strings.TrimSpace(o.Groups.Value)
		}
	}
	if o.Tags.Set {
		if o.Tags.Clears() {
			t.Tags = nil
		} else {
			t.Tags = applyTagDelta(t.Tags, o.Tags.Value)
		}
	}

	// Due before hide so "-N" hides count back from the new due date.
	if o.Due.Set {
		offset, hadOffset := t.hideOffset()
		if o.Due.Clears() {
			t.Due = nil
		} else {
			due, err := parseFieldDate("due", o.Due.Value, today)
			if err != nil {
				return err
			}
			t.Due = due
			if hadOffset && !o.Hide.Set {
				t.Hide = dates.Ptr(due.AddDate(0, 0, -offset))
			}
		}
	}
	if o.Hide.Set {
		if o.Hide.Clears() {
			t.Hide = nil
		} else {
			hide, err := parseHide(o.Hide.Value, t.Due, today)
			if err != nil {
				return err
			}
			t.Hide = hide
		}
	}

	if o.Recur.Set {
		if o.Recur.Clears() {
			t.Recur = nil
			t.RecurEnd = nil
		} else {
			rule, err := parseRecur(o.Recur.Value)
			if err != nil {
				return err
			}
			t.Recur = rule
		}
	}
	if o.RecurEnd.Set {
		if o.RecurEnd.Clears() {
			t.RecurEnd = nil
		} else {
			end, err := parseFieldDate("end", o.RecurEnd.Value, today)
			if err != nil {
				return err
			}
			t.RecurEnd = end
		}
	}
	return nil
}

// withoutRecurrence returns the changes minus the recurrence fields.
func (o ModifyOptions) withoutRecurrence() ModifyOptions {
	o.Recur = Change{}
	o.RecurEnd = Change{}
	return o
}

// Modify merges field changes into every resolved pending or completed task.
//
// A recurrence rule given to a plain pending task turns it into a recurring
// set. Derived occurrences are edited one at a time unless AllInstances is
// set, in which case each recurring set is edited once: descriptive changes
// are copied to the template and its pending occurrences, while schedule
// changes retire the old set and regenerate it.
func (s *Store) Modify(ctx context.Context, f Filter, opts ModifyOptions) (Result, error) {
	return s.inTx(ctx, "modify", func(w *writer) error {
		targets, err := w.resolve(ctx, f)
		if err != nil {
			return err
		}

		var sets []string
		grouped := make(map[string][]Task)
		for _, t := range targets {
			switch {
			case t.Type == TypeBase || t.Area == AreaBin:
				continue
			case t.Type == TypeDerived && opts.AllInstances:
				if _, ok := grouped[t.BaseUUID]; !ok {
					sets = append(sets, t.BaseUUID)
				}
				grouped[t.BaseUUID] = append(grouped[t.BaseUUID], t)
			case t.Type == TypeDerived && opts.touchesRule():
				return invalid(ErrRecurrenceScope)
			default:
				if err := w.modifyOne(ctx, t, opts); err != nil {
					return err
				}
			}
		}

		for _, baseUUID := range sets {
			if err := w.modifySet(ctx, baseUUID, grouped[baseUUID], opts); err != nil {
				return err
			}
		}
		return nil
	})
}

// modifyOne writes a single changed version of t.
func (w *writer) modifyOne(ctx context.Context, t Task, opts ModifyOptions) error {
	next := t.clone()
	if err := opts.apply(&next, w.today); err != nil {
		return err
	}

	if next.Type == TypeNormal && next.Recur != nil {
		if next.Area != AreaPending {
			return invalidf(ErrInvalidRecurrence, "only pending tasks can start recurring")
		}
		next.Type = TypeBase
		base, err := w.write(ctx, next)
		if err != nil {
			return err
		}
		return w.materialize(ctx, base)
	}

	_, err := w.write(ctx, next)
	return err
}

// modifySet edits a whole recurring set. targets are the resolved
// occurrences that selected it.
func (w *writer) modifySet(ctx context.Context, baseUUID string, targets []Task, opts ModifyOptions) error {
	base, err := readCurrent(ctx, w.tx, baseUUID)
	if err != nil && !IsNotFound(err) {
		return err
	}
	if base == nil || base.Type != TypeBase || base.Area != AreaPending {
		// The set no longer recurs; edit the occurrences on their own.
		if opts.touchesRule() {
			return invalidf(ErrRecurrenceScope, "recurring set %s has ended", baseUUID)
		}
		for _, t := range targets {
			if err := w.modifyOne(ctx, t, opts); err != nil {
				return err
			}
		}
		return nil
	}

	pending, err := w.instances(ctx, baseUUID, AreaPending)
	if err != nil {
		return err
	}

	switch {
	case opts.Recur.Clears():
		return w.stopRecurrence(ctx, *base, pending, opts.withoutRecurrence())
	case opts.touchesSchedule():
		return w.regenerate(ctx, *base, pending, opts)
	}

	next := base.clone()
	if err := opts.apply(&next, w.today); err != nil {
		return err
	}
	if _, err := w.write(ctx, next); err != nil {
		return err
	}
	for _, instance := range pending {
		updated := instance.clone()
		if err := opts.apply(&updated, w.today); err != nil {
			return err
		}
		if _, err := w.write(ctx, updated); err != nil {
			return err
		}
	}
	return nil
}

// stopRecurrence bins the template and turns every occurrence into a plain task.
func (w *writer) stopRecurrence(ctx context.Context, base Task, pending []Task, opts ModifyOptions) error {
	completed, err := w.instances(ctx, base.UUID, AreaCompleted)
	if err != nil {
		return err
	}
	for _, instance := range pending {
		next := instance.clone()
		next.unlink()
		if err := opts.apply(&next, w.today); err != nil {
			return err
		}
		if _, err := w.write(ctx, next); err != nil {
			return err
		}
	}
	if err := w.unlinkAll(ctx, completed); err != nil {
		return err
	}

	retired := base.clone()
	retired.Area = AreaBin
	_, err = w.write(ctx, retired)
	return err
}

// regenerate retires a recurring set and recreates it under a new template
// with the changes applied.
func (w *writer) regenerate(ctx context.Context, base Task, pending []Task, opts ModifyOptions) error {
	merged := base.clone()
	if err := opts.apply(&merged, w.today); err != nil {
		return err
	}
	if err := ValidateTask(&merged); err != nil {
		return err
	}

	// Resume at the first open occurrence rather than replaying the past.
	if !opts.Due.Set {
		resume, err := w.resumeDate(ctx, base, pending)
		if err != nil {
			return err
		}
		if resume != nil && merged.Due != nil && resume.After(*merged.Due) {
			if err := shiftAnchor(&merged, *resume); err != nil {
				return err
			}
		}
	}

	for _, instance := range pending {
		binned := instance.clone()
		binned.Area = AreaBin
		if _, err := w.write(ctx, binned); err != nil {
			return err
		}
	}
	completed, err := w.instances(ctx, base.UUID, AreaCompleted)
	if err != nil {
		return err
	}
	if err := w.unlinkAll(ctx, completed); err != nil {
		return err
	}

	retired := base.clone()
	retired.Area = AreaBin
	if _, err := w.write(ctx, retired); err != nil {
		return err
	}

	merged.UUID = ""
	merged.Version = 0
	merged.ID = IDUnassigned
	merged.Now = false
	created, err := w.write(ctx, merged)
	if err != nil {
		return err
	}
	w.store.logger.Debug("regenerated recurring set", "old", base.UUID, "new", created.UUID)
	return w.materialize(ctx, created)
}

func (w *writer) unlinkAll(ctx context.Context, tasks []Task) error {
	for _, t := range tasks {
		next := t.clone()
		next.unlink()
		if _, err := w.write(ctx, next); err != nil {
			return err
		}
	}
	return nil
}

// resumeDate returns the earliest open occurrence of a set, or the day after
// its latest materialized occurrence.
func (w *writer) resumeDate(ctx context.Context, base Task, pending []Task) (*time.Time, error) {
	var earliest *time.Time
	for _, instance := range pending {
		if instance.Due != nil && (earliest == nil || instance.Due.Before(*earliest)) {
			earliest = copyDate(instance.Due)
		}
	}
	if earliest != nil {
		return earliest, nil
	}
	latest, ok, err := latestMarker(ctx, w.tx, base.UUID)
	if err != nil || !ok {
		return nil, err
	}
	return dates.Ptr(latest.AddDate(0, 0, 1)), nil
}

// shiftAnchor moves a template's due date to its first occurrence on or after
// from, keeping the hide offset.
func shiftAnchor(t *Task, from time.Time) error {
	next, err := t.Recur.Next(*t.Due, from, time.Time{}, 1)
	if err != nil {
		return invalid(err)
	}
	if len(next) == 0 {
		return nil
	}
	offset, hasHide := t.hideOffset()
	t.Due = dates.Ptr(next[0])
	if hasHide {
		t.Hide = dates.Ptr(next[0].AddDate(0, 0, -offset))
	}
	return nil
}
