package task

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/amonks/myt/internal/dates"
	internalstrings "github.com/amonks/myt/internal/strings"
	"github.com/amonks/myt/recur"
)

// Result reports the versions written by one operation. An empty result
// means no task was applicable; it is not an error.
type Result struct {
	// EventID is shared by every version written. Empty when nothing was written.
	EventID string

	// Tasks are the written versions, in write order.
	Tasks []Task
}

// Empty reports whether nothing was written.
func (r Result) Empty() bool {
	return len(r.Tasks) == 0
}

// Visible returns the written versions excluding recurrence templates.
func (r Result) Visible() []Task {
	var out []Task
	for _, t := range r.Tasks {
		if t.Type != TypeBase {
			out = append(out, t)
		}
	}
	return out
}

// AddOptions configures a new task. Values use the command-line grammar:
// dates may be absolute or relative ("+3", "-1w"), tags are comma separated.
type AddOptions struct {
	Description string
	Priority    string
	Due         string
	Hide        string
	Groups      string
	Tags        string
	Recur       string
	RecurEnd    string
}

// Add creates a task. With a recurrence rule it creates the recurrence
// template and materializes the first occurrences in the same transaction.
func (s *Store) Add(ctx context.Context, opts AddOptions) (Result, error) {
	today := s.Today()

	description := internalstrings.NormalizeWhitespace(opts.Description)
	if description == "" {
		return Result{}, invalid(ErrEmptyDescription)
	}

	priority, err := ParsePriority(opts.Priority)
	if err != nil {
		return Result{}, err
	}

	t := Task{
		Description: description,
		Priority:    priority,
		Groups:      strings.TrimSpace(opts.Groups),
		Tags:        applyTagDelta(nil, opts.Tags),
	}
	if opts.Due != "" {
		if t.Due, err = parseFieldDate("due", opts.Due, today); err != nil {
			return Result{}, err
		}
	}
	if opts.Hide != "" {
		if t.Hide, err = parseHide(opts.Hide, t.Due, today); err != nil {
			return Result{}, err
		}
	}
	if opts.Recur != "" {
		if t.Recur, err = parseRecur(opts.Recur); err != nil {
			return Result{}, err
		}
		t.Type = TypeBase
	}
	if opts.RecurEnd != "" {
		if t.RecurEnd, err = parseFieldDate("end", opts.RecurEnd, today); err != nil {
			return Result{}, err
		}
	}
	if t.Type == "" {
		t.Type = TypeNormal
	}
	t.Status, t.Area = StatusToDo, AreaPending
	if err := ValidateTask(&t); err != nil {
		return Result{}, err
	}

	return s.inTx(ctx, "add", func(w *writer) error {
		written, err := w.write(ctx, t)
		if err != nil {
			return err
		}
		return w.materialize(ctx, written)
	})
}

// Start marks pending tasks as started.
func (s *Store) Start(ctx context.Context, f Filter) (Result, error) {
	return s.transition(ctx, "start", f,
		func(t Task) bool { return t.Area == AreaPending && t.Status != StatusStarted },
		func(t *Task) { t.Status = StatusStarted },
	)
}

// Stop returns started tasks to TO_DO.
func (s *Store) Stop(ctx context.Context, f Filter) (Result, error) {
	return s.transition(ctx, "stop", f,
		func(t Task) bool { return t.Area == AreaPending && t.Status == StatusStarted },
		func(t *Task) { t.Status = StatusToDo },
	)
}

// Complete moves pending tasks to the completed area.
func (s *Store) Complete(ctx context.Context, f Filter) (Result, error) {
	return s.transition(ctx, "done", f,
		func(t Task) bool { return t.Area == AreaPending },
		func(t *Task) {
			t.Status = StatusDone
			t.Area = AreaCompleted
			t.ID = IDTombstone
			t.Now = false
		},
	)
}

// Revert moves completed tasks back to pending with a fresh sequence number.
func (s *Store) Revert(ctx context.Context, f Filter) (Result, error) {
	return s.transition(ctx, "revert", f,
		func(t Task) bool { return t.Area == AreaCompleted },
		func(t *Task) {
			t.Status = StatusToDo
			t.Area = AreaPending
			t.ID = IDUnassigned
		},
	)
}

// DeleteOptions configures Delete.
type DeleteOptions struct {
	// AllInstances also bins the template and every pending occurrence of
	// a recurring target.
	AllInstances bool
}

// Delete moves pending tasks to the bin.
func (s *Store) Delete(ctx context.Context, f Filter, opts DeleteOptions) (Result, error) {
	return s.inTx(ctx, "delete", func(w *writer) error {
		targets, err := w.resolve(ctx, f)
		if err != nil {
			return err
		}

		binned := make(map[string]bool)
		unlinked := make(map[string]bool)
		bin := func(t Task) error {
			if binned[t.UUID] || t.Area != AreaPending {
				return nil
			}
			binned[t.UUID] = true
			next := t.clone()
			next.Area = AreaBin
			next.ID = IDTombstone
			next.Now = false
			_, err := w.write(ctx, next)
			return err
		}

		for _, t := range targets {
			if t.Type == TypeBase {
				continue
			}
			if err := bin(t); err != nil {
				return err
			}
			if !opts.AllInstances || t.Type != TypeDerived {
				continue
			}

			base, err := readCurrent(ctx, w.tx, t.BaseUUID)
			if err != nil && !IsNotFound(err) {
				return err
			}
			if base != nil {
				if err := bin(*base); err != nil {
					return err
				}
			}
			instances, err := w.instances(ctx, t.BaseUUID, AreaPending)
			if err != nil {
				return err
			}
			for _, instance := range instances {
				if err := bin(instance); err != nil {
					return err
				}
			}

			// Completed occurrences outlive the set as plain tasks.
			if unlinked[t.BaseUUID] {
				continue
			}
			unlinked[t.BaseUUID] = true
			completed, err := w.instances(ctx, t.BaseUUID, AreaCompleted)
			if err != nil {
				return err
			}
			if err := w.unlinkAll(ctx, completed); err != nil {
				return err
			}
		}
		return nil
	})
}

// ToggleNow flips the now flag of exactly one pending task. Setting the flag
// clears it on every other task in the same event.
func (s *Store) ToggleNow(ctx context.Context, f Filter) (Result, error) {
	return s.inTx(ctx, "now", func(w *writer) error {
		targets, err := w.resolve(ctx, f)
		if err != nil {
			return err
		}
		targets = slices.DeleteFunc(targets, func(t Task) bool {
			return t.Area != AreaPending || t.Type == TypeBase
		})
		switch {
		case len(targets) == 0:
			return nil
		case len(targets) > 1:
			return invalidf(ErrNowNeedsSingleTask, "filter matched %d tasks", len(targets))
		}

		target := targets[0].clone()
		target.Now = !target.Now
		if _, err := w.write(ctx, target); err != nil {
			return err
		}
		if !target.Now {
			return nil
		}

		holders, err := queryTasks(ctx, w.tx, `SELECT `+taskColumns+` FROM current_tasks
			WHERE area = ? AND now_flag = 1 AND uuid != ?`, AreaPending, target.UUID)
		if err != nil {
			return err
		}
		for _, holder := range holders {
			next := holder.clone()
			next.Now = false
			if _, err := w.write(ctx, next); err != nil {
				return err
			}
		}
		return nil
	})
}

// EmptyBin permanently removes every task whose current version is in the
// bin, with all of its versions, tags, and occurrence markers. It returns the
// number of tasks removed.
func (s *Store) EmptyBin(ctx context.Context) (int, error) {
	var purged int
	_, err := s.inTx(ctx, "empty", func(w *writer) error {
		rows, err := w.tx.QueryContext(ctx, `SELECT uuid FROM current_tasks WHERE area = ?`, AreaBin)
		if err != nil {
			return storageErr("list bin", err)
		}
		var uuids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return storageErr("scan bin", err)
			}
			uuids = append(uuids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return storageErr("list bin", err)
		}

		for _, id := range uuids {
			orphans, err := queryTasks(ctx, w.tx, `SELECT `+taskColumns+` FROM current_tasks
				WHERE base_uuid = ? AND task_type = ? AND area != ?`, id, TypeDerived, AreaBin)
			if err != nil {
				return err
			}
			if err := w.unlinkAll(ctx, orphans); err != nil {
				return err
			}
			for _, stmt := range []string{
				`DELETE FROM task_tags WHERE uuid = ?`,
				`DELETE FROM tasks WHERE uuid = ?`,
				`DELETE FROM recur_instances WHERE base_uuid = ?`,
			} {
				if _, err := w.tx.ExecContext(ctx, stmt, id); err != nil {
					return storageErr("purge "+id, err)
				}
			}
		}
		purged = len(uuids)
		w.store.logger.Debug("emptied bin", "tasks", purged)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return purged, nil
}

// Counts summarizes the pending area.
type Counts struct {
	Pending int
	Hidden  int
}

// Counts returns how many tasks are pending and how many of those are hidden.
func (s *Store) Counts(ctx context.Context) (Counts, error) {
	var counts Counts
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN hide IS NOT NULL AND hide > ? THEN 1 ELSE 0 END), 0)
		FROM current_tasks WHERE area = ? AND task_type != ?`,
		s.Today().Format(dates.Layout), AreaPending, TypeBase,
	).Scan(&counts.Pending, &counts.Hidden)
	if err != nil {
		return Counts{}, storageErr("count tasks", err)
	}
	return counts, nil
}

// transition writes apply(t) for every resolved target accepted by eligible.
func (s *Store) transition(ctx context.Context, action string, f Filter, eligible func(Task) bool, apply func(*Task)) (Result, error) {
	return s.inTx(ctx, action, func(w *writer) error {
		targets, err := w.resolve(ctx, f)
		if err != nil {
			return err
		}
		for _, t := range targets {
			if t.Type == TypeBase || !eligible(t) {
				continue
			}
			next := t.clone()
			apply(&next)
			if _, err := w.write(ctx, next); err != nil {
				return fmt.Errorf("%s task %s: %w", action, t.UUID, err)
			}
		}
		return nil
	})
}

// resolve loads the current versions matching f inside the transaction.
func (w *writer) resolve(ctx context.Context, f Filter) ([]Task, error) {
	refs, err := w.store.resolve(ctx, w.tx, f, w.today)
	if err != nil {
		return nil, err
	}
	return readVersions(ctx, w.tx, refs)
}

// instances returns the current occurrences of a recurring set in area.
func (w *writer) instances(ctx context.Context, baseUUID string, area Area) ([]Task, error) {
	return queryTasks(ctx, w.tx, `SELECT `+taskColumns+` FROM current_tasks
		WHERE base_uuid = ? AND task_type = ? AND area = ?
		ORDER BY due, created`, baseUUID, TypeDerived, area)
}

func parseFieldDate(field, value string, today time.Time) (*time.Time, error) {
	parsed, err := dates.Parse(value, today)
	if err != nil {
		return nil, invalid(fmt.Errorf("%w: %s: %w", ErrInvalidDate, field, err))
	}
	return &parsed, nil
}

// parseHide reads a hide date. "-N" counts back from due, "+N" forward from
// today, anything else is a plain date.
func parseHide(value string, due *time.Time, today time.Time) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "-") {
		if due == nil {
			return nil, invalid(ErrHideNeedsDue)
		}
		return parseFieldDate("hide", value, *due)
	}
	return parseFieldDate("hide", value, today)
}

func parseRecur(value string) (*recur.Rule, error) {
	rule, err := recur.Parse(value)
	if err != nil {
		return nil, invalid(fmt.Errorf("%w: %w", ErrInvalidRecurrence, err))
	}
	return &rule, nil
}

// applyTagDelta applies comma separated tag tokens to tags: "-t" removes t
// when present, "t" and "+t" add it when absent.
func applyTagDelta(tags []string, delta string) []string {
	out := slices.Clone(tags)
	for _, token := range strings.FieldsFunc(delta, func(r rune) bool { return r == ',' || r == ' ' }) {
		switch {
		case strings.HasPrefix(token, "-"):
			tag := strings.TrimPrefix(token, "-")
			out = slices.DeleteFunc(out, func(existing string) bool { return existing == tag })
		default:
			tag := strings.TrimPrefix(token, "+")
			if tag != "" && !slices.Contains(out, tag) {
				out = append(out, tag)
			}
		}
	}
	return normalizeTags(out)
}
