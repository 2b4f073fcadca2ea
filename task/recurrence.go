package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/amonks/myt/internal/dates"
)

const (
	// lastRecurrenceRunKey is the app_state key holding the last day
	// occurrences were materialized.
	lastRecurrenceRunKey = "last_recurrence_run"

	// maxOccurrencesPerRun bounds one template's materialization.
	maxOccurrencesPerRun = 500
)

// Materialize creates the occurrences of every active recurring set that
// fall inside its mode's horizon. Occurrences already materialized are never
// created twice.
func (s *Store) Materialize(ctx context.Context) (Result, error) {
	return s.inTx(ctx, "recur", func(w *writer) error {
		return w.materializeAll(ctx)
	})
}

// MaterializeDaily runs Materialize at most once per calendar day. It reports
// whether the run happened.
func (s *Store) MaterializeDaily(ctx context.Context) (Result, bool, error) {
	ran := false
	result, err := s.inTx(ctx, "recur", func(w *writer) error {
		today := w.today.Format(dates.Layout)

		var last string
		err := w.tx.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, lastRecurrenceRunKey).Scan(&last)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return storageErr("read last recurrence run", err)
		}
		if last == today {
			return nil
		}

		if err := w.materializeAll(ctx); err != nil {
			return err
		}
		if _, err := w.tx.ExecContext(ctx, `INSERT OR REPLACE INTO app_state (key, value) VALUES (?, ?)`,
			lastRecurrenceRunKey, today); err != nil {
			return storageErr("record recurrence run", err)
		}
		ran = true
		return nil
	})
	if err != nil {
		return Result{}, false, err
	}
	return result, ran, nil
}

func (w *writer) materializeAll(ctx context.Context) error {
	bases, err := queryTasks(ctx, w.tx, `SELECT `+taskColumns+` FROM current_tasks
		WHERE area = ? AND task_type = ? ORDER BY created, uuid`, AreaPending, TypeBase)
	if err != nil {
		return err
	}
	for _, base := range bases {
		if err := w.materialize(ctx, base); err != nil {
			return fmt.Errorf("materialize %s: %w", base.UUID, err)
		}
	}
	return nil
}

// materialize writes the occurrences of base between its latest marker and
// the horizon. Tasks that are not active templates are ignored.
func (w *writer) materialize(ctx context.Context, base Task) error {
	if base.Type != TypeBase || base.Area != AreaPending || base.Recur == nil || base.Due == nil {
		return nil
	}
	if base.RecurEnd != nil && base.RecurEnd.Before(w.today) {
		w.store.logger.Debug("recurrence ended", "base", base.UUID, "end", dates.Format(base.RecurEnd))
		return nil
	}

	until := w.store.horizons.Until(base.Recur.Mode, w.today)
	if base.RecurEnd != nil && base.RecurEnd.Before(until) {
		until = *base.RecurEnd
	}
	from := *base.Due
	latest, ok, err := latestMarker(ctx, w.tx, base.UUID)
	if err != nil {
		return err
	}
	if ok {
		from = latest.AddDate(0, 0, 1)
	}

	occurrences, err := base.Recur.Next(*base.Due, from, until, maxOccurrencesPerRun)
	if err != nil {
		return invalid(fmt.Errorf("%w: %w", ErrInvalidRecurrence, err))
	}

	offset, hasHide := base.hideOffset()
	for _, due := range occurrences {
		instance := Task{
			Description: base.Description,
			Priority:    base.Priority,
			Status:      StatusToDo,
			Due:         dates.Ptr(due),
			Area:        AreaPending,
			Groups:      base.Groups,
			Tags:        slices.Clone(base.Tags),
			Type:        TypeDerived,
			BaseUUID:    base.UUID,
			Recur:       base.clone().Recur,
			RecurEnd:    copyDate(base.RecurEnd),
		}
		if hasHide {
			instance.Hide = dates.Ptr(due.AddDate(0, 0, -offset))
		}
		if _, err := w.write(ctx, instance); err != nil {
			return err
		}
		if _, err := w.tx.ExecContext(ctx, `INSERT OR IGNORE INTO recur_instances (base_uuid, base_version, due) VALUES (?, ?, ?)`,
			base.UUID, base.Version, due.Format(dates.Layout)); err != nil {
			return storageErr("record occurrence", err)
		}
	}

	w.store.logger.Debug("materialized",
		"base", base.UUID, "mode", base.Recur.Mode, "from", from.Format(dates.Layout),
		"until", until.Format(dates.Layout), "count", len(occurrences))
	return nil
}

// latestMarker returns the latest materialized occurrence date of a template.
func latestMarker(ctx context.Context, q queryer, baseUUID string) (time.Time, bool, error) {
	var latest sql.NullString
	if err := q.QueryRowContext(ctx, `SELECT MAX(due) FROM recur_instances WHERE base_uuid = ?`, baseUUID).Scan(&latest); err != nil {
		return time.Time{}, false, storageErr("read occurrence markers", err)
	}
	parsed, err := parseStoredDate(latest)
	if err != nil {
		return time.Time{}, false, storageErr("read occurrence markers", err)
	}
	if parsed == nil {
		return time.Time{}, false, nil
	}
	return *parsed, true, nil
}

// Occurrences returns the materialized occurrence dates of a template, oldest first.
func (s *Store) Occurrences(ctx context.Context, baseUUID string) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT due FROM recur_instances WHERE base_uuid = ? ORDER BY due`, baseUUID)
	if err != nil {
		return nil, storageErr("read occurrence markers", err)
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var due string
		if err := rows.Scan(&due); err != nil {
			return nil, storageErr("scan occurrence marker", err)
		}
		parsed, err := time.Parse(dates.Layout, due)
		if err != nil {
			return nil, storageErr("parse occurrence marker", err)
		}
		out = append(out, parsed)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read occurrence markers", err)
	}
	return out, nil
}
