package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/amonks/myt/internal/dates"
	"github.com/amonks/myt/recur"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const (
	timestampLayout = time.RFC3339Nano

	// eventIDLayout prefixes event IDs so they sort by creation time.
	eventIDLayout = "200601-0215-0405-"

	taskColumns = `uuid, version, id, description, priority, status, due, hide, area, groups_path,
		created, event_id, now_flag, task_type, base_uuid, recur_mode, recur_when, recur_end`
)

// Store provides access to the task database.
type Store struct {
	db       *sql.DB
	path     string
	now      func() time.Time
	logger   *slog.Logger
	horizons recur.Horizons
}

// OpenOptions configures how the store is opened.
type OpenOptions struct {
	// Now returns the current time. If nil, time.Now is used.
	Now func() time.Time

	// Logger receives diagnostics. If nil, logs are discarded.
	Logger *slog.Logger

	// Horizons overrides how far ahead recurring tasks are materialized.
	// If nil, recur.DefaultHorizons is used.
	Horizons recur.Horizons
}

// Open opens (creating if needed) the task database at path.
func Open(path string, opts OpenOptions) (*Store, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Horizons == nil {
		opts.Horizons = recur.DefaultHorizons()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite3: %w", err)
	}
	// One connection keeps every statement of an operation on the same
	// transaction and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &Store{
		db:       db,
		path:     path,
		now:      opts.Now,
		logger:   opts.Logger,
		horizons: opts.Horizons,
	}

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	store.logger.Debug("opened task store", "path", path)
	return store, nil
}

// Release closes the database handle.
func (s *Store) Release() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Today returns the store's current calendar day.
func (s *Store) Today() time.Time {
	return dates.Today(s.now())
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// event groups the versions written by one logical user action.
type event struct {
	id      string
	action  string
	created time.Time
}

func (s *Store) newEvent(action string) event {
	now := s.now()
	return event{
		id:      now.Format(eventIDLayout) + uuid.NewString(),
		action:  action,
		created: now.UTC(),
	}
}

// writer carries one transaction and its event through an operation.
type writer struct {
	store   *Store
	tx      *sql.Tx
	event   event
	today   time.Time
	written []Task
}

// inTx runs fn in a single transaction. Everything fn writes shares one
// event ID and timestamp. Nothing is committed if fn fails.
func (s *Store) inTx(ctx context.Context, action string, fn func(w *writer) error) (Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, storageErr("begin "+action, err)
	}
	defer func() { _ = tx.Rollback() }()

	w := &writer{
		store: s,
		tx:    tx,
		event: s.newEvent(action),
		today: s.Today(),
	}
	if err := fn(w); err != nil {
		return Result{}, err
	}
	if err := tx.Commit(); err != nil {
		return Result{}, storageErr("commit "+action, err)
	}

	result := Result{Tasks: w.written}
	if len(w.written) > 0 {
		result.EventID = w.event.id
	}
	s.logger.Debug("committed", "action", action, "event", result.EventID, "versions", len(w.written))
	return result, nil
}

// WriteVersion persists t as the next version of its UUID, assigning a UUID
// when t has none. Older versions of the UUID lose their sequence number.
func (s *Store) WriteVersion(ctx context.Context, t Task) (Ref, error) {
	result, err := s.inTx(ctx, "write", func(w *writer) error {
		_, err := w.write(ctx, t)
		return err
	})
	if err != nil {
		return Ref{}, err
	}
	return result.Tasks[0].Ref(), nil
}

// write stores t as a new version inside the writer's transaction.
func (w *writer) write(ctx context.Context, t Task) (Task, error) {
	t = t.clone()
	if t.Priority == "" {
		t.Priority = PriorityNormal
	}
	if t.Status == "" {
		t.Status = StatusToDo
	}
	if t.Area == "" {
		t.Area = AreaPending
	}
	if t.Type == "" {
		t.Type = TypeNormal
	}
	t.Tags = normalizeTags(t.Tags)
	if err := ValidateTask(&t); err != nil {
		return Task{}, err
	}

	if t.UUID == "" {
		t.UUID = uuid.NewString()
		t.Version = 1
	} else {
		var latest int
		err := w.tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM tasks WHERE uuid = ?`, t.UUID).Scan(&latest)
		if err != nil {
			return Task{}, storageErr("read latest version", err)
		}
		t.Version = latest + 1
	}

	holdsID := t.Area == AreaPending && t.Type != TypeBase
	switch {
	case !holdsID:
		t.ID = IDTombstone
		t.Now = false
	default:
		owned, err := ownsSequenceNumber(ctx, w.tx, t)
		if err != nil {
			return Task{}, err
		}
		if !owned {
			id, err := nextSequenceNumber(ctx, w.tx, t.UUID)
			if err != nil {
				return Task{}, err
			}
			t.ID = id
		}
	}
	t.CreatedAt = w.event.created
	t.EventID = w.event.id

	if err := insertVersion(ctx, w.tx, t); err != nil {
		return Task{}, err
	}
	if _, err := w.tx.ExecContext(ctx, `UPDATE tasks SET id = ? WHERE uuid = ? AND version < ? AND id != ?`,
		IDTombstone, t.UUID, t.Version, IDTombstone); err != nil {
		return Task{}, storageErr("tombstone older versions", err)
	}
	if _, err := w.tx.ExecContext(ctx, `INSERT OR IGNORE INTO events (event_id, action, created) VALUES (?, ?, ?)`,
		w.event.id, w.event.action, w.event.created.Format(timestampLayout)); err != nil {
		return Task{}, storageErr("record event", err)
	}

	w.store.logger.Debug("wrote version",
		"uuid", t.UUID, "version", t.Version, "id", t.ID, "area", t.Area, "type", t.Type, "event", t.EventID)
	w.written = append(w.written, t)
	return t, nil
}

// ownsSequenceNumber reports whether the current version of t's uuid holds
// t.ID and no other pending task holds it.
func ownsSequenceNumber(ctx context.Context, q queryer, t Task) (bool, error) {
	if t.ID <= 0 {
		return false, nil
	}
	var own, others int
	err := q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN uuid = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN uuid != ? THEN 1 ELSE 0 END), 0)
		FROM current_tasks
		WHERE id = ? AND area = ? AND task_type != ?`,
		t.UUID, t.UUID, t.ID, AreaPending, TypeBase).Scan(&own, &others)
	if err != nil {
		return false, storageErr("check sequence number", err)
	}
	return own > 0 && others == 0, nil
}

// nextSequenceNumber returns the smallest positive integer not held by a
// current pending task other than uuid.
func nextSequenceNumber(ctx context.Context, q queryer, uuid string) (int, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id FROM current_tasks
		WHERE area = ? AND task_type != ? AND id > 0 AND uuid != ?
		ORDER BY id`, AreaPending, TypeBase, uuid)
	if err != nil {
		return 0, storageErr("read sequence numbers", err)
	}
	defer rows.Close()

	next := 1
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return 0, storageErr("scan sequence number", err)
		}
		if id > next {
			break
		}
		if id == next {
			next++
		}
	}
	if err := rows.Err(); err != nil {
		return 0, storageErr("read sequence numbers", err)
	}
	return next, nil
}

func insertVersion(ctx context.Context, q queryer, t Task) error {
	var mode, when any
	if t.Recur != nil {
		mode = string(t.Recur.Mode)
		when = nullString(t.Recur.WhenString())
	}
	_, err := q.ExecContext(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UUID, t.Version, t.ID, nullString(t.Description), t.Priority, t.Status,
		nullDate(t.Due), nullDate(t.Hide), t.Area, nullString(t.Groups),
		t.CreatedAt.Format(timestampLayout), t.EventID, t.Now, t.Type, nullString(t.BaseUUID),
		mode, when, nullDate(t.RecurEnd),
	)
	if err != nil {
		return storageErr("insert version", err)
	}

	for _, tag := range t.Tags {
		if _, err := q.ExecContext(ctx, `INSERT INTO task_tags (uuid, version, tag) VALUES (?, ?, ?)`,
			t.UUID, t.Version, tag); err != nil {
			return storageErr("insert tag", err)
		}
	}
	return nil
}

// ReadCurrent returns the current version of the task with the given UUID.
func (s *Store) ReadCurrent(ctx context.Context, uuid string) (*Task, error) {
	return readCurrent(ctx, s.db, uuid)
}

func readCurrent(ctx context.Context, q queryer, uuid string) (*Task, error) {
	tasks, err := queryTasks(ctx, q, `SELECT `+taskColumns+` FROM current_tasks WHERE uuid = ?`, uuid)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, uuid)
	}
	return &tasks[0], nil
}

// ReadVersions returns the listed versions in the order given. Missing
// versions are skipped.
func (s *Store) ReadVersions(ctx context.Context, refs []Ref) ([]Task, error) {
	return readVersions(ctx, s.db, refs)
}

func readVersions(ctx context.Context, q queryer, refs []Ref) ([]Task, error) {
	tasks := make([]Task, 0, len(refs))
	for _, ref := range refs {
		found, err := queryTasks(ctx, q, `SELECT `+taskColumns+` FROM tasks WHERE uuid = ? AND version = ?`, ref.UUID, ref.Version)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, found...)
	}
	return tasks, nil
}

// History returns every stored version of a task, oldest first.
func (s *Store) History(ctx context.Context, uuid string) ([]Task, error) {
	tasks, err := queryTasks(ctx, s.db, `SELECT `+taskColumns+` FROM tasks WHERE uuid = ? ORDER BY version`, uuid)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, uuid)
	}
	return tasks, nil
}

// queryTasks runs a query selecting taskColumns and loads each row's tags.
func queryTasks(ctx context.Context, q queryer, query string, args ...any) ([]Task, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query tasks", err)
	}

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, storageErr("scan task", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, storageErr("query tasks", err)
	}
	rows.Close()

	for i := range tasks {
		tags, err := loadTags(ctx, q, tasks[i].Ref())
		if err != nil {
			return nil, err
		}
		tasks[i].Tags = tags
	}
	return tasks, nil
}

func loadTags(ctx context.Context, q queryer, ref Ref) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT tag FROM task_tags WHERE uuid = ? AND version = ? ORDER BY tag`, ref.UUID, ref.Version)
	if err != nil {
		return nil, storageErr("query tags", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, storageErr("scan tag", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("query tags", err)
	}
	return tags, nil
}

func scanTask(scanFn func(dest ...any) error) (Task, error) {
	var (
		t           Task
		description sql.NullString
		due         sql.NullString
		hide        sql.NullString
		groups      sql.NullString
		created     string
		baseUUID    sql.NullString
		recurMode   sql.NullString
		recurWhen   sql.NullString
		recurEnd    sql.NullString
	)
	if err := scanFn(
		&t.UUID,
		&t.Version,
		&t.ID,
		&description,
		&t.Priority,
		&t.Status,
		&due,
		&hide,
		&t.Area,
		&groups,
		&created,
		&t.EventID,
		&t.Now,
		&t.Type,
		&baseUUID,
		&recurMode,
		&recurWhen,
		&recurEnd,
	); err != nil {
		return Task{}, err
	}

	t.Description = description.String
	t.Groups = groups.String
	t.BaseUUID = baseUUID.String

	var err error
	if t.CreatedAt, err = time.Parse(timestampLayout, created); err != nil {
		return Task{}, fmt.Errorf("parse created %q: %w", created, err)
	}
	if t.Due, err = parseStoredDate(due); err != nil {
		return Task{}, err
	}
	if t.Hide, err = parseStoredDate(hide); err != nil {
		return Task{}, err
	}
	if t.RecurEnd, err = parseStoredDate(recurEnd); err != nil {
		return Task{}, err
	}
	if recurMode.Valid && recurMode.String != "" {
		when, err := recur.ParseWhen(recurWhen.String)
		if err != nil {
			return Task{}, err
		}
		t.Recur = &recur.Rule{Mode: recur.Mode(recurMode.String), When: when}
	}
	return t, nil
}

func parseStoredDate(value sql.NullString) (*time.Time, error) {
	if !value.Valid || value.String == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dates.Layout, value.String)
	if err != nil {
		return nil, fmt.Errorf("parse stored date %q: %w", value.String, err)
	}
	return &parsed, nil
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.Format(dates.Layout)
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// IsNotFound reports whether err means a task does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTaskNotFound)
}
