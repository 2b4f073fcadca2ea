package task

import (
	"context"
	"fmt"
)

const schemaVersion = 1

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		uuid TEXT NOT NULL,
		version INTEGER NOT NULL,
		id INTEGER NOT NULL,
		description TEXT,
		priority TEXT NOT NULL DEFAULT 'N',
		status TEXT NOT NULL,
		due TEXT,
		hide TEXT,
		area TEXT NOT NULL,
		groups_path TEXT,
		created TEXT NOT NULL,
		event_id TEXT NOT NULL,
		now_flag INTEGER NOT NULL DEFAULT 0,
		task_type TEXT NOT NULL,
		base_uuid TEXT,
		recur_mode TEXT,
		recur_when TEXT,
		recur_end TEXT,
		PRIMARY KEY (uuid, version)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_area ON tasks (area, task_type)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_base ON tasks (base_uuid)`,
	`CREATE TABLE IF NOT EXISTS task_tags (
		uuid TEXT NOT NULL,
		version INTEGER NOT NULL,
		tag TEXT NOT NULL,
		PRIMARY KEY (uuid, version, tag),
		FOREIGN KEY (uuid, version) REFERENCES tasks (uuid, version) ON DELETE CASCADE
	)`,
	`CREATE TABLE IF NOT EXISTS recur_instances (
		base_uuid TEXT NOT NULL,
		base_version INTEGER NOT NULL,
		due TEXT NOT NULL,
		PRIMARY KEY (base_uuid, due)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		event_id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		created TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS app_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE VIEW IF NOT EXISTS current_tasks AS
		SELECT t.* FROM tasks t
		JOIN (SELECT uuid, MAX(version) AS version FROM tasks GROUP BY uuid) latest
			ON t.uuid = latest.uuid AND t.version = latest.version`,
}

func (s *Store) initSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	var current int
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", current, schemaVersion)
	}
	if current < schemaVersion {
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			schemaVersion, s.now().UTC().Format(timestampLayout)); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
