package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations. It is safe to run repeatedly.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	if err := migrateBackfillEventSeq(db); err != nil {
		return fmt.Errorf("backfilling event seq values: %w", err)
	}
	if _, err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_events_session_seq ON events(session_id, seq)`); err != nil {
		return fmt.Errorf("creating idx_events_session_seq: %w", err)
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_name ON categories(name COLLATE NOCASE)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id          TEXT PRIMARY KEY,
		category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		created_at  TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_category_name ON tasks(category_id, name COLLATE NOCASE)`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id                      TEXT PRIMARY KEY,
		task_id                 TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		started_at              TEXT NOT NULL,
		ended_at                TEXT,
		gross_min               REAL NOT NULL DEFAULT 0,
		break_min               REAL NOT NULL DEFAULT 0,
		procrastination_min     REAL NOT NULL DEFAULT 0,
		net_focused_min         REAL NOT NULL DEFAULT 0,
		longest_focus_block_min REAL NOT NULL DEFAULT 0,
		interruption_count      INTEGER NOT NULL DEFAULT 0,
		focus_ratio             REAL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_task ON sessions(task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_open ON sessions(started_at) WHERE ended_at IS NULL`,

	`CREATE TABLE IF NOT EXISTS events (
		id         TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		kind       TEXT NOT NULL
		           CHECK(kind IN ('work_start','work_end','break_start','break_end',
		                          'procrastination_start','procrastination_end','burnout')),
		at         TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id)`,

	`CREATE TABLE IF NOT EXISTS reminder_logs (
		id           TEXT PRIMARY KEY,
		session_id   TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		kind         TEXT NOT NULL
		             CHECK(kind IN ('burnout_check','procrastination_nudge','break_elapsed')),
		prompted_at  TEXT NOT NULL,
		response     TEXT CHECK(response IS NULL OR response IN ('yes','no','dismissed')),
		responded_at TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reminder_logs_session ON reminder_logs(session_id)`,

	`CREATE TABLE IF NOT EXISTS model_versions (
		id           TEXT PRIMARY KEY,
		target       TEXT NOT NULL,
		version      INTEGER NOT NULL CHECK(version > 0),
		trained_at   TEXT NOT NULL,
		metrics_json TEXT NOT NULL DEFAULT '{}',
		UNIQUE(target, version)
	)`,

	// Per-session append order; breaks ties between events sharing a timestamp.
	`ALTER TABLE events ADD COLUMN seq INTEGER NOT NULL DEFAULT 0`,
}

// migrateBackfillEventSeq numbers events that predate the seq column.
// Within a session, events are numbered by timestamp, then by insertion order.
// Idempotent: sessions whose events all have seq > 0 are untouched.
func migrateBackfillEventSeq(db *sql.DB) error {
	ctx := context.Background()

	var pending int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE seq = 0`).Scan(&pending); err != nil {
		return fmt.Errorf("checking events seq: %w", err)
	}
	if pending == 0 {
		return nil
	}

	_, err := db.ExecContext(ctx, `UPDATE events SET seq = (
			SELECT COUNT(*) FROM events e2
			WHERE e2.session_id = events.session_id
			  AND (e2.at < events.at OR (e2.at = events.at AND e2.rowid <= events.rowid))
		)
		WHERE session_id IN (SELECT DISTINCT session_id FROM events WHERE seq = 0)`)
	if err != nil {
		return fmt.Errorf("numbering events: %w", err)
	}
	return nil
}
