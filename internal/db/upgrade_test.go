package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrate_UpgradePath_EventsWithoutSeq simulates a database created before
// events carried a seq column. Existing events must survive and be numbered
// by timestamp, with insertion order breaking ties.
func TestMigrate_UpgradePath_EventsWithoutSeq(t *testing.T) {
	// Raw connection so the legacy schema is under manual control.
	db, err := sql.Open("sqlite", dsn(MemoryPath))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	legacy := []string{
		`CREATE TABLE categories (id TEXT PRIMARY KEY, name TEXT NOT NULL, created_at TEXT NOT NULL)`,
		`CREATE TABLE tasks (
			id TEXT PRIMARY KEY,
			category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE sessions (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			started_at TEXT NOT NULL,
			ended_at TEXT,
			gross_min REAL NOT NULL DEFAULT 0,
			break_min REAL NOT NULL DEFAULT 0,
			procrastination_min REAL NOT NULL DEFAULT 0,
			net_focused_min REAL NOT NULL DEFAULT 0,
			longest_focus_block_min REAL NOT NULL DEFAULT 0,
			interruption_count INTEGER NOT NULL DEFAULT 0,
			focus_ratio REAL
		)`,
		`CREATE TABLE events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			at TEXT NOT NULL
		)`,
		`INSERT INTO categories VALUES ('c1', 'Study', '2025-01-01T00:00:00.000000000Z')`,
		`INSERT INTO tasks VALUES ('t1', 'c1', 'Read', '2025-01-01T00:00:00.000000000Z')`,
		`INSERT INTO sessions (id, task_id, started_at) VALUES ('s1', 't1', '2025-01-01T09:00:00.000000000Z')`,
		`INSERT INTO sessions (id, task_id, started_at) VALUES ('s2', 't1', '2025-01-02T09:00:00.000000000Z')`,
		// Inserted out of time order; the tie at 09:40 keeps insertion order.
		`INSERT INTO events VALUES ('e3', 's1', 'break_end', '2025-01-01T09:40:00.000000000Z')`,
		`INSERT INTO events VALUES ('e1', 's1', 'work_start', '2025-01-01T09:00:00.000000000Z')`,
		`INSERT INTO events VALUES ('e2', 's1', 'break_start', '2025-01-01T09:30:00.000000000Z')`,
		`INSERT INTO events VALUES ('e4', 's1', 'work_end', '2025-01-01T09:40:00.000000000Z')`,
		`INSERT INTO events VALUES ('e5', 's2', 'work_start', '2025-01-02T09:00:00.000000000Z')`,
	}
	for _, stmt := range legacy {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}

	require.NoError(t, Migrate(db))

	rows, err := db.Query(`SELECT id, seq FROM events ORDER BY session_id, seq`)
	require.NoError(t, err)
	defer rows.Close()

	got := map[string]int{}
	for rows.Next() {
		var id string
		var seq int
		require.NoError(t, rows.Scan(&id, &seq))
		got[id] = seq
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, map[string]int{"e1": 1, "e2": 2, "e3": 3, "e4": 4, "e5": 1}, got)

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type='index' AND name='idx_events_session_seq'`).Scan(&name)
	require.NoError(t, err)

	// A second run leaves the numbering alone.
	require.NoError(t, Migrate(db))
	var seq int
	require.NoError(t, db.QueryRow(`SELECT seq FROM events WHERE id = 'e4'`).Scan(&seq))
	assert.Equal(t, 4, seq)
}
