package repository

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
)

// SQLiteEventRepo implements EventRepo using a SQLite database.
// Events are append-only; there is no update or per-event delete.
type SQLiteEventRepo struct {
	db db.DBTX
}

func NewSQLiteEventRepo(db db.DBTX) *SQLiteEventRepo {
	return &SQLiteEventRepo{db: db}
}

// Append inserts e with the next seq for its session and sets e.Seq.
func (r *SQLiteEventRepo) Append(ctx context.Context, e *domain.Event) error {
	query := `INSERT INTO events (id, session_id, seq, kind, at)
		SELECT ?, ?, COALESCE(MAX(seq), 0) + 1, ?, ?
		FROM events WHERE session_id = ?`
	_, err := r.db.ExecContext(ctx, query, e.ID, e.SessionID, string(e.Kind), formatTime(e.At), e.SessionID)
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	if err := r.db.QueryRowContext(ctx, `SELECT seq FROM events WHERE id = ?`, e.ID).Scan(&e.Seq); err != nil {
		return fmt.Errorf("reading event seq: %w", err)
	}
	return nil
}

// ListBySession returns a session's events ordered by time, ties by seq.
func (r *SQLiteEventRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.Event, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, seq, kind, at FROM events
		WHERE session_id = ?
		ORDER BY at, seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// eventBatchSize keeps each IN list well under SQLite's bound-variable limit.
const eventBatchSize = 500

// ListBySessions loads the events of many sessions, grouped by session.
// IDs are queried in batches of eventBatchSize.
func (r *SQLiteEventRepo) ListBySessions(ctx context.Context, sessionIDs []string) (map[string][]domain.Event, error) {
	out := make(map[string][]domain.Event, len(sessionIDs))
	for batch := range slices.Chunk(sessionIDs, eventBatchSize) {
		if err := r.listBatch(ctx, batch, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *SQLiteEventRepo) listBatch(ctx context.Context, sessionIDs []string, out map[string][]domain.Event) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(sessionIDs)), ",")
	args := make([]any, len(sessionIDs))
	for i, id := range sessionIDs {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, seq, kind, at FROM events
		WHERE session_id IN (`+placeholders+`)
		ORDER BY session_id, at, seq`, args...)
	if err != nil {
		return fmt.Errorf("listing events for sessions: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return err
	}
	for _, e := range events {
		out[e.SessionID] = append(out[e.SessionID], e)
	}
	return nil
}

// FirstOffsets returns, per event kind, the minutes from session start to the
// first event of that kind.
func (r *SQLiteEventRepo) FirstOffsets(ctx context.Context, sessionID string) (map[domain.EventKind]float64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.kind, MIN(e.at), s.started_at
		FROM events e JOIN sessions s ON s.id = e.session_id
		WHERE e.session_id = ?
		GROUP BY e.kind`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying first event offsets: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.EventKind]float64)
	for rows.Next() {
		var kindStr, atStr, startStr string
		if err := rows.Scan(&kindStr, &atStr, &startStr); err != nil {
			return nil, fmt.Errorf("scanning event offset: %w", err)
		}
		kind, err := domain.ParseEventKind(kindStr)
		if err != nil {
			return nil, err
		}
		at, err := parseTime(atStr, "at")
		if err != nil {
			return nil, err
		}
		start, err := parseTime(startStr, "started_at")
		if err != nil {
			return nil, err
		}
		out[kind] = at.Sub(start).Minutes()
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event offsets: %w", err)
	}
	return out, nil
}

func scanEvents(rows *sql.Rows) ([]domain.Event, error) {
	var out []domain.Event
	for rows.Next() {
		var e domain.Event
		var kindStr, atStr string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Seq, &kindStr, &atStr); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		var err error
		if e.Kind, err = domain.ParseEventKind(kindStr); err != nil {
			return nil, err
		}
		if e.At, err = parseTime(atStr, "at"); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return out, nil
}
