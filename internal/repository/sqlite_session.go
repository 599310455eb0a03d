package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
)

// SQLiteSessionRepo implements SessionRepo using a SQLite database.
type SQLiteSessionRepo struct {
	db db.DBTX
}

// NewSQLiteSessionRepo creates a new SQLiteSessionRepo.
func NewSQLiteSessionRepo(db db.DBTX) *SQLiteSessionRepo {
	return &SQLiteSessionRepo{db: db}
}

const sessionColumns = `s.id, s.task_id, s.started_at, s.ended_at,
	s.gross_min, s.break_min, s.procrastination_min, s.net_focused_min,
	s.longest_focus_block_min, s.interruption_count, s.focus_ratio`

func (r *SQLiteSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	query := `INSERT INTO sessions (id, task_id, started_at, ended_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.TaskID,
		formatTime(s.StartedAt),
		nullableTimeToString(s.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// Finalize persists the end time and aggregates of a session.
func (r *SQLiteSessionRepo) Finalize(ctx context.Context, s *domain.Session) error {
	query := `UPDATE sessions SET
		ended_at = ?, gross_min = ?, break_min = ?, procrastination_min = ?,
		net_focused_min = ?, longest_focus_block_min = ?, interruption_count = ?, focus_ratio = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableTimeToString(s.EndedAt),
		s.GrossMin,
		s.BreakMin,
		s.ProcrastinationMin,
		s.NetFocusedMin,
		s.LongestFocusBlockMin,
		s.InterruptionCount,
		nullableFloat(s.FocusRatio),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("finalizing session: %w", err)
	}
	return expectOneRow(res, "session")
}

func (r *SQLiteSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions s WHERE s.id = ?`, id)
	return scanSession(row)
}

// GetActive returns the newest session that has not ended.
func (r *SQLiteSessionRepo) GetActive(ctx context.Context) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions s
		WHERE s.ended_at IS NULL
		ORDER BY s.started_at DESC, s.id DESC LIMIT 1`)
	return scanSession(row)
}

// List returns completed sessions matching f, newest first.
func (r *SQLiteSessionRepo) List(ctx context.Context, f SessionFilter) ([]*domain.Session, error) {
	where, args := f.clauses()
	query := `SELECT ` + sessionColumns + ` FROM sessions s
		JOIN tasks t ON t.id = s.task_id
		WHERE ` + where + `
		ORDER BY s.started_at DESC, s.id DESC` + limitClause(f.Limit)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return out, nil
}

// ListDetailed is List joined with task and category names.
func (r *SQLiteSessionRepo) ListDetailed(ctx context.Context, f SessionFilter) ([]SessionDetail, error) {
	where, args := f.clauses()
	query := `SELECT ` + sessionColumns + `, t.name, c.id, c.name
		FROM sessions s
		JOIN tasks t ON t.id = s.task_id
		JOIN categories c ON c.id = t.category_id
		WHERE ` + where + `
		ORDER BY s.started_at DESC, s.id DESC` + limitClause(f.Limit)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing session details: %w", err)
	}
	defer rows.Close()

	var out []SessionDetail
	for rows.Next() {
		var d SessionDetail
		raw := rawSession{}
		dest := append(raw.dest(&d.Session), &d.TaskName, &d.CategoryID, &d.CategoryName)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning session detail: %w", err)
		}
		if err := raw.populate(&d.Session); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating session details: %w", err)
	}
	return out, nil
}

func (r *SQLiteSessionRepo) CountCompleted(ctx context.Context, f SessionFilter) (int, error) {
	where, args := f.clauses()
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions s JOIN tasks t ON t.id = s.task_id WHERE `+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return n, nil
}

func (r *SQLiteSessionRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return expectOneRow(res, "session")
}

// DeleteRange deletes completed sessions started within [from, to).
// Nil bounds are open.
func (r *SQLiteSessionRepo) DeleteRange(ctx context.Context, from, to *time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions
		WHERE ended_at IS NOT NULL
		  AND (? IS NULL OR started_at >= ?)
		  AND (? IS NULL OR started_at < ?)`,
		nullableTimeToString(from), nullableTimeToString(from),
		nullableTimeToString(to), nullableTimeToString(to))
	if err != nil {
		return 0, fmt.Errorf("deleting session range: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking deleted sessions: %w", err)
	}
	return n, nil
}

// clauses renders the WHERE conditions for a filter over sessions s joined to tasks t.
func (f SessionFilter) clauses() (string, []any) {
	conds := []string{"s.ended_at IS NOT NULL"}
	var args []any
	if f.TaskID != "" {
		conds = append(conds, "s.task_id = ?")
		args = append(args, f.TaskID)
	}
	if f.CategoryID != "" {
		conds = append(conds, "t.category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.StartAfter != nil {
		conds = append(conds, "s.started_at >= ?")
		args = append(args, formatTime(*f.StartAfter))
	}
	if f.StartBefore != nil {
		conds = append(conds, "s.started_at < ?")
		args = append(args, formatTime(*f.StartBefore))
	}
	return strings.Join(conds, " AND "), args
}

func limitClause(limit int) string {
	if limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

// rawSession holds the string and nullable columns of a session row before parsing.
type rawSession struct {
	startedAt string
	endedAt   sql.NullString
	ratio     sql.NullFloat64
}

func (raw *rawSession) dest(s *domain.Session) []any {
	return []any{
		&s.ID, &s.TaskID, &raw.startedAt, &raw.endedAt,
		&s.GrossMin, &s.BreakMin, &s.ProcrastinationMin, &s.NetFocusedMin,
		&s.LongestFocusBlockMin, &s.InterruptionCount, &raw.ratio,
	}
}

func (raw *rawSession) populate(s *domain.Session) error {
	var err error
	if s.StartedAt, err = parseTime(raw.startedAt, "started_at"); err != nil {
		return err
	}
	s.EndedAt = parseNullableTime(raw.endedAt)
	s.FocusRatio = floatPtr(raw.ratio)
	return nil
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var s domain.Session
	raw := rawSession{}
	if err := row.Scan(raw.dest(&s)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}
	if err := raw.populate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}
