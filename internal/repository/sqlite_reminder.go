package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
)

type SQLiteReminderRepo struct {
	db db.DBTX
}

func NewSQLiteReminderRepo(db db.DBTX) *SQLiteReminderRepo {
	return &SQLiteReminderRepo{db: db}
}

func (r *SQLiteReminderRepo) Create(ctx context.Context, rl *domain.ReminderLog) error {
	var resp any
	if rl.Response != nil {
		resp = string(*rl.Response)
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO reminder_logs (id, session_id, kind, prompted_at, response, responded_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rl.ID, rl.SessionID, string(rl.Kind), formatTime(rl.PromptedAt),
		resp, nullableTimeToString(rl.RespondedAt))
	if err != nil {
		return fmt.Errorf("inserting reminder log: %w", err)
	}
	return nil
}

func (r *SQLiteReminderRepo) Respond(ctx context.Context, id string, resp domain.ReminderResponse, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE reminder_logs SET response = ?, responded_at = ? WHERE id = ?`,
		string(resp), formatTime(at), id)
	if err != nil {
		return fmt.Errorf("recording reminder response: %w", err)
	}
	return expectOneRow(res, "reminder log")
}

func (r *SQLiteReminderRepo) ListBySession(ctx context.Context, sessionID string) ([]*domain.ReminderLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, session_id, kind, prompted_at, response, responded_at
		FROM reminder_logs WHERE session_id = ?
		ORDER BY prompted_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing reminder logs: %w", err)
	}
	defer rows.Close()

	var out []*domain.ReminderLog
	for rows.Next() {
		var rl domain.ReminderLog
		var kind, promptedAt string
		var resp, respondedAt sql.NullString
		if err := rows.Scan(&rl.ID, &rl.SessionID, &kind, &promptedAt, &resp, &respondedAt); err != nil {
			return nil, fmt.Errorf("scanning reminder log: %w", err)
		}
		rl.Kind = domain.ReminderKind(kind)
		var err error
		if rl.PromptedAt, err = parseTime(promptedAt, "prompted_at"); err != nil {
			return nil, err
		}
		if resp.Valid {
			v := domain.ReminderResponse(resp.String)
			rl.Response = &v
		}
		rl.RespondedAt = parseNullableTime(respondedAt)
		out = append(out, &rl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reminder logs: %w", err)
	}
	return out, nil
}
