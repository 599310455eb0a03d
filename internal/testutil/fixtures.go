package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/focusbuddy/internal/aggregate"
	"github.com/alexanderramin/focusbuddy/internal/domain"
)

// T0 is the reference instant fixtures are built around.
var T0 = time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

var nameCounter atomic.Int64

// At returns T0 shifted by the given number of minutes.
func At(minutes float64) time.Time {
	return T0.Add(time.Duration(minutes * float64(time.Minute)))
}

func NewTestCategory(name string) *domain.Category {
	if name == "" {
		name = fmt.Sprintf("Category-%d", nameCounter.Add(1))
	}
	return &domain.Category{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

func NewTestTask(categoryID, name string) *domain.Task {
	if name == "" {
		name = fmt.Sprintf("Task-%d", nameCounter.Add(1))
	}
	return &domain.Task{
		ID:         uuid.New().String(),
		Name:       name,
		CategoryID: categoryID,
		CreatedAt:  time.Now().UTC(),
	}
}

// Session options
type SessionOption func(*domain.Session)

func WithStartedAt(t time.Time) SessionOption {
	return func(s *domain.Session) {
		s.StartedAt = t
	}
}

func WithEndedAt(t time.Time) SessionOption {
	return func(s *domain.Session) {
		s.EndedAt = &t
	}
}

func WithAggregates(a domain.Aggregates) SessionOption {
	return func(s *domain.Session) {
		s.Aggregates = a
	}
}

// NewTestSession builds an active session starting at T0 unless overridden.
func NewTestSession(taskID string, opts ...SessionOption) *domain.Session {
	s := &domain.Session{
		ID:        uuid.New().String(),
		TaskID:    taskID,
		StartedAt: T0,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Step is one event of a seeded session, offset in minutes from the session start.
type Step struct {
	Kind   domain.EventKind
	Minute float64
}

// Work is the minimal uninterrupted session of the given length.
func Work(minutes float64) []Step {
	return []Step{{domain.EventWorkStart, 0}, {domain.EventWorkEnd, minutes}}
}

// SeedCategoryTask inserts a category and a task and returns their IDs.
func SeedCategoryTask(t *testing.T, database *sql.DB, category, task string) (categoryID, taskID string) {
	t.Helper()
	c := NewTestCategory(category)
	tk := NewTestTask(c.ID, task)
	exec(t, database, `INSERT INTO categories (id, name, created_at) VALUES (?, ?, ?)`,
		c.ID, c.Name, formatTime(c.CreatedAt))
	exec(t, database, `INSERT INTO tasks (id, category_id, name, created_at) VALUES (?, ?, ?, ?)`,
		tk.ID, c.ID, tk.Name, formatTime(tk.CreatedAt))
	return c.ID, tk.ID
}

// SeedCompletedSession writes a finished session whose aggregates come from
// replaying steps, as the tracker would have stored them.
func SeedCompletedSession(t *testing.T, database *sql.DB, taskID string, start time.Time, steps []Step) *domain.Session {
	t.Helper()

	s := NewTestSession(taskID, WithStartedAt(start))
	events := make([]domain.Event, len(steps))
	for i, st := range steps {
		events[i] = domain.Event{
			ID:        uuid.New().String(),
			SessionID: s.ID,
			Seq:       i + 1,
			Kind:      st.Kind,
			At:        start.Add(time.Duration(st.Minute * float64(time.Minute))),
		}
	}
	res := aggregate.Replay(events)
	end := start
	if len(events) > 0 {
		end = events[len(events)-1].At
	}
	s.Finalize(end, res.Aggregates)

	var ratio any
	if s.FocusRatio != nil {
		ratio = *s.FocusRatio
	}
	exec(t, database, `INSERT INTO sessions (id, task_id, started_at, ended_at, gross_min, break_min,
		procrastination_min, net_focused_min, longest_focus_block_min, interruption_count, focus_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.TaskID, formatTime(s.StartedAt), formatTime(*s.EndedAt),
		s.GrossMin, s.BreakMin, s.ProcrastinationMin, s.NetFocusedMin,
		s.LongestFocusBlockMin, s.InterruptionCount, ratio)
	for _, e := range events {
		exec(t, database, `INSERT INTO events (id, session_id, seq, kind, at) VALUES (?, ?, ?, ?, ?)`,
			e.ID, e.SessionID, e.Seq, string(e.Kind), formatTime(e.At))
	}
	return s
}

// formatTime mirrors the repository's fixed-width UTC layout.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func exec(t *testing.T, database *sql.DB, query string, args ...any) {
	t.Helper()
	if _, err := database.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("seeding: %v", err)
	}
}
