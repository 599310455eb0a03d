package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/focusbuddy/internal/config"
	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/repository"
	"github.com/alexanderramin/focusbuddy/internal/testutil"
)

type fixture struct {
	db         *sql.DB
	uow        db.UnitOfWork
	clock      *testutil.Clock
	categoryID string
	taskID     string

	sessions  *repository.SQLiteSessionRepo
	events    *repository.SQLiteEventRepo
	tasks     *repository.SQLiteTaskRepo
	reminders *repository.SQLiteReminderRepo
	models    *repository.SQLiteModelVersionRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	catID, taskID := testutil.SeedCategoryTask(t, database, "Coding", "Refactor")
	return &fixture{
		db:         database,
		uow:        testutil.NewTestUoW(database),
		clock:      testutil.NewClock(testutil.T0),
		categoryID: catID,
		taskID:     taskID,
		sessions:   repository.NewSQLiteSessionRepo(database),
		events:     repository.NewSQLiteEventRepo(database),
		tasks:      repository.NewSQLiteTaskRepo(database),
		reminders:  repository.NewSQLiteReminderRepo(database),
		models:     repository.NewSQLiteModelVersionRepo(database),
	}
}

func (f *fixture) tracker(opts ...Option) TrackerService {
	return f.trackerWithUoW(f.uow, opts...)
}

func (f *fixture) trackerWithUoW(uow db.UnitOfWork, opts ...Option) TrackerService {
	opts = append([]Option{WithClock(f.clock.Now)}, opts...)
	return NewTrackerService(f.sessions, f.events, uow, opts...)
}

func (f *fixture) forecast(opts ...Option) ForecastService {
	opts = append([]Option{WithClock(f.clock.Now)}, opts...)
	return NewForecastService(f.sessions, f.events, f.models, f.uow, config.Default().Forecast, opts...)
}

// seedDays writes one completed session per steps entry, a day apart, for taskID.
func (f *fixture) seedDays(t *testing.T, taskID string, steps ...[]testutil.Step) []*domain.Session {
	t.Helper()
	out := make([]*domain.Session, len(steps))
	for i, st := range steps {
		start := testutil.T0.Add(time.Duration(i-len(steps)) * 24 * time.Hour)
		out[i] = testutil.SeedCompletedSession(t, f.db, taskID, start, st)
	}
	return out
}

func (f *fixture) eventCount(t *testing.T, sessionID string) int {
	t.Helper()
	events, err := f.events.ListBySession(context.Background(), sessionID)
	require.NoError(t, err)
	return len(events)
}

// withBreak is a session of gross length total with one break of breakMin starting at breakAt.
func withBreak(breakAt, breakMin, total float64) []testutil.Step {
	return []testutil.Step{
		{Kind: domain.EventWorkStart, Minute: 0},
		{Kind: domain.EventBreakStart, Minute: breakAt},
		{Kind: domain.EventBreakEnd, Minute: breakAt + breakMin},
		{Kind: domain.EventWorkEnd, Minute: total},
	}
}
