package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/focusbuddy/internal/config"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/forecast"
	"github.com/alexanderramin/focusbuddy/internal/repository"
	"github.com/alexanderramin/focusbuddy/internal/service"
	"github.com/alexanderramin/focusbuddy/internal/testutil"
)

type testEnv struct {
	app        *App
	db         *sql.DB
	clock      *testutil.Clock
	categoryID string
	taskID     string
	reminders  *repository.SQLiteReminderRepo
	events     *repository.SQLiteEventRepo
}

// testApp wires a full App backed by an in-memory DB, with "Coding/Refactor" seeded.
func testApp(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	catID, taskID := testutil.SeedCategoryTask(t, database, "Coding", "Refactor")
	clock := testutil.NewClock(testutil.T0)
	uow := testutil.NewTestUoW(database)

	sessions := repository.NewSQLiteSessionRepo(database)
	events := repository.NewSQLiteEventRepo(database)
	tasks := repository.NewSQLiteTaskRepo(database)
	cats := repository.NewSQLiteCategoryRepo(database)
	reminders := repository.NewSQLiteReminderRepo(database)
	models := repository.NewSQLiteModelVersionRepo(database)

	cfg := config.Default()
	withClock := service.WithClock(clock.Now)
	tracker := service.NewTrackerService(sessions, events, uow, withClock)
	fc := service.NewForecastService(sessions, events, models, uow, cfg.Forecast, withClock)
	tracker.OnSessionEnd(func(domain.Session) { fc.Invalidate() })
	rem := service.NewReminderService(tracker, fc, reminders, cfg.Reminders, func(service.Prompt) {}, withClock)
	t.Cleanup(rem.Stop)

	app := &App{
		Tracker:   tracker,
		Forecast:  fc,
		Catalog:   service.NewCatalogService(cats, tasks, uow),
		Stats:     service.NewStatsService(sessions, events, tasks, reminders),
		Data:      service.NewDataService(sessions, uow, tracker, fc),
		Reminders: rem,
		Config:    cfg,
		Now:       clock.Now,
	}
	return &testEnv{
		app: app, db: database, clock: clock,
		categoryID: catID, taskID: taskID,
		reminders: reminders, events: events,
	}
}

// seedDays writes completed sessions a day apart, ending before T0.
func (e *testEnv) seedDays(t *testing.T, steps ...[]testutil.Step) []*domain.Session {
	t.Helper()
	out := make([]*domain.Session, len(steps))
	for i, st := range steps {
		start := testutil.T0.Add(time.Duration(i-len(steps)) * 24 * time.Hour)
		out[i] = testutil.SeedCompletedSession(t, e.db, e.taskID, start, st)
	}
	return out
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// executeCmd runs a command tree and captures stdout/stderr without styling.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return ansiPattern.ReplaceAllString(buf.String(), ""), err
}

func mustRun(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, "buddy %s", strings.Join(args, " "))
	return out
}

// --- catalog ---

func TestCategoryAddAndList(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "category", "add", "Deep", "Reading")
	assert.Contains(t, out, "Category Deep Reading")

	out = mustRun(t, env.app, "category", "add", "coding")
	assert.Contains(t, out, "Category Coding", "existing name is reused")

	out = mustRun(t, env.app, "category", "list")
	assert.Contains(t, out, "Coding")
	assert.Contains(t, out, "Deep Reading")
}

func TestTaskAddListSearch(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "task", "add", "Essay", "--category", "Writing")
	assert.Contains(t, out, "Task Essay in Writing")

	out = mustRun(t, env.app, "task", "list", "--category", "writing")
	assert.Contains(t, out, "Essay")
	assert.NotContains(t, out, "Refactor")

	out = mustRun(t, env.app, "task", "list")
	assert.Contains(t, out, "Essay")
	assert.Contains(t, out, "Refactor")

	out = mustRun(t, env.app, "task", "search", "ess")
	assert.Contains(t, out, "Essay")

	out = mustRun(t, env.app, "task", "search", "zzz")
	assert.Contains(t, out, "No matches.")

	_, err := executeCmd(t, env.app, "task", "add", "Orphan")
	assert.Error(t, err, "--category is required")
}

func TestTaskListUnknownCategory(t *testing.T) {
	env := testApp(t)
	_, err := executeCmd(t, env.app, "task", "list", "--category", "Nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- work lifecycle ---

func TestWorkLifecycle(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "work", "begin", "--task", "Refactor")
	assert.Contains(t, out, "WORKING")
	assert.Contains(t, out, "Coding / Refactor")

	env.clock.Advance(20)
	out = mustRun(t, env.app, "break", "start")
	assert.Contains(t, out, "ON BREAK")

	env.clock.Advance(5)
	out = mustRun(t, env.app, "break", "end")
	assert.Contains(t, out, "Break lasted 5m.")
	assert.Contains(t, out, "Good micro-break")

	env.clock.Advance(15)
	out = mustRun(t, env.app, "status")
	assert.Contains(t, out, "WORKING")
	assert.Contains(t, out, "Coding / Refactor")
	assert.Contains(t, out, "0:40:00")

	out = mustRun(t, env.app, "work", "end")
	assert.Contains(t, out, "SESSION COMPLETE")
	assert.Contains(t, out, "40m")
	assert.Contains(t, out, "35m")
	assert.Equal(t, domain.StateIdle, env.app.Tracker.State())

	out = mustRun(t, env.app, "status")
	assert.Contains(t, out, "No active session.")
}

func TestWorkBeginByCategoryAndName(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "work", "begin", "--category", "Music", "--name", "Scales")
	assert.Contains(t, out, "Music / Scales")

	active, ok := env.app.Tracker.Active()
	require.True(t, ok)
	task, err := env.app.Catalog.GetTask(context.Background(), active.Session.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "Scales", task.Name)
}

func TestWorkBeginValidation(t *testing.T) {
	env := testApp(t)

	_, err := executeCmd(t, env.app, "work", "begin")
	assert.ErrorContains(t, err, "pass --task")

	_, err = executeCmd(t, env.app, "work", "begin", "--task", "Refactor", "--name", "x")
	assert.ErrorContains(t, err, "not both")

	_, err = executeCmd(t, env.app, "work", "begin", "--task", "Missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mustRun(t, env.app, "work", "begin", "--task", env.taskID)
	_, err = executeCmd(t, env.app, "work", "begin", "--task", "Refactor")
	assert.ErrorIs(t, err, domain.ErrSessionActive)
}

func TestWorkBeginShowsSuggestedLength(t *testing.T) {
	env := testApp(t)
	env.seedDays(t, testutil.Work(40), testutil.Work(40), testutil.Work(40))

	out := mustRun(t, env.app, "work", "begin", "--task", "Refactor")
	assert.Contains(t, out, "suggested session length 40m")
}

func TestTransitionsWithoutSession(t *testing.T) {
	env := testApp(t)

	for _, args := range [][]string{
		{"break", "start"},
		{"procrastinate", "start"},
		{"resume"},
		{"burnout"},
		{"work", "end"},
	} {
		_, err := executeCmd(t, env.app, args...)
		assert.ErrorIs(t, err, domain.ErrNoActiveSession, "buddy %s", strings.Join(args, " "))
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	}
}

func TestProcrastinateResumeAndBurnout(t *testing.T) {
	env := testApp(t)
	mustRun(t, env.app, "work", "begin", "--task", "Refactor")

	env.clock.Advance(10)
	out := mustRun(t, env.app, "procrastinate", "start")
	assert.Contains(t, out, "PROCRASTINATING")

	_, err := executeCmd(t, env.app, "break", "start")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	env.clock.Advance(5)
	out = mustRun(t, env.app, "resume")
	assert.Contains(t, out, "Back to focus mode")

	env.clock.Advance(15)
	out = mustRun(t, env.app, "burnout")
	assert.Contains(t, out, "Burnout logged after 30m")
	assert.Equal(t, domain.StateWorking, env.app.Tracker.State())

	mustRun(t, env.app, "procrastinate", "start")
	mustRun(t, env.app, "procrastinate", "end")
	assert.Equal(t, domain.StateWorking, env.app.Tracker.State())
}

// --- sessions ---

func TestSessionsListShowRemove(t *testing.T) {
	env := testApp(t)
	sessions := env.seedDays(t,
		[]testutil.Step{
			{Kind: domain.EventWorkStart, Minute: 0},
			{Kind: domain.EventBreakStart, Minute: 20},
			{Kind: domain.EventBreakEnd, Minute: 25},
			{Kind: domain.EventWorkEnd, Minute: 45},
		},
		testutil.Work(30),
	)

	out := mustRun(t, env.app, "sessions", "list")
	assert.Contains(t, out, "Coding / Refactor")
	assert.Contains(t, out, domain.DisplayID(sessions[0].ID))
	assert.Contains(t, out, domain.DisplayID(sessions[1].ID))

	out = mustRun(t, env.app, "sessions", "show", sessions[0].ID[:8])
	assert.Contains(t, out, "break start")
	assert.Contains(t, out, "+20m")
	assert.Contains(t, out, "stored aggregates match the event log")
	assert.Contains(t, out, "20m, 20m")

	out = mustRun(t, env.app, "sessions", "rm", sessions[0].ID[:8])
	assert.Contains(t, out, "Removed session")

	_, err := executeCmd(t, env.app, "sessions", "show", sessions[0].ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out = mustRun(t, env.app, "sessions", "list", "--limit", "5")
	assert.NotContains(t, out, domain.DisplayID(sessions[0].ID))
}

func TestSessionsShowDetectsTampering(t *testing.T) {
	env := testApp(t)
	sessions := env.seedDays(t, testutil.Work(30))
	_, err := env.db.Exec(`UPDATE sessions SET net_focused_min = 999 WHERE id = ?`, sessions[0].ID)
	require.NoError(t, err)

	out := mustRun(t, env.app, "sessions", "show", sessions[0].ID)
	assert.Contains(t, out, "stored aggregates differ from the event log")
	assert.Contains(t, out, "REPLAYED")
}

func TestSessionsListFilters(t *testing.T) {
	env := testApp(t)
	env.seedDays(t, testutil.Work(30))

	out := mustRun(t, env.app, "sessions", "list", "--category", "Coding", "--task", "Refactor")
	assert.Contains(t, out, "Coding / Refactor")

	mustRun(t, env.app, "category", "add", "Writing")
	out = mustRun(t, env.app, "sessions", "list", "--category", "Writing")
	assert.Contains(t, out, "No sessions found.")

	out = mustRun(t, env.app, "sessions", "list", "--since", "2025-03-15T00:00:00Z")
	assert.Contains(t, out, "No sessions found.")

	_, err := executeCmd(t, env.app, "sessions", "list", "--since", "yesterday-ish")
	assert.ErrorContains(t, err, "invalid time")
}

func TestSessionsPrune(t *testing.T) {
	env := testApp(t)
	env.seedDays(t, testutil.Work(10), testutil.Work(20), testutil.Work(30))

	_, err := executeCmd(t, env.app, "sessions", "prune")
	assert.ErrorContains(t, err, "--since")

	out := mustRun(t, env.app, "sessions", "prune",
		"--since", "2025-03-13T00:00:00Z", "--until", "2025-03-14T00:00:00Z")
	assert.Contains(t, out, "Deleted 1 session(s)")

	n, err := repository.NewSQLiteSessionRepo(env.db).CountCompleted(context.Background(), repository.SessionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSessionsRemoveActiveRefused(t *testing.T) {
	env := testApp(t)
	mustRun(t, env.app, "work", "begin", "--task", "Refactor")
	active, _ := env.app.Tracker.Active()

	_, err := executeCmd(t, env.app, "sessions", "rm", active.Session.ID[:8])
	assert.ErrorIs(t, err, domain.ErrSessionActive)
}

// --- stats and forecasts ---

func TestStats(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "stats")
	assert.Contains(t, out, "No completed sessions yet.")

	env.seedDays(t, testutil.Work(30), testutil.Work(50))
	out = mustRun(t, env.app, "stats", "--category", "Coding")
	assert.Contains(t, out, "total focused")
	assert.Contains(t, out, "1h 20m")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "LONGEST FOCUS BLOCKS")
}

func TestPredict(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "predict", "net_focused_time")
	assert.Contains(t, out, "not enough data")
	assert.Contains(t, out, "(0 samples, need 3)")

	env.seedDays(t, testutil.Work(30), testutil.Work(30), testutil.Work(30))
	out = mustRun(t, env.app, "predict", "net_focused_time", "--task", "Refactor")
	assert.Contains(t, out, "net focused time  30m  ema  (3 samples)")

	out = mustRun(t, env.app, "predict")
	for _, target := range forecast.Targets {
		assert.Contains(t, out, strings.ReplaceAll(string(target), "_", " "))
	}

	_, err := executeCmd(t, env.app, "predict", "happiness")
	assert.ErrorIs(t, err, forecast.ErrUnknownTarget)
}

func TestInsights(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "insights")
	assert.Contains(t, out, "Not enough data yet")

	env.seedDays(t, testutil.Work(40), testutil.Work(40), testutil.Work(40))
	out = mustRun(t, env.app, "insights", "--category", "Coding")
	assert.Contains(t, out, "optimal session")
	assert.Contains(t, out, "40m")
	assert.Contains(t, out, "take a break after")
	assert.Contains(t, out, "36m")
	assert.Contains(t, out, "Research suggests about 10m of rest after 40m of work.")
}

func TestTrain(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "train", "--show")
	assert.Contains(t, out, "No training runs recorded.")

	env.seedDays(t, testutil.Work(30), testutil.Work(30), testutil.Work(30))
	out = mustRun(t, env.app, "train")
	assert.Contains(t, out, "net_focused_time")
	assert.Contains(t, out, "v1")

	out = mustRun(t, env.app, "train", "--show")
	assert.Contains(t, out, "net_focused_time")
	assert.Contains(t, out, "v1")
}

// --- data ---

func TestExportToFileAndStdout(t *testing.T) {
	env := testApp(t)
	env.seedDays(t, testutil.Work(30), testutil.Work(45))

	path := filepath.Join(t.TempDir(), "out", "sessions.csv")
	out := mustRun(t, env.app, "export", "--out", path)
	assert.Contains(t, out, "Exported 2 session(s)")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, service.ExportColumns, records[0])

	out = mustRun(t, env.app, "export")
	assert.True(t, strings.HasPrefix(out, "id,category,task,"))
}

func TestReset(t *testing.T) {
	env := testApp(t)
	env.seedDays(t, testutil.Work(30))

	_, err := executeCmd(t, env.app, "reset")
	assert.ErrorContains(t, err, "--yes")

	out := mustRun(t, env.app, "reset", "--yes")
	assert.Contains(t, out, "All data deleted.")

	out = mustRun(t, env.app, "category", "list")
	assert.Contains(t, out, "No categories yet.")
}

func TestResearch(t *testing.T) {
	env := testApp(t)

	out := mustRun(t, env.app, "research")
	assert.Contains(t, out, "Pomodoro Technique")
	assert.Contains(t, out, "25m work / 5m break")

	out = mustRun(t, env.app, "research", "--break", "15")
	assert.Contains(t, out, "deep")

	out = mustRun(t, env.app, "research", "--worked", "60")
	assert.Contains(t, out, "After 1h of work, take about 17m off.")
}

func TestCompanionRequiresTerminal(t *testing.T) {
	env := testApp(t)
	env.app.IsInteractive = func() bool { return false }

	_, err := executeCmd(t, env.app, "companion")
	assert.ErrorContains(t, err, "interactive terminal")
}

func TestParseTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	got, err := parseTime("7d", now)
	require.NoError(t, err)
	assert.True(t, got.Equal(now.AddDate(0, 0, -7)))

	got, err = parseTime("2026-03-01T08:30:00Z", now)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)))

	got, err = parseTime("2026-03-01", now)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, 0, got.Hour())

	_, err = parseTime("soon", now)
	assert.Error(t, err)
}
