package cli

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/teatest"
	"github.com/alexanderramin/focusbuddy/internal/testutil"
)

func newCompanionDriver(t *testing.T, env *testEnv) *teatest.Driver {
	t.Helper()
	d := teatest.New(t, newCompanionModel(context.Background(), env.app), teatest.WithSize(100, 30))
	d.DrainInit()
	return d
}

func companionOf(d *teatest.Driver) companionModel {
	return d.Model.(companionModel)
}

// beginSession starts a session on the seeded task and returns its ID.
func beginSession(t *testing.T, env *testEnv) string {
	t.Helper()
	evt, err := env.app.Tracker.Begin(context.Background(), env.taskID)
	require.NoError(t, err)
	return evt.SessionID
}

// seedPrompt stores a reminder log as the reminder service would before notifying.
func seedPrompt(t *testing.T, env *testEnv, sessionID string, kind domain.ReminderKind) promptMsg {
	t.Helper()
	rl := &domain.ReminderLog{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Kind:       kind,
		PromptedAt: env.clock.Now(),
	}
	require.NoError(t, env.reminders.Create(context.Background(), rl))
	return promptMsg{ID: rl.ID, Kind: kind, SessionID: sessionID, Message: "Checking in: how are you holding up?"}
}

func eventKinds(t *testing.T, env *testEnv, sessionID string) []domain.EventKind {
	t.Helper()
	events, err := env.events.ListBySession(context.Background(), sessionID)
	require.NoError(t, err)
	kinds := make([]domain.EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
	}
	return kinds
}

func TestCompanion_IdleView(t *testing.T) {
	env := testApp(t)
	d := newCompanionDriver(t, env)

	view := d.View()
	assert.Contains(t, view, "FOCUSBUDDY")
	assert.Contains(t, view, "IDLE")
	assert.Contains(t, view, "press w to start working")
}

func TestCompanion_BreakCycle(t *testing.T) {
	env := testApp(t)
	beginSession(t, env)
	d := newCompanionDriver(t, env)

	env.clock.Advance(25)
	d.PressKey('b')
	assert.Equal(t, domain.StateOnBreak, env.app.Tracker.State())
	view := d.View()
	assert.Contains(t, view, "ON BREAK")
	assert.Contains(t, view, "Coding / Refactor")
	assert.Contains(t, view, "Enjoy your break.")

	env.clock.Advance(5)
	d.PressKey('b')
	assert.Equal(t, domain.StateWorking, env.app.Tracker.State())
	assert.Contains(t, companionOf(d).notice, "Good micro-break")
}

func TestCompanion_ProcrastinateAndResume(t *testing.T) {
	env := testApp(t)
	beginSession(t, env)
	d := newCompanionDriver(t, env)

	d.PressKey('p')
	assert.Equal(t, domain.StateProcrastinating, env.app.Tracker.State())

	d.PressKey('r')
	assert.Equal(t, domain.StateWorking, env.app.Tracker.State())
	assert.Equal(t, backToFocus, companionOf(d).notice)
}

func TestCompanion_InvalidKeyShowsError(t *testing.T) {
	env := testApp(t)
	d := newCompanionDriver(t, env)

	d.PressKey('b')
	m := companionOf(d)
	require.Error(t, m.err)
	assert.ErrorIs(t, m.err, domain.ErrNoActiveSession)
	assert.Contains(t, d.View(), "cannot start break")
}

func TestCompanion_BurnoutPromptYes(t *testing.T) {
	env := testApp(t)
	sessionID := beginSession(t, env)
	d := newCompanionDriver(t, env)

	env.clock.Advance(45)
	d.Send(seedPrompt(t, env, sessionID, domain.ReminderBurnoutCheck))
	view := d.View()
	assert.Contains(t, view, "Checking in")
	assert.Contains(t, view, "y log burnout")

	d.PressKey('y')
	assert.Nil(t, companionOf(d).prompt)
	assert.Contains(t, eventKinds(t, env, sessionID), domain.EventBurnout)

	logs, err := env.reminders.ListBySession(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].Response)
	assert.Equal(t, domain.ResponseYes, *logs[0].Response)
}

func TestCompanion_PromptDismissed(t *testing.T) {
	env := testApp(t)
	sessionID := beginSession(t, env)
	d := newCompanionDriver(t, env)

	d.Send(seedPrompt(t, env, sessionID, domain.ReminderBurnoutCheck))
	d.PressKey('d')

	assert.NotContains(t, eventKinds(t, env, sessionID), domain.EventBurnout)
	logs, err := env.reminders.ListBySession(context.Background(), sessionID)
	require.NoError(t, err)
	require.NotNil(t, logs[0].Response)
	assert.Equal(t, domain.ResponseDismissed, *logs[0].Response)
}

func TestCompanion_StaleNudgeDoesNothing(t *testing.T) {
	env := testApp(t)
	sessionID := beginSession(t, env)
	d := newCompanionDriver(t, env)

	d.PressKey('p')
	d.Send(seedPrompt(t, env, sessionID, domain.ReminderProcrastinationNudge))
	assert.Contains(t, d.View(), "y back to work")

	// Resuming by hand first leaves the nudge's "yes" with nothing to end.
	d.PressKey('r')
	before := eventKinds(t, env, sessionID)
	d.PressKey('y')

	assert.NoError(t, companionOf(d).err)
	assert.Equal(t, domain.StateWorking, env.app.Tracker.State())
	assert.Equal(t, before, eventKinds(t, env, sessionID))
}

func TestCompanion_EndShowsSummary(t *testing.T) {
	env := testApp(t)
	beginSession(t, env)
	d := newCompanionDriver(t, env)

	env.clock.Advance(30)
	d.PressKey('e')

	assert.Equal(t, domain.StateIdle, env.app.Tracker.State())
	assert.Equal(t, "Session complete: 30m focused of 30m (100%).", companionOf(d).notice)
}

func TestCompanion_QuitConfirmation(t *testing.T) {
	env := testApp(t)
	beginSession(t, env)
	d := newCompanionDriver(t, env)

	d.PressKey('q')
	assert.Equal(t, modeConfirmQuit, companionOf(d).mode)
	assert.Contains(t, d.View(), "End the session and quit? y/n")

	d.PressKey('n')
	assert.Equal(t, modeTracking, companionOf(d).mode)
	assert.False(t, d.Quitting)

	d.PressKey('q')
	d.PressKey('y')
	assert.True(t, d.Quitting)
	assert.Equal(t, domain.StateIdle, env.app.Tracker.State())
}

func TestCompanion_QuitWhenIdle(t *testing.T) {
	env := testApp(t)
	d := newCompanionDriver(t, env)

	d.PressKey('q')
	assert.True(t, d.Quitting)
}

func TestCompanion_CtrlCKeepsSession(t *testing.T) {
	env := testApp(t)
	beginSession(t, env)
	d := newCompanionDriver(t, env)

	d.PressCtrlC()
	assert.True(t, d.Quitting)
	assert.Equal(t, domain.StateWorking, env.app.Tracker.State())
}

func TestCompanion_PickerCancel(t *testing.T) {
	env := testApp(t)
	d := newCompanionDriver(t, env)

	d.PressKey('w')
	assert.Equal(t, modePicking, companionOf(d).mode)

	d.PressEsc()
	m := companionOf(d)
	assert.Equal(t, modeTracking, m.mode)
	assert.Equal(t, "Cancelled.", m.notice)
	assert.Equal(t, domain.StateIdle, env.app.Tracker.State())
}

func TestCompanion_BeginWhileActive(t *testing.T) {
	env := testApp(t)
	beginSession(t, env)
	d := newCompanionDriver(t, env)

	d.PressKey('w')
	m := companionOf(d)
	assert.Equal(t, modeTracking, m.mode)
	assert.Equal(t, "A session is already running.", m.notice)
}

func TestCompanion_InsightsLine(t *testing.T) {
	env := testApp(t)
	env.seedDays(t, testutil.Work(40), testutil.Work(40), testutil.Work(40))
	d := newCompanionDriver(t, env)

	view := d.View()
	assert.Contains(t, view, "suggested length 40m")
	assert.Contains(t, view, "break after 36m")
}

func TestTaskPick_Resolve(t *testing.T) {
	env := testApp(t)
	ctx := context.Background()

	t.Run("existing task", func(t *testing.T) {
		pick := taskPick{CategoryID: env.categoryID, TaskID: env.taskID}
		cat, task, err := pick.resolve(ctx, env.app.Catalog)
		require.NoError(t, err)
		assert.Equal(t, "Coding", cat.Name)
		assert.Equal(t, env.taskID, task.ID)
	})

	t.Run("new task in existing category", func(t *testing.T) {
		pick := taskPick{CategoryID: env.categoryID, TaskID: newOption, NewTaskName: "Review"}
		cat, task, err := pick.resolve(ctx, env.app.Catalog)
		require.NoError(t, err)
		assert.Equal(t, env.categoryID, cat.ID)
		assert.Equal(t, "Review", task.Name)
	})

	t.Run("new category and task", func(t *testing.T) {
		pick := taskPick{CategoryID: newOption, NewCategoryName: "Music", NewTaskName: "Scales"}
		cat, task, err := pick.resolve(ctx, env.app.Catalog)
		require.NoError(t, err)
		assert.Equal(t, "Music", cat.Name)
		assert.Equal(t, cat.ID, task.CategoryID)
	})

	t.Run("nothing chosen", func(t *testing.T) {
		pick := taskPick{}
		_, _, err := pick.resolve(ctx, env.app.Catalog)
		assert.Error(t, err)
	})
}
