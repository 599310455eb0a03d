package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEvent(sessionID string, kind domain.EventKind, minute float64) *domain.Event {
	return &domain.Event{ID: uuid.New().String(), SessionID: sessionID, Kind: kind, At: testutil.At(minute)}
}

func TestEventRepo_AppendAssignsSeqAndOrdersTies(t *testing.T) {
	database, sessions, _, taskID := sessionTestSetup(t)
	events := NewSQLiteEventRepo(database)
	ctx := context.Background()

	s := testutil.NewTestSession(taskID)
	require.NoError(t, sessions.Create(ctx, s))

	steps := []*domain.Event{
		newEvent(s.ID, domain.EventWorkStart, 0),
		newEvent(s.ID, domain.EventBreakStart, 20),
		// Auto-close and work_end share a timestamp.
		newEvent(s.ID, domain.EventBreakEnd, 30),
		newEvent(s.ID, domain.EventWorkEnd, 30),
	}
	for i, e := range steps {
		require.NoError(t, events.Append(ctx, e))
		assert.Equal(t, i+1, e.Seq)
	}

	got, err := events.ListBySession(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got, 4)
	kinds := make([]domain.EventKind, len(got))
	for i, e := range got {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []domain.EventKind{
		domain.EventWorkStart, domain.EventBreakStart, domain.EventBreakEnd, domain.EventWorkEnd,
	}, kinds)
	assert.True(t, testutil.At(20).Equal(got[1].At))
}

func TestEventRepo_SeqIsPerSession(t *testing.T) {
	database, sessions, _, taskID := sessionTestSetup(t)
	events := NewSQLiteEventRepo(database)
	ctx := context.Background()

	a := testutil.NewTestSession(taskID)
	b := testutil.NewTestSession(taskID)
	require.NoError(t, sessions.Create(ctx, a))
	require.NoError(t, sessions.Create(ctx, b))

	ea := newEvent(a.ID, domain.EventWorkStart, 0)
	eb := newEvent(b.ID, domain.EventWorkStart, 0)
	require.NoError(t, events.Append(ctx, ea))
	require.NoError(t, events.Append(ctx, eb))
	assert.Equal(t, 1, ea.Seq)
	assert.Equal(t, 1, eb.Seq)
}

func TestEventRepo_AppendUnknownSessionFails(t *testing.T) {
	database, _, _, _ := sessionTestSetup(t)
	err := NewSQLiteEventRepo(database).Append(context.Background(), newEvent("missing", domain.EventWorkStart, 0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inserting event")
}

func TestEventRepo_ListBySessions(t *testing.T) {
	database, _, _, taskID := sessionTestSetup(t)
	events := NewSQLiteEventRepo(database)

	a := testutil.SeedCompletedSession(t, database, taskID, testutil.At(0), testutil.Work(30))
	b := testutil.SeedCompletedSession(t, database, taskID, testutil.At(60), []testutil.Step{
		{Kind: domain.EventWorkStart, Minute: 0},
		{Kind: domain.EventBurnout, Minute: 15},
		{Kind: domain.EventWorkEnd, Minute: 20},
	})

	grouped, err := events.ListBySessions(context.Background(), []string{a.ID, b.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, grouped[a.ID], 2)
	require.Len(t, grouped[b.ID], 3)
	assert.Equal(t, domain.EventBurnout, grouped[b.ID][1].Kind)
	assert.Empty(t, grouped["missing"])

	empty, err := events.ListBySessions(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEventRepo_ListBySessionsBeyondVariableLimit(t *testing.T) {
	database, _, _, taskID := sessionTestSetup(t)
	events := NewSQLiteEventRepo(database)
	s := testutil.SeedCompletedSession(t, database, taskID, testutil.At(0), testutil.Work(30))

	// More IDs than SQLite binds in one statement, with the real one last.
	ids := make([]string, 0, 40000)
	for i := range 40000 - 1 {
		ids = append(ids, fmt.Sprintf("missing-%d", i))
	}
	ids = append(ids, s.ID)

	grouped, err := events.ListBySessions(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	assert.Len(t, grouped[s.ID], 2)
}

func TestEventRepo_FirstOffsets(t *testing.T) {
	database, _, _, taskID := sessionTestSetup(t)
	s := testutil.SeedCompletedSession(t, database, taskID, testutil.At(0), []testutil.Step{
		{Kind: domain.EventWorkStart, Minute: 0},
		{Kind: domain.EventBreakStart, Minute: 12},
		{Kind: domain.EventBreakEnd, Minute: 17},
		{Kind: domain.EventBreakStart, Minute: 30},
		{Kind: domain.EventBreakEnd, Minute: 35},
		{Kind: domain.EventWorkEnd, Minute: 50},
	})

	offsets, err := NewSQLiteEventRepo(database).FirstOffsets(context.Background(), s.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, offsets[domain.EventWorkStart], 1e-9)
	assert.InDelta(t, 12.0, offsets[domain.EventBreakStart], 1e-9)
	assert.InDelta(t, 17.0, offsets[domain.EventBreakEnd], 1e-9)
	_, hasBurnout := offsets[domain.EventBurnout]
	assert.False(t, hasBurnout)
}
