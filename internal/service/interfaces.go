package service

import (
	"context"
	"io"
	"time"

	"github.com/alexanderramin/focusbuddy/internal/aggregate"
	"github.com/alexanderramin/focusbuddy/internal/config"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/forecast"
	"github.com/alexanderramin/focusbuddy/internal/repository"
)

// ActiveSession is a snapshot of the tracker's single active slot.
type ActiveSession struct {
	Session domain.Session
	State   domain.SessionState
	// IntervalStart is set while a break or procrastination interval is open.
	IntervalStart *time.Time
}

// EndResult is what ending a session produced.
type EndResult struct {
	Session *domain.Session
	// Event is the appended work_end.
	Event *domain.Event
	// AutoClosed is the break_end or procrastination_end appended because an
	// interval was still open, nil otherwise.
	AutoClosed *domain.Event
	Anomalies  []aggregate.Anomaly
}

type TrackerService interface {
	Begin(ctx context.Context, taskID string) (*domain.Event, error)
	StartBreak(ctx context.Context) (*domain.Event, error)
	EndBreak(ctx context.Context) (*domain.Event, error)
	StartProcrastination(ctx context.Context) (*domain.Event, error)
	EndProcrastination(ctx context.Context) (*domain.Event, error)
	ResumeWorking(ctx context.Context) (*domain.Event, error)
	LogBurnout(ctx context.Context) (*domain.Event, error)
	End(ctx context.Context) (*EndResult, error)

	// Restore adopts the newest unfinished session from the store, if any.
	Restore(ctx context.Context) (domain.SessionState, error)

	State() domain.SessionState
	Active() (ActiveSession, bool)
	ElapsedMinutes() float64
	CurrentIntervalMinutes() float64

	// OnSessionEnd registers fn to run after a session has been finalized.
	OnSessionEnd(fn func(domain.Session))
}

// Scope narrows forecast history. The zero Scope means all sessions.
type Scope struct {
	CategoryID string
	TaskID     string
}

func (s Scope) IsGlobal() bool {
	return s.CategoryID == "" && s.TaskID == ""
}

// Prediction is a forecast result together with where it came from.
type Prediction struct {
	forecast.Result
	Target forecast.Target
	Scope  Scope
	// FellBack is set when the scoped history was insufficient and the
	// value was computed from all sessions instead.
	FellBack bool
}

// TrainingOutcome reports one target of a training run.
type TrainingOutcome struct {
	Target  forecast.Target
	Stats   forecast.Stats
	Method  forecast.Method
	Version int
}

func (o TrainingOutcome) Trained() bool {
	return o.Version > 0
}

type ForecastService interface {
	Predict(ctx context.Context, target forecast.Target, scope Scope) (Prediction, error)
	OptimalSessionLength(ctx context.Context, categoryID string) (float64, bool, error)
	BreakInsertionPoint(ctx context.Context, categoryID string) (float64, bool, error)
	SuggestedBreakLength(ctx context.Context, categoryID string) (float64, bool, error)
	HasEnoughData(ctx context.Context, categoryID string) (bool, error)
	TrainAll(ctx context.Context) ([]TrainingOutcome, error)
	LatestModels(ctx context.Context) ([]*domain.ModelVersion, error)
	Invalidate()
	SetConfig(cfg config.ForecastConfig)
}

type CatalogService interface {
	EnsureCategory(ctx context.Context, name string) (*domain.Category, error)
	EnsureTask(ctx context.Context, categoryID, name string) (*domain.Task, error)
	// Resolve gets or creates both the category and the task in one transaction.
	Resolve(ctx context.Context, categoryName, taskName string) (*domain.Category, *domain.Task, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	GetTask(ctx context.Context, id string) (*domain.Task, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	ListTasks(ctx context.Context, categoryID string) ([]*domain.Task, error)
	Search(ctx context.Context, query string) ([]*domain.Category, []*domain.Task, error)
}

// Dashboard summarizes completed sessions matching a filter.
type Dashboard struct {
	SessionCount            int
	TotalNetMin             float64
	AvgGrossMin             float64
	AvgNetMin               float64
	AvgBreakMin             float64
	AvgProcrastinationMin   float64
	AvgLongestBlockMin      float64
	AvgInterruptions        float64
	AvgFocusRatio           *float64
	AvgTimeToBurnout        *float64
	AvgTimeToProcrastinate  *float64
	AvgTimeToBreak          *float64
	BurnoutSessionCount     int
	ProcrastinationSessions int
	// FocusBlocks buckets each session's longest focus block.
	FocusBlocks []forecast.Bin
}

// Audit compares a session's stored aggregates with a fresh replay.
type Audit struct {
	Session *domain.Session
	Task    *domain.Task
	Events  []domain.Event
	// FirstOffsets is the minutes from session start to the first event of each kind.
	FirstOffsets map[domain.EventKind]float64
	Reminders    []*domain.ReminderLog
	Replayed     aggregate.Result
	Consistent   bool
}

type StatsService interface {
	Dashboard(ctx context.Context, f repository.SessionFilter) (*Dashboard, error)
	Sessions(ctx context.Context, f repository.SessionFilter) ([]repository.SessionDetail, error)
	Audit(ctx context.Context, sessionID string) (*Audit, error)
}

type DataService interface {
	ExportCSV(ctx context.Context, w io.Writer, f repository.SessionFilter) (int, error)
	DeleteSession(ctx context.Context, id string) error
	Prune(ctx context.Context, from, to *time.Time) (int64, error)
	ResetAll(ctx context.Context) error
}

// Prompt is a reminder shown to the user while a session is active.
type Prompt struct {
	ID         string
	Kind       domain.ReminderKind
	SessionID  string
	Message    string
	At         time.Time
	ElapsedMin float64
}

type ReminderService interface {
	// Sync stops every timer that does not match state and starts the one that does.
	Sync(ctx context.Context, state domain.SessionState)
	Respond(ctx context.Context, reminderID string, resp domain.ReminderResponse) error
	SetConfig(ctx context.Context, cfg config.ReminderConfig)
	Stop()
}
