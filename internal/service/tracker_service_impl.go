package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexanderramin/focusbuddy/internal/aggregate"
	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/repository"
)

var nonIdle = []domain.SessionState{domain.StateWorking, domain.StateOnBreak, domain.StateProcrastinating}

// transition is one row of the tracker's state table.
type transition struct {
	action string
	from   []domain.SessionState
	kind   domain.EventKind
}

var (
	startBreak = transition{"start break", []domain.SessionState{domain.StateWorking}, domain.EventBreakStart}
	endBreak   = transition{"end break", []domain.SessionState{domain.StateOnBreak}, domain.EventBreakEnd}
	startProc  = transition{"start procrastination", []domain.SessionState{domain.StateWorking}, domain.EventProcrastinationStart}
	endProc    = transition{"end procrastination", []domain.SessionState{domain.StateProcrastinating}, domain.EventProcrastinationEnd}
	burnout    = transition{"log burnout", nonIdle, domain.EventBurnout}
)

type trackerService struct {
	sessions repository.SessionRepo
	events   repository.EventRepo
	uow      db.UnitOfWork
	opts     options

	mu            sync.Mutex
	state         domain.SessionState
	session       *domain.Session
	intervalStart *time.Time
	endHooks      []func(domain.Session)
}

// NewTrackerService returns an idle tracker. Callers should Restore it before use
// so an unfinished session from a previous process is adopted.
func NewTrackerService(sessions repository.SessionRepo, events repository.EventRepo, uow db.UnitOfWork, opts ...Option) TrackerService {
	return &trackerService{
		sessions: sessions,
		events:   events,
		uow:      uow,
		opts:     buildOptions(opts),
		state:    domain.StateIdle,
	}
}

func (s *trackerService) Begin(ctx context.Context, taskID string) (evt *domain.Event, err error) {
	startedAt := time.Now()
	fields := map[string]any{"task_id": taskID}
	defer func() { s.opts.observe(ctx, "begin-session", startedAt, fields, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return nil, &domain.TransitionError{
			Action:   "begin session",
			Current:  s.state,
			Required: []domain.SessionState{domain.StateIdle},
			Cause:    domain.ErrSessionActive,
		}
	}

	now := s.opts.now()
	session := &domain.Session{ID: uuid.New().String(), TaskID: taskID, StartedAt: now}
	evt = newEvent(session.ID, domain.EventWorkStart, now)

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if _, err := repository.NewSQLiteTaskRepo(tx).GetByID(ctx, taskID); err != nil {
			return fmt.Errorf("beginning session: %w", err)
		}

		txSessions := repository.NewSQLiteSessionRepo(tx)
		open, err := txSessions.GetActive(ctx)
		switch {
		case err == nil:
			return &domain.TransitionError{
				Action:   "begin session",
				Current:  domain.StateWorking,
				Required: []domain.SessionState{domain.StateIdle},
				Cause:    fmt.Errorf("session %s is still open: %w", domain.DisplayID(open.ID), domain.ErrSessionActive),
			}
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}

		if err := txSessions.Create(ctx, session); err != nil {
			return err
		}
		return repository.NewSQLiteEventRepo(tx).Append(ctx, evt)
	})
	if err != nil {
		return nil, err
	}

	s.session = session
	s.state = domain.StateWorking
	s.intervalStart = nil
	fields["session_id"] = session.ID
	if m := s.opts.metrics; m != nil {
		m.Transitions.WithLabelValues(string(evt.Kind)).Inc()
		m.ActiveSession.Set(1)
	}
	return evt, nil
}

func (s *trackerService) StartBreak(ctx context.Context) (*domain.Event, error) {
	return s.apply(ctx, startBreak)
}

func (s *trackerService) EndBreak(ctx context.Context) (*domain.Event, error) {
	return s.apply(ctx, endBreak)
}

func (s *trackerService) StartProcrastination(ctx context.Context) (*domain.Event, error) {
	return s.apply(ctx, startProc)
}

func (s *trackerService) EndProcrastination(ctx context.Context) (*domain.Event, error) {
	return s.apply(ctx, endProc)
}

func (s *trackerService) LogBurnout(ctx context.Context) (*domain.Event, error) {
	return s.apply(ctx, burnout)
}

// ResumeWorking closes whichever interruption is open.
func (s *trackerService) ResumeWorking(ctx context.Context) (*domain.Event, error) {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case domain.StateProcrastinating:
		return s.apply(ctx, endProc)
	case domain.StateOnBreak:
		return s.apply(ctx, endBreak)
	}
	return s.apply(ctx, transition{
		action: "resume working",
		from:   []domain.SessionState{domain.StateOnBreak, domain.StateProcrastinating},
	})
}

// apply validates tr against the current state and appends its event.
// The in-memory state only changes once the event is stored.
func (s *trackerService) apply(ctx context.Context, tr transition) (evt *domain.Event, err error) {
	startedAt := time.Now()
	fields := map[string]any{"action": tr.action}
	defer func() { s.opts.observe(ctx, "transition", startedAt, fields, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check(tr.action, tr.from); err != nil {
		return nil, err
	}

	evt = newEvent(s.session.ID, tr.kind, s.opts.now())
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteEventRepo(tx).Append(ctx, evt)
	})
	if err != nil {
		return nil, err
	}

	fields["session_id"] = s.session.ID
	fields["kind"] = string(evt.Kind)
	s.advance(evt)
	return evt, nil
}

// check must be called with mu held.
func (s *trackerService) check(action string, from []domain.SessionState) error {
	if s.session == nil {
		return &domain.TransitionError{
			Action:   action,
			Current:  domain.StateIdle,
			Required: from,
			Cause:    domain.ErrNoActiveSession,
		}
	}
	for _, st := range from {
		if st == s.state {
			return nil
		}
	}
	return &domain.TransitionError{Action: action, Current: s.state, Required: from}
}

// advance must be called with mu held.
func (s *trackerService) advance(evt *domain.Event) {
	s.state = evt.Kind.Next(s.state)
	switch evt.Kind {
	case domain.EventBreakStart, domain.EventProcrastinationStart:
		at := evt.At
		s.intervalStart = &at
	case domain.EventBreakEnd, domain.EventProcrastinationEnd, domain.EventWorkEnd:
		s.intervalStart = nil
	case domain.EventWorkStart, domain.EventBurnout:
	}
	if m := s.opts.metrics; m != nil {
		m.Transitions.WithLabelValues(string(evt.Kind)).Inc()
	}
}

func (s *trackerService) End(ctx context.Context) (*EndResult, error) {
	res, hooks, err := s.end(ctx)
	if err != nil {
		return nil, err
	}
	for _, fn := range hooks {
		fn(*res.Session)
	}
	// Reported last: DPanic panics in development mode and the hooks must
	// already have seen the finalized session.
	s.reportAnomalies(res)
	return res, nil
}

func (s *trackerService) reportAnomalies(res *EndResult) {
	for _, a := range res.Anomalies {
		s.opts.logger.DPanic("tolerated malformed event during replay",
			zap.String("session_id", res.Session.ID),
			zap.String("event_id", a.Event.ID),
			zap.String("kind", string(a.Event.Kind)),
			zap.String("reason", a.Reason),
		)
	}
}

func (s *trackerService) end(ctx context.Context) (res *EndResult, hooks []func(domain.Session), err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() { s.opts.observe(ctx, "end-session", startedAt, fields, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.check("end session", nonIdle); err != nil {
		return nil, nil, err
	}

	now := s.opts.now()
	finalized := *s.session
	res = &EndResult{Session: &finalized}

	var closing domain.EventKind
	switch s.state {
	case domain.StateOnBreak:
		closing = domain.EventBreakEnd
	case domain.StateProcrastinating:
		closing = domain.EventProcrastinationEnd
	case domain.StateWorking, domain.StateIdle:
	}

	var replay aggregate.Result
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txEvents := repository.NewSQLiteEventRepo(tx)
		if closing != "" {
			res.AutoClosed = newEvent(finalized.ID, closing, now)
			if err := txEvents.Append(ctx, res.AutoClosed); err != nil {
				return fmt.Errorf("closing open interval: %w", err)
			}
		}
		res.Event = newEvent(finalized.ID, domain.EventWorkEnd, now)
		if err := txEvents.Append(ctx, res.Event); err != nil {
			return err
		}

		events, err := txEvents.ListBySession(ctx, finalized.ID)
		if err != nil {
			return err
		}
		replay = aggregate.Replay(events)
		finalized.Finalize(now, replay.Aggregates)
		return repository.NewSQLiteSessionRepo(tx).Finalize(ctx, &finalized)
	})
	if err != nil {
		return nil, nil, err
	}

	if res.AutoClosed != nil {
		s.advance(res.AutoClosed)
	}
	s.advance(res.Event)
	s.session = nil
	s.intervalStart = nil
	res.Anomalies = replay.Anomalies

	fields["session_id"] = finalized.ID
	fields["net_focused_min"] = finalized.NetFocusedMin
	if m := s.opts.metrics; m != nil {
		m.ActiveSession.Set(0)
		m.SessionNetMinutes.Observe(finalized.NetFocusedMin)
		m.Anomalies.Add(float64(len(replay.Anomalies)))
	}
	hooks = append(hooks, s.endHooks...)
	return res, hooks, nil
}

func (s *trackerService) Restore(ctx context.Context) (domain.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		return s.state, nil
	}

	open, err := s.sessions.GetActive(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.StateIdle, nil
	}
	if err != nil {
		return domain.StateIdle, fmt.Errorf("restoring session: %w", err)
	}

	events, err := s.events.ListBySession(ctx, open.ID)
	if err != nil {
		return domain.StateIdle, fmt.Errorf("restoring session: %w", err)
	}
	state := aggregate.StateAfter(events)
	if state == domain.StateIdle {
		s.opts.logger.Warn("unfinished session has no open work period, not restoring",
			zap.String("session_id", open.ID), zap.Int("events", len(events)))
		return domain.StateIdle, nil
	}

	s.session = open
	s.state = state
	s.intervalStart = nil
	if _, at, ok := aggregate.OpenInterval(events); ok {
		s.intervalStart = &at
	}
	if m := s.opts.metrics; m != nil {
		m.ActiveSession.Set(1)
	}
	s.opts.logger.Info("restored active session",
		zap.String("session_id", open.ID), zap.String("state", string(state)))
	return state, nil
}

func (s *trackerService) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *trackerService) Active() (ActiveSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ActiveSession{State: domain.StateIdle}, false
	}
	snap := ActiveSession{Session: *s.session, State: s.state}
	if s.intervalStart != nil {
		at := *s.intervalStart
		snap.IntervalStart = &at
	}
	return snap, true
}

func (s *trackerService) ElapsedMinutes() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return 0
	}
	return s.opts.now().Sub(s.session.StartedAt).Minutes()
}

func (s *trackerService) CurrentIntervalMinutes() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil || s.intervalStart == nil {
		return 0
	}
	return s.opts.now().Sub(*s.intervalStart).Minutes()
}

func (s *trackerService) OnSessionEnd(fn func(domain.Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.endHooks = append(s.endHooks, fn)
}

func newEvent(sessionID string, kind domain.EventKind, at time.Time) *domain.Event {
	return &domain.Event{ID: uuid.New().String(), SessionID: sessionID, Kind: kind, At: at}
}
