package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexanderramin/focusbuddy/internal/config"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/forecast"
	"github.com/alexanderramin/focusbuddy/internal/reminder"
	"github.com/alexanderramin/focusbuddy/internal/repository"
)

const reminderWriteTimeout = 5 * time.Second

// reminderFor maps each active state to the reminder that runs during it.
var reminderFor = map[domain.SessionState]domain.ReminderKind{
	domain.StateWorking:         domain.ReminderBurnoutCheck,
	domain.StateProcrastinating: domain.ReminderProcrastinationNudge,
	domain.StateOnBreak:         domain.ReminderBreakElapsed,
}

type reminderService struct {
	tracker   TrackerService
	forecast  ForecastService
	reminders repository.ReminderRepo
	notify    func(Prompt)
	opts      options

	mu     sync.Mutex
	cfg    config.ReminderConfig
	state  domain.SessionState
	timers map[domain.ReminderKind]*reminder.Timer
}

// NewReminderService schedules proactive prompts for the tracker's active session.
// notify is called from a timer goroutine; it must not call back into the
// reminder service.
func NewReminderService(
	tracker TrackerService,
	forecast ForecastService,
	reminders repository.ReminderRepo,
	cfg config.ReminderConfig,
	notify func(Prompt),
	opts ...Option,
) ReminderService {
	if notify == nil {
		notify = func(Prompt) {}
	}
	s := &reminderService{
		tracker:   tracker,
		forecast:  forecast,
		reminders: reminders,
		notify:    notify,
		opts:      buildOptions(opts),
		cfg:       cfg,
		state:     domain.StateIdle,
		timers:    make(map[domain.ReminderKind]*reminder.Timer, len(reminderFor)),
	}
	for _, kind := range reminderFor {
		s.timers[kind] = &reminder.Timer{}
	}
	return s
}

func (s *reminderService) Sync(ctx context.Context, state domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked(ctx, state)
}

func (s *reminderService) syncLocked(ctx context.Context, state domain.SessionState) {
	s.state = state
	want, active := reminderFor[state]
	for kind, t := range s.timers {
		if !active || kind != want {
			t.Stop()
		}
	}
	if !active || s.cfg.Disabled {
		return
	}

	t := s.timers[want]
	if t.Running() {
		return
	}
	interval := s.interval(ctx, want)
	if interval <= 0 {
		return
	}
	t.Start(interval, s.fire(want, state))
	s.opts.logger.Debug("reminder scheduled",
		zap.String("kind", string(want)), zap.Duration("interval", interval))
}

// interval picks the cadence of kind. The burnout check follows the predicted
// time to burnout for the active task when one is available.
func (s *reminderService) interval(ctx context.Context, kind domain.ReminderKind) time.Duration {
	switch kind {
	case domain.ReminderBurnoutCheck:
		if active, ok := s.tracker.Active(); ok && s.forecast != nil {
			pred, err := s.forecast.Predict(ctx, forecast.TargetTimeToBurnout, Scope{TaskID: active.Session.TaskID})
			if err != nil {
				s.opts.logger.Warn("predicting burnout interval", zap.Error(err))
			} else if pred.Available() && pred.Value > 0 {
				return time.Duration(pred.Value * float64(time.Minute))
			}
		}
		return s.cfg.BurnoutCheck
	case domain.ReminderProcrastinationNudge:
		return s.cfg.ProcrastinationNudge
	case domain.ReminderBreakElapsed:
		return s.cfg.BreakElapsed
	}
	return 0
}

// fire builds the timer callback. It only reads tracker state, records the
// prompt and notifies; a state change since scheduling stops the timer.
func (s *reminderService) fire(kind domain.ReminderKind, state domain.SessionState) reminder.Func {
	return func() bool {
		active, ok := s.tracker.Active()
		if !ok || active.State != state {
			return false
		}

		elapsed := s.tracker.CurrentIntervalMinutes()
		if kind == domain.ReminderBurnoutCheck {
			elapsed = s.tracker.ElapsedMinutes()
		}
		log := &domain.ReminderLog{
			ID:         uuid.New().String(),
			SessionID:  active.Session.ID,
			Kind:       kind,
			PromptedAt: s.opts.now(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), reminderWriteTimeout)
		defer cancel()
		if err := s.reminders.Create(ctx, log); err != nil {
			s.opts.logger.Error("recording reminder", zap.String("kind", string(kind)), zap.Error(err))
			return true
		}
		if m := s.opts.metrics; m != nil {
			m.Reminders.WithLabelValues(string(kind)).Inc()
		}
		s.opts.logger.Info("reminder prompted",
			zap.String("kind", string(kind)), zap.Float64("elapsed_min", elapsed))

		s.notify(Prompt{
			ID:         log.ID,
			Kind:       kind,
			SessionID:  log.SessionID,
			Message:    PromptMessage(kind, elapsed),
			At:         log.PromptedAt,
			ElapsedMin: elapsed,
		})
		return true
	}
}

// PromptMessage is the text shown for a reminder of kind after elapsed minutes.
func PromptMessage(kind domain.ReminderKind, elapsed float64) string {
	switch kind {
	case domain.ReminderBurnoutCheck:
		return fmt.Sprintf("You've been at it for %.0f minutes. Feeling burnt out?", elapsed)
	case domain.ReminderProcrastinationNudge:
		return fmt.Sprintf("Procrastinating for %.0f minutes. Ready to get back to work?", elapsed)
	case domain.ReminderBreakElapsed:
		return fmt.Sprintf("Your break has lasted %.0f minutes.", elapsed)
	}
	return string(kind)
}

func (s *reminderService) Respond(ctx context.Context, reminderID string, resp domain.ReminderResponse) (err error) {
	startedAt := time.Now()
	defer func() {
		s.opts.observe(ctx, "reminder-respond", startedAt, map[string]any{"response": string(resp)}, err)
	}()

	if !domain.ValidReminderResponses[string(resp)] {
		return fmt.Errorf("%q: %w", resp, domain.ErrInvalidResponse)
	}
	if err := s.reminders.Respond(ctx, reminderID, resp, s.opts.now()); err != nil {
		return err
	}
	if m := s.opts.metrics; m != nil {
		m.ReminderResponses.WithLabelValues(string(resp)).Inc()
	}
	return nil
}

// SetConfig applies reloaded intervals, rescheduling the running reminder.
func (s *reminderService) SetConfig(ctx context.Context, cfg config.ReminderConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	for _, t := range s.timers {
		t.Stop()
	}
	s.syncLocked(ctx, s.state)
}

func (s *reminderService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		t.Stop()
	}
}
