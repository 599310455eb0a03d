package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/focusbuddy/internal/aggregate"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/forecast"
	"github.com/alexanderramin/focusbuddy/internal/repository"
)

type statsService struct {
	sessions  repository.SessionRepo
	events    repository.EventRepo
	tasks     repository.TaskRepo
	reminders repository.ReminderRepo
}

func NewStatsService(
	sessions repository.SessionRepo,
	events repository.EventRepo,
	tasks repository.TaskRepo,
	reminders repository.ReminderRepo,
) StatsService {
	return &statsService{sessions: sessions, events: events, tasks: tasks, reminders: reminders}
}

func (s *statsService) Dashboard(ctx context.Context, f repository.SessionFilter) (*Dashboard, error) {
	sessions, err := s.sessions.List(ctx, f)
	if err != nil {
		return nil, err
	}
	d := &Dashboard{SessionCount: len(sessions)}
	if len(sessions) == 0 {
		return d, nil
	}

	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}
	bySession, err := s.events.ListBySessions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading dashboard events: %w", err)
	}

	var ratios, burnout, procrastinate, brk, blocks []float64
	for _, sess := range sessions {
		d.TotalNetMin += sess.NetFocusedMin
		d.AvgGrossMin += sess.GrossMin
		d.AvgBreakMin += sess.BreakMin
		d.AvgProcrastinationMin += sess.ProcrastinationMin
		d.AvgLongestBlockMin += sess.LongestFocusBlockMin
		d.AvgInterruptions += float64(sess.InterruptionCount)
		if sess.FocusRatio != nil {
			ratios = append(ratios, *sess.FocusRatio)
		}
		if sess.LongestFocusBlockMin > 0 {
			blocks = append(blocks, sess.LongestFocusBlockMin)
		}

		h := forecast.History{Session: sess, Events: bySession[sess.ID]}
		if v, ok := forecast.Extract(forecast.TargetTimeToBurnout, h); ok {
			burnout = append(burnout, v)
			d.BurnoutSessionCount++
		}
		if v, ok := forecast.Extract(forecast.TargetTimeToProcrastination, h); ok {
			procrastinate = append(procrastinate, v)
			d.ProcrastinationSessions++
		}
		if v, ok := forecast.Extract(forecast.TargetTimeToBreak, h); ok {
			brk = append(brk, v)
		}
	}

	n := float64(len(sessions))
	d.AvgNetMin = d.TotalNetMin / n
	d.AvgGrossMin /= n
	d.AvgBreakMin /= n
	d.AvgProcrastinationMin /= n
	d.AvgLongestBlockMin /= n
	d.AvgInterruptions /= n
	d.AvgFocusRatio = meanOrNil(ratios)
	d.AvgTimeToBurnout = meanOrNil(burnout)
	d.AvgTimeToProcrastinate = meanOrNil(procrastinate)
	d.AvgTimeToBreak = meanOrNil(brk)
	d.FocusBlocks = forecast.Histogram(blocks)
	return d, nil
}

func (s *statsService) Sessions(ctx context.Context, f repository.SessionFilter) ([]repository.SessionDetail, error) {
	return s.sessions.ListDetailed(ctx, f)
}

// Audit replays a session's log and compares it with the stored aggregates.
// An unfinished session has nothing stored yet and is always consistent.
func (s *statsService) Audit(ctx context.Context, sessionID string) (*Audit, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.GetByID(ctx, sess.TaskID)
	if err != nil {
		return nil, fmt.Errorf("loading task of session %s: %w", domain.DisplayID(sess.ID), err)
	}
	events, err := s.events.ListBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	offsets, err := s.events.FirstOffsets(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	reminders, err := s.reminders.ListBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	replayed := aggregate.Replay(events)
	return &Audit{
		Session:      sess,
		Task:         task,
		Events:       events,
		FirstOffsets: offsets,
		Reminders:    reminders,
		Replayed:     replayed,
		Consistent:   !sess.IsCompleted() || aggregate.Equal(sess.Aggregates, replayed.Aggregates),
	}, nil
}

func meanOrNil(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	m := forecast.Mean(values)
	return &m
}
