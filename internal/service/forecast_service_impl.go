package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/alexanderramin/focusbuddy/internal/config"
	"github.com/alexanderramin/focusbuddy/internal/db"
	"github.com/alexanderramin/focusbuddy/internal/domain"
	"github.com/alexanderramin/focusbuddy/internal/forecast"
	"github.com/alexanderramin/focusbuddy/internal/repository"
)

const (
	// DefaultFocusRatio is assumed when no scoped session has a positive ratio.
	DefaultFocusRatio = 0.85
	// BreakLeadFactor schedules the break slightly before the typical focus block ends.
	BreakLeadFactor = 0.9

	breakHistoryLimit = 100
)

type cacheKey struct {
	target forecast.Target
	scope  Scope
}

type forecastService struct {
	sessions repository.SessionRepo
	events   repository.EventRepo
	models   repository.ModelVersionRepo
	uow      db.UnitOfWork
	opts     options

	mu         sync.Mutex
	cfg        config.ForecastConfig
	cache      map[cacheKey]Prediction
	generation uint64
}

func NewForecastService(
	sessions repository.SessionRepo,
	events repository.EventRepo,
	models repository.ModelVersionRepo,
	uow db.UnitOfWork,
	cfg config.ForecastConfig,
	opts ...Option,
) ForecastService {
	return &forecastService{
		sessions: sessions,
		events:   events,
		models:   models,
		uow:      uow,
		opts:     buildOptions(opts),
		cfg:      cfg,
		cache:    make(map[cacheKey]Prediction),
	}
}

// Predict forecasts target for scope. Only available predictions are cached,
// so a scope that lacks data is re-evaluated on every call.
func (s *forecastService) Predict(ctx context.Context, target forecast.Target, scope Scope) (Prediction, error) {
	if _, err := forecast.ParseTarget(string(target)); err != nil {
		return Prediction{}, err
	}
	key := cacheKey{target: target, scope: scope}

	s.mu.Lock()
	if p, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return p, nil
	}
	gen := s.generation
	limit := s.cfg.HistoryLimit
	s.mu.Unlock()

	pred, err := s.compute(ctx, target, scope, limit)
	if err != nil {
		return Prediction{}, err
	}
	if m := s.opts.metrics; m != nil {
		m.Predictions.WithLabelValues(string(target), string(pred.Method)).Inc()
	}

	if pred.Available() {
		s.mu.Lock()
		if s.generation == gen {
			s.cache[key] = pred
		}
		s.mu.Unlock()
	}
	return pred, nil
}

func (s *forecastService) compute(ctx context.Context, target forecast.Target, scope Scope, limit int) (Prediction, error) {
	hist, err := s.history(ctx, scope, limit)
	if err != nil {
		return Prediction{}, err
	}
	pred := Prediction{
		Result: forecast.Predict(forecast.Samples(target, hist)),
		Target: target,
		Scope:  scope,
	}
	if pred.Available() || scope.IsGlobal() {
		return pred, nil
	}

	hist, err = s.history(ctx, Scope{}, limit)
	if err != nil {
		return Prediction{}, err
	}
	if global := forecast.Predict(forecast.Samples(target, hist)); global.Available() {
		pred.Result = global
		pred.FellBack = true
	}
	return pred, nil
}

// history loads the most recent completed sessions in scope, oldest first,
// with their events.
func (s *forecastService) history(ctx context.Context, scope Scope, limit int) ([]forecast.History, error) {
	sessions, err := s.sessions.List(ctx, repository.SessionFilter{
		TaskID:     scope.TaskID,
		CategoryID: scope.CategoryID,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("loading forecast history: %w", err)
	}
	slices.Reverse(sessions)

	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}
	bySession, err := s.events.ListBySessions(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading forecast history: %w", err)
	}

	out := make([]forecast.History, len(sessions))
	for i, sess := range sessions {
		out[i] = forecast.History{Session: sess, Events: bySession[sess.ID]}
	}
	return out, nil
}

// OptimalSessionLength is the gross length expected to yield the predicted net
// focused time, given the typical focus ratio.
func (s *forecastService) OptimalSessionLength(ctx context.Context, categoryID string) (float64, bool, error) {
	pred, err := s.Predict(ctx, forecast.TargetNetFocusedTime, Scope{CategoryID: categoryID})
	if err != nil || !pred.Available() {
		return 0, false, err
	}

	s.mu.Lock()
	window := s.cfg.RatioWindow
	s.mu.Unlock()

	sessions, err := s.sessions.List(ctx, repository.SessionFilter{CategoryID: categoryID, Limit: window})
	if err != nil {
		return 0, false, err
	}
	var ratios []float64
	for _, sess := range sessions {
		if sess.FocusRatio != nil && *sess.FocusRatio > 0 {
			ratios = append(ratios, *sess.FocusRatio)
		}
	}
	ratio := DefaultFocusRatio
	if len(ratios) > 0 {
		ratio = forecast.Mean(ratios)
	}
	if ratio <= 0 {
		return 0, false, nil
	}
	return pred.Value / ratio, true, nil
}

func (s *forecastService) BreakInsertionPoint(ctx context.Context, categoryID string) (float64, bool, error) {
	scope := Scope{CategoryID: categoryID}
	block, err := s.Predict(ctx, forecast.TargetFocusBlockLength, scope)
	if err != nil {
		return 0, false, err
	}
	if block.Available() {
		return block.Value * BreakLeadFactor, true, nil
	}

	first, err := s.Predict(ctx, forecast.TargetTimeToFirstInterruption, scope)
	if err != nil || !first.Available() {
		return 0, false, err
	}
	return first.Value, true, nil
}

// SuggestedBreakLength averages the per-interruption break length of recent
// sessions. A category with no sessions at all falls back to every session.
func (s *forecastService) SuggestedBreakLength(ctx context.Context, categoryID string) (float64, bool, error) {
	sessions, err := s.sessions.List(ctx, repository.SessionFilter{CategoryID: categoryID, Limit: breakHistoryLimit})
	if err != nil {
		return 0, false, err
	}
	if len(sessions) == 0 && categoryID != "" {
		sessions, err = s.sessions.List(ctx, repository.SessionFilter{Limit: breakHistoryLimit})
		if err != nil {
			return 0, false, err
		}
	}

	var lengths []float64
	for _, sess := range sessions {
		if sess.BreakMin > 0 && sess.InterruptionCount >= 1 {
			lengths = append(lengths, sess.BreakMin/float64(max(sess.InterruptionCount, 1)))
		}
	}
	if len(lengths) < forecast.MinSamplesForAverage {
		return 0, false, nil
	}
	return forecast.Mean(lengths), true, nil
}

func (s *forecastService) HasEnoughData(ctx context.Context, categoryID string) (bool, error) {
	n, err := s.sessions.CountCompleted(ctx, repository.SessionFilter{CategoryID: categoryID})
	if err != nil {
		return false, err
	}
	return n >= forecast.MinSamplesForAverage, nil
}

// TrainAll records a new model version for every target with enough samples.
// The versions are an audit trail; predictions are always computed from history.
func (s *forecastService) TrainAll(ctx context.Context) (outcomes []TrainingOutcome, err error) {
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() { s.opts.observe(ctx, "train-all", startedAt, fields, err) }()

	s.mu.Lock()
	limit := s.cfg.TrainLimit
	s.mu.Unlock()

	hist, err := s.history(ctx, Scope{}, limit)
	if err != nil {
		return nil, err
	}
	fields["sessions"] = len(hist)

	now := s.opts.now()
	outcomes = make([]TrainingOutcome, 0, len(forecast.Targets))
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		txModels := repository.NewSQLiteModelVersionRepo(tx)
		for _, target := range forecast.Targets {
			samples := forecast.Samples(target, hist)
			stats := forecast.Describe(samples)
			outcome := TrainingOutcome{Target: target, Stats: stats, Method: forecast.Predict(samples).Method}
			if len(samples) >= forecast.MinSamplesForAverage {
				mv := &domain.ModelVersion{
					ID:        uuid.New().String(),
					Target:    string(target),
					TrainedAt: now,
					Stats: domain.TrainingStats{
						SampleCount: stats.Count,
						Mean:        stats.Mean,
						Std:         stats.Std,
						Values:      samples,
					},
				}
				if err := txModels.SaveNext(ctx, mv); err != nil {
					return fmt.Errorf("saving %s model: %w", target, err)
				}
				outcome.Version = mv.Version
			}
			outcomes = append(outcomes, outcome)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	trained := 0
	for _, o := range outcomes {
		if o.Trained() {
			trained++
		}
	}
	fields["trained"] = trained
	s.opts.logger.Info("training run complete", zap.Int("sessions", len(hist)), zap.Int("trained_targets", trained))
	s.Invalidate()
	return outcomes, nil
}

func (s *forecastService) LatestModels(ctx context.Context) ([]*domain.ModelVersion, error) {
	return s.models.ListLatest(ctx)
}

func (s *forecastService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	clear(s.cache)
}

// SetConfig applies reloaded limits and drops predictions computed under the old ones.
func (s *forecastService) SetConfig(cfg config.ForecastConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.Invalidate()
}
