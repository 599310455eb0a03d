package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alexanderramin/focusbuddy/internal/metrics"
)

// UseCaseEvent captures lightweight execution telemetry for a service use case.
type UseCaseEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// UseCaseObserver receives use-case execution events.
type UseCaseObserver interface {
	ObserveUseCase(ctx context.Context, event UseCaseEvent)
}

// NoopUseCaseObserver ignores all events.
type NoopUseCaseObserver struct{}

func (NoopUseCaseObserver) ObserveUseCase(context.Context, UseCaseEvent) {}

type zapUseCaseObserver struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewZapUseCaseObserver logs service use-case events and, when m is non-nil,
// records their latency.
func NewZapUseCaseObserver(logger *zap.Logger, m *metrics.Metrics) UseCaseObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapUseCaseObserver{logger: logger, metrics: m}
}

func (o *zapUseCaseObserver) ObserveUseCase(_ context.Context, event UseCaseEvent) {
	if o.metrics != nil {
		o.metrics.RecordResult(event.Name, event.Duration.Seconds(), event.Success)
	}

	fields := make([]zap.Field, 0, 3+len(event.Fields))
	fields = append(fields,
		zap.String("use_case", event.Name),
		zap.Duration("duration", event.Duration),
		zap.Bool("success", event.Success),
	)
	for k, v := range event.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	if event.Err != nil {
		o.logger.Warn("service_use_case", append(fields, zap.Error(event.Err))...)
		return
	}
	o.logger.Info("service_use_case", fields...)
}

// Option configures the ambient collaborators shared by every service.
type Option func(*options)

type options struct {
	now      func() time.Time
	logger   *zap.Logger
	metrics  *metrics.Metrics
	observer UseCaseObserver
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithObserver(obs UseCaseObserver) Option {
	return func(o *options) { o.observer = obs }
}

func buildOptions(opts []Option) options {
	o := options{
		now:      func() time.Time { return time.Now().UTC() },
		logger:   zap.NewNop(),
		observer: NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.observer == nil {
		o.observer = NoopUseCaseObserver{}
	}
	return o
}

func (o options) observe(ctx context.Context, name string, startedAt time.Time, fields map[string]any, err error) {
	o.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
	})
}
