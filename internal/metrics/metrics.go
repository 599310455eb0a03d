// Package metrics provides the Prometheus collectors for tracker, forecast
// and reminder activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "focusbuddy"

// Metrics owns a private registry so tests and multiple instances never collide.
type Metrics struct {
	registry *prometheus.Registry

	// Transitions counts appended events.
	// Labels: kind (work_start, break_start, ...)
	Transitions *prometheus.CounterVec

	// Anomalies counts tolerated malformed events found during replay.
	Anomalies prometheus.Counter

	// ActiveSession is 1 while a session is open, else 0.
	ActiveSession prometheus.Gauge

	// SessionNetMinutes observes net focused minutes of each ended session.
	SessionNetMinutes prometheus.Histogram

	// Predictions counts forecast lookups.
	// Labels: target, method (regression, ema, insufficient_data)
	Predictions *prometheus.CounterVec

	// Reminders counts prompts shown. Labels: kind
	Reminders *prometheus.CounterVec

	// ReminderResponses counts answers. Labels: response
	ReminderResponses *prometheus.CounterVec

	// UseCaseDuration observes service use-case latency.
	// Labels: use_case, result (success, error)
	UseCaseDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Total number of session events appended by kind",
		}, []string{"kind"}),
		Anomalies: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replay_anomalies_total",
			Help:      "Total number of malformed events tolerated during replay",
		}),
		ActiveSession: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_session",
			Help:      "Whether a session is currently active (1) or not (0)",
		}),
		SessionNetMinutes: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_net_focused_minutes",
			Help:      "Net focused minutes of ended sessions",
			Buckets:   []float64{5, 15, 25, 45, 60, 90, 120, 180},
		}),
		Predictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Total number of forecast predictions by target and method",
		}, []string{"target", "method"}),
		Reminders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_total",
			Help:      "Total number of reminder prompts by kind",
		}, []string{"kind"}),
		ReminderResponses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_responses_total",
			Help:      "Total number of reminder responses by answer",
		}, []string{"response"}),
		UseCaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "use_case_duration_seconds",
			Help:      "Duration of service use cases in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"use_case", "result"}),
	}
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordResult observes a use case outcome.
func (m *Metrics) RecordResult(useCase string, seconds float64, success bool) {
	result := "success"
	if !success {
		result = "error"
	}
	m.UseCaseDuration.WithLabelValues(useCase, result).Observe(seconds)
}
