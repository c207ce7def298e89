// Package metrics exposes Prometheus metrics for autopilot runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/job-autopilot/internal/types"
)

// Submission attempt outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the autopilot collectors, registered on their own registry.
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal        *prometheus.CounterVec
	SubmissionAttempts *prometheus.CounterVec
	RunDuration        prometheus.Histogram
	QuotaRemaining     *prometheus.GaugeVec
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autopilot_events_total",
			Help: "Application events recorded by the tracker, by status",
		}, []string{"status"}),
		SubmissionAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "autopilot_submission_attempts_total",
			Help: "Submission attempts against the job portal, by outcome",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "autopilot_run_duration_seconds",
			Help:    "Wall time of one orchestrator run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		QuotaRemaining: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "autopilot_quota_remaining",
			Help: "Applications left today for a profile at the end of its last run",
		}, []string{"profile_id"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEvent counts one tracked event. It matches the tracker observer signature.
func (m *Metrics) ObserveEvent(e types.ApplicationEvent) {
	m.EventsTotal.WithLabelValues(string(e.Status)).Inc()
}

// ObserveAttempt counts one submission attempt.
func (m *Metrics) ObserveAttempt(success bool) {
	outcome := OutcomeFailure
	if success {
		outcome = OutcomeSuccess
	}
	m.SubmissionAttempts.WithLabelValues(outcome).Inc()
}

// ObserveRun records a run's duration.
func (m *Metrics) ObserveRun(d time.Duration) {
	m.RunDuration.Observe(d.Seconds())
}

// SetQuotaRemaining records the remaining quota for a profile.
func (m *Metrics) SetQuotaRemaining(profileID string, remaining int) {
	m.QuotaRemaining.WithLabelValues(profileID).Set(float64(remaining))
}
