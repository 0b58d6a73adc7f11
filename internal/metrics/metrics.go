// Package metrics defines the Prometheus instruments of the verification flow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Backend operations observed by the flow.
const (
	OperationIdentify    = "identify"
	OperationLookup      = "lookup"
	OperationBuildPrompt = "build_prompt"
	OperationAdjudicate  = "adjudicate"
)

// Metrics tracks session outcomes and backend latency.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	SessionsTotal         *prometheus.CounterVec
	SelectionsIgnored     prometheus.Counter
	BackendCallDuration   *prometheus.HistogramVec
	BackendRetries        *prometheus.CounterVec
	IndeterminateVerdicts prometheus.Counter
}

// New creates the instruments and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SessionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recall_sessions_total",
			Help: "Total number of finished verification sessions by outcome",
		}, []string{"outcome"}),
		SelectionsIgnored: factory.NewCounter(prometheus.CounterOpts{
			Name: "recall_selections_ignored_total",
			Help: "Total number of selections rejected because a session was active",
		}),
		BackendCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "recall_backend_call_duration_seconds",
			Help:    "Duration of model and registry calls, retries included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		BackendRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recall_backend_retries_total",
			Help: "Total number of retried backend calls",
		}, []string{"operation"}),
		IndeterminateVerdicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "recall_indeterminate_verdicts_total",
			Help: "Total number of adjudication replies with neither YES nor NO",
		}),
	}
}

// ObserveSession records a finished session.
func (m *Metrics) ObserveSession(outcome string) {
	if m == nil {
		return
	}

	m.SessionsTotal.WithLabelValues(outcome).Inc()
}

// IncrementSelectionsIgnored records a selection rejected by the busy-guard.
func (m *Metrics) IncrementSelectionsIgnored() {
	if m == nil {
		return
	}

	m.SelectionsIgnored.Inc()
}

// ObserveBackendCall records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveBackendCall(operation string, start time.Time) {
	if m == nil {
		return
	}

	m.BackendCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// IncrementRetries records one retry of an operation.
func (m *Metrics) IncrementRetries(operation string) {
	if m == nil {
		return
	}

	m.BackendRetries.WithLabelValues(operation).Inc()
}

// IncrementIndeterminate records an adjudication reply that matched neither token.
func (m *Metrics) IncrementIndeterminate() {
	if m == nil {
		return
	}

	m.IndeterminateVerdicts.Inc()
}
