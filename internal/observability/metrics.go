package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Attempt outcomes reported by the dispatcher.
const (
	OutcomeAccepted = "accepted"
	OutcomeSlow     = "slow"
	OutcomeDenied   = "denied"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	attempts      *prometheus.CounterVec
	attemptTime   *prometheus.HistogramVec
	exhausted     prometheus.Counter
	queueDepth    prometheus.Gauge
	submissions   *prometheus.CounterVec
	reports       *prometheus.CounterVec
	eligibleReset prometheus.Counter
}

// NewMetrics creates and registers all collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linguist_completion_attempts_total",
				Help: "Completion attempts by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		attemptTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linguist_completion_attempt_seconds",
				Help:    "Completion attempt latency",
				Buckets: []float64{1, 2.5, 5, 10, 20, 30, 45, 55, 60},
			},
			[]string{"provider"},
		),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linguist_dispatch_exhausted_total",
			Help: "Dispatches that ended without any acceptable response",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "linguist_admission_queue_depth",
			Help: "Callers currently waiting or running",
		}),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linguist_submissions_total",
				Help: "Inbound submissions by disposition",
			},
			[]string{"disposition"},
		),
		reports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linguist_reports_total",
				Help: "Finished analyses by result",
			},
			[]string{"result"},
		),
		eligibleReset: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linguist_failure_tracker_resets_total",
			Help: "Bulk clears of provider failure records",
		}),
	}

	m.registry.MustRegister(
		m.attempts,
		m.attemptTime,
		m.exhausted,
		m.queueDepth,
		m.submissions,
		m.reports,
		m.eligibleReset,
	)

	return m
}

// Handler exposes the registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveAttempt records one provider attempt.
func (m *Metrics) ObserveAttempt(provider, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(provider, outcome).Inc()
	m.attemptTime.WithLabelValues(provider).Observe(seconds)
}

// IncExhausted records a dispatch that ran out of attempts.
func (m *Metrics) IncExhausted() {
	if m == nil {
		return
	}
	m.exhausted.Inc()
}

// SetQueueDepth records the admission queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

// IncSubmission records an inbound submission disposition.
func (m *Metrics) IncSubmission(disposition string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(disposition).Inc()
}

// IncReport records how an analysis ended.
func (m *Metrics) IncReport(result string) {
	if m == nil {
		return
	}
	m.reports.WithLabelValues(result).Inc()
}

// IncTrackerReset records a failure-tracker bulk clear.
func (m *Metrics) IncTrackerReset() {
	if m == nil {
		return
	}
	m.eligibleReset.Inc()
}
