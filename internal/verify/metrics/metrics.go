package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification engine.
type Metrics struct {
	// Verification outcomes by capture method and outcome
	Outcomes *prometheus.CounterVec

	// Store lookup latency for the license query
	LookupLatency prometheus.Histogram

	// Audit appends that failed and were swallowed
	AuditFailures prometheus.Counter

	// License lookups that matched more than one row
	DuplicateMatches prometheus.Counter
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		Outcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sijil_verify_outcomes_total",
			Help: "Total verification outcomes by capture method and outcome",
		}, []string{"method", "outcome"}),

		LookupLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sijil_verify_lookup_duration_seconds",
			Help:    "Duration of the license lookup against the store",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		AuditFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sijil_verify_audit_failures_total",
			Help: "Verification attempt appends that failed and were swallowed",
		}),

		DuplicateMatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sijil_verify_duplicate_matches_total",
			Help: "License lookups that matched more than one clinic row",
		}),
	}
}

// IncrementOutcome records one verification outcome.
func (m *Metrics) IncrementOutcome(method, outcome string) {
	if m != nil {
		m.Outcomes.WithLabelValues(method, outcome).Inc()
	}
}

// ObserveLookup records the store lookup duration.
func (m *Metrics) ObserveLookup(d time.Duration) {
	if m != nil {
		m.LookupLatency.Observe(d.Seconds())
	}
}

// IncrementAuditFailure records a swallowed audit write failure.
func (m *Metrics) IncrementAuditFailure() {
	if m != nil {
		m.AuditFailures.Inc()
	}
}

// IncrementDuplicateMatch records a tolerated duplicate-row anomaly.
func (m *Metrics) IncrementDuplicateMatch() {
	if m != nil {
		m.DuplicateMatches.Inc()
	}
}
