package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the clinic cache.
type Metrics struct {
	// Refresh results ("ok", "error", "superseded")
	Refreshes *prometheus.CounterVec

	// Refresh latency against the store
	RefreshLatency prometheus.Histogram

	// Invalidations absorbed into an already-scheduled refresh
	Coalesced prometheus.Counter

	// Current snapshot size and generation
	SnapshotSize prometheus.Gauge
	Generation   prometheus.Gauge
}

// New creates a Metrics instance with all cache metrics registered.
func New() *Metrics {
	return &Metrics{
		Refreshes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sijil_cache_refreshes_total",
			Help: "Total cache refreshes by result",
		}, []string{"result"}),

		RefreshLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "sijil_cache_refresh_duration_seconds",
			Help:    "Duration of snapshot refreshes against the store",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		Coalesced: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sijil_cache_invalidations_coalesced_total",
			Help: "Invalidations folded into an already-scheduled refresh",
		}),

		SnapshotSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sijil_cache_snapshot_size",
			Help: "Number of clinics in the current snapshot",
		}),

		Generation: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "sijil_cache_generation",
			Help: "Generation of the current snapshot",
		}),
	}
}

// IncrementRefresh records a refresh result.
func (m *Metrics) IncrementRefresh(result string) {
	if m != nil {
		m.Refreshes.WithLabelValues(result).Inc()
	}
}

// ObserveRefresh records a refresh duration.
func (m *Metrics) ObserveRefresh(d time.Duration) {
	if m != nil {
		m.RefreshLatency.Observe(d.Seconds())
	}
}

// IncrementCoalesced records an invalidation absorbed by a pending refresh.
func (m *Metrics) IncrementCoalesced() {
	if m != nil {
		m.Coalesced.Inc()
	}
}

// SetSnapshot records the current snapshot size and generation.
func (m *Metrics) SetSnapshot(size int, generation uint64) {
	if m != nil {
		m.SnapshotSize.Set(float64(size))
		m.Generation.Set(float64(generation))
	}
}
