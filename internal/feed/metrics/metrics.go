package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the change-feed reconciler.
type Metrics struct {
	// Events received by table and kind
	Events *prometheus.CounterVec

	// Events dropped as duplicates
	Duplicates prometheus.Counter

	// Notifications emitted after successful refreshes
	Notifications *prometheus.CounterVec

	// Subscription drops to the disconnected state
	Disconnects prometheus.Counter
}

// New creates a Metrics instance with all feed metrics registered.
func New() *Metrics {
	return &Metrics{
		Events: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sijil_feed_events_total",
			Help: "Change events received by table and kind",
		}, []string{"table", "kind"}),

		Duplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sijil_feed_duplicate_events_total",
			Help: "Change events dropped as duplicates",
		}),

		Notifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sijil_feed_notifications_total",
			Help: "User-facing notifications emitted by kind",
		}, []string{"kind"}),

		Disconnects: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sijil_feed_disconnects_total",
			Help: "Subscription failures that dropped the reconciler to disconnected",
		}),
	}
}

// IncrementEvent records a received change event.
func (m *Metrics) IncrementEvent(table, kind string) {
	if m != nil {
		m.Events.WithLabelValues(table, kind).Inc()
	}
}

// IncrementDuplicate records a deduplicated event.
func (m *Metrics) IncrementDuplicate() {
	if m != nil {
		m.Duplicates.Inc()
	}
}

// IncrementNotification records an emitted notification.
func (m *Metrics) IncrementNotification(kind string) {
	if m != nil {
		m.Notifications.WithLabelValues(kind).Inc()
	}
}

// IncrementDisconnect records a drop to the disconnected state.
func (m *Metrics) IncrementDisconnect() {
	if m != nil {
		m.Disconnects.Inc()
	}
}
