package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and gauges for the report service.
type Metrics struct {
	ReportsSubmitted  *prometheus.CounterVec // labels: hazard_type
	StatusTransitions *prometheus.CounterVec // labels: to
	DuplicateBlocks   prometheus.Counter
	DuplicateFlags    prometheus.Counter

	AlertsIssued       prometheus.Counter
	AlertPublishErrors prometheus.Counter

	PointsAwarded prometheus.Counter
	BadgesGranted *prometheus.CounterVec // labels: badge

	StoreReady prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReportsSubmitted,
		m.StatusTransitions,
		m.DuplicateBlocks,
		m.DuplicateFlags,
		m.AlertsIssued,
		m.AlertPublishErrors,
		m.PointsAwarded,
		m.BadgesGranted,
		m.StoreReady,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_watch",
			Name:      "reports_submitted_total",
			Help:      "Accepted hazard report submissions by hazard type.",
		}, []string{"hazard_type"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_watch",
			Name:      "status_transitions_total",
			Help:      "Report status transitions by destination status.",
		}, []string{"to"}),
		DuplicateBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_watch",
			Name:      "duplicate_blocks_total",
			Help:      "Submissions rejected because a verified duplicate exists nearby.",
		}),
		DuplicateFlags: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_watch",
			Name:      "duplicate_flags_total",
			Help:      "Submissions accepted with an advisory duplicate flag.",
		}),
		AlertsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_watch",
			Name:      "alerts_issued_total",
			Help:      "Hazard alert broadcasts authorized.",
		}),
		AlertPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_watch",
			Name:      "alert_publish_errors_total",
			Help:      "Alert records that failed to reach the delivery topic.",
		}),
		PointsAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hazard_watch",
			Name:      "points_awarded_total",
			Help:      "Gamification points credited across all users.",
		}),
		BadgesGranted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hazard_watch",
			Name:      "badges_granted_total",
			Help:      "Badges granted by badge id.",
		}, []string{"badge"}),
		StoreReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hazard_watch",
			Name:      "store_ready",
			Help:      "1 when the report store answers pings, 0 otherwise.",
		}),
	}
}
