package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once   sync.Once
	shared *Metrics
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	ReportsSubmitted   *prometheus.CounterVec
	ThresholdCrossings prometheus.Counter
	StatusChanges      *prometheus.CounterVec
	IdentityConflicts  prometheus.Counter
	SubmitDuration     prometheus.Histogram
	PublishFailures    prometheus.Counter
}

// Default returns the process-wide metrics, registering them on first use.
func Default() *Metrics {
	once.Do(func() {
		shared = New()
		prometheus.MustRegister(shared.Collectors()...)
	})
	return shared
}

// New builds an unregistered metric set. Tests use it directly.
func New() *Metrics {
	return &Metrics{
		ReportsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abuse_reports_submitted_total",
				Help: "Reports recorded, by platform and category",
			},
			[]string{"platform", "category"},
		),
		ThresholdCrossings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "abuse_threshold_crossings_total",
				Help: "Accounts that reached the public alert threshold",
			},
		),
		StatusChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abuse_account_status_changes_total",
				Help: "Moderator status changes, by new status",
			},
			[]string{"status"},
		),
		IdentityConflicts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "abuse_identity_conflicts_total",
				Help: "Concurrent account creations resolved by lookup",
			},
		),
		SubmitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "abuse_report_submit_seconds",
				Help:    "Time spent recording a report",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		PublishFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "abuse_feed_publish_failures_total",
				Help: "Activity events that could not be published to the stream",
			},
		),
	}
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ReportsSubmitted,
		m.ThresholdCrossings,
		m.StatusChanges,
		m.IdentityConflicts,
		m.SubmitDuration,
		m.PublishFailures,
	}
}
