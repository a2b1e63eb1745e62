package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the consolidation module.
type Metrics struct {
	// Registry lookup latencies by registry type
	ProviderLatency *prometheus.HistogramVec

	// Registry lookup failures by registry type and error category
	ProviderFailures *prometheus.CounterVec

	// Conflicts detected by severity
	ConflictsDetected *prometheus.CounterVec

	// Overall consolidation latency
	ConsolidateLatency prometheus.Histogram
}

// New creates a Metrics instance with all consolidation metrics registered.
func New() *Metrics {
	return &Metrics{
		ProviderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idhub_consolidation_provider_duration_seconds",
			Help:    "Duration of registry provider lookups by registry",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"registry"}),

		ProviderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idhub_consolidation_provider_failures_total",
			Help: "Total registry provider failures by registry and error category",
		}, []string{"registry", "category"}),

		ConflictsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idhub_consolidation_conflicts_total",
			Help: "Total conflicts detected by severity",
		}, []string{"severity"}),

		ConsolidateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "idhub_consolidation_duration_seconds",
			Help:    "Duration of full consolidation including provider fan-out",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// ObserveProviderLatency records the duration of one registry lookup.
func (m *Metrics) ObserveProviderLatency(registry string, d time.Duration) {
	if m != nil {
		m.ProviderLatency.WithLabelValues(registry).Observe(d.Seconds())
	}
}

// IncrementProviderFailure records a failed registry lookup.
func (m *Metrics) IncrementProviderFailure(registry, category string) {
	if m != nil {
		m.ProviderFailures.WithLabelValues(registry, category).Inc()
	}
}

// IncrementConflicts records detected conflicts by severity.
func (m *Metrics) IncrementConflicts(severity string) {
	if m != nil {
		m.ConflictsDetected.WithLabelValues(severity).Inc()
	}
}

// ObserveConsolidateLatency records the total consolidation duration.
func (m *Metrics) ObserveConsolidateLatency(d time.Duration) {
	if m != nil {
		m.ConsolidateLatency.Observe(d.Seconds())
	}
}
