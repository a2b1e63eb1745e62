package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the watchlist module.
type Metrics struct {
	// Entries added by reason and severity
	Added *prometheus.CounterVec

	// Lookups that matched at least one active entry
	Hits prometheus.Counter

	// Entries resolved
	Resolved prometheus.Counter
}

// New creates a Metrics instance with all watchlist metrics registered.
func New() *Metrics {
	return &Metrics{
		Added: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idhub_watchlist_entries_added_total",
			Help: "Total watchlist entries added by reason and severity",
		}, []string{"reason", "severity"}),

		Hits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idhub_watchlist_hits_total",
			Help: "Total lookups matching at least one active entry",
		}),

		Resolved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idhub_watchlist_entries_resolved_total",
			Help: "Total watchlist entries resolved",
		}),
	}
}

// IncrementAdded records one added entry.
func (m *Metrics) IncrementAdded(reason, severity string) {
	if m != nil {
		m.Added.WithLabelValues(reason, severity).Inc()
	}
}

// IncrementHit records a positive watchlist lookup.
func (m *Metrics) IncrementHit() {
	if m != nil {
		m.Hits.Inc()
	}
}

// IncrementResolved records a resolved entry.
func (m *Metrics) IncrementResolved() {
	if m != nil {
		m.Resolved.Inc()
	}
}
