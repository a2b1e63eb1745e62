package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the alert bus.
type Metrics struct {
	// Alerts published by type and severity
	Published *prometheus.CounterVec

	// Successful subscriber deliveries
	Delivered prometheus.Counter

	// Subscriber callbacks that panicked
	SubscriberPanics prometheus.Counter

	// Mirror sink failures by sink name
	SinkFailures *prometheus.CounterVec
}

// New creates a Metrics instance with all alert metrics registered.
func New() *Metrics {
	return &Metrics{
		Published: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idhub_alerts_published_total",
			Help: "Total alerts published by type and severity",
		}, []string{"type", "severity"}),

		Delivered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idhub_alerts_delivered_total",
			Help: "Total successful subscriber deliveries",
		}),

		SubscriberPanics: promauto.NewCounter(prometheus.CounterOpts{
			Name: "idhub_alert_subscriber_panics_total",
			Help: "Total subscriber callbacks recovered from panic",
		}),

		SinkFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "idhub_alert_sink_failures_total",
			Help: "Total mirror sink failures by sink",
		}, []string{"sink"}),
	}
}

// IncrementPublished records one published alert.
func (m *Metrics) IncrementPublished(alertType, severity string) {
	if m != nil {
		m.Published.WithLabelValues(alertType, severity).Inc()
	}
}

// IncrementDelivered records one successful subscriber delivery.
func (m *Metrics) IncrementDelivered() {
	if m != nil {
		m.Delivered.Inc()
	}
}

// IncrementSubscriberPanic records a recovered subscriber panic.
func (m *Metrics) IncrementSubscriberPanic() {
	if m != nil {
		m.SubscriberPanics.Inc()
	}
}

// IncrementSinkFailure records a mirror sink failure.
func (m *Metrics) IncrementSinkFailure(sink string) {
	if m != nil {
		m.SinkFailures.WithLabelValues(sink).Inc()
	}
}
