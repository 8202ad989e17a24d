package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service. A nil *Metrics is
// valid and records nothing.
//
// Usage:
//
//	m := metrics.New(prometheus.DefaultRegisterer)
//	m.RecordMutation("send_message", err)
type Metrics struct {
	// HTTPRequestDuration measures API latency.
	// Labels: method, route, status_code
	HTTPRequestDuration *prometheus.HistogramVec

	// MutationCounter counts store mutations.
	// Labels: operation, status (success|error)
	MutationCounter *prometheus.CounterVec

	// ActiveSubscriptions is the number of open live subscriptions.
	// Labels: topic_kind (connections|conversations|messages|feed|comments|users)
	ActiveSubscriptions *prometheus.GaugeVec

	// SnapshotCounter counts snapshots delivered to subscribers.
	// Labels: topic_kind, status (success|error)
	SnapshotCounter *prometheus.CounterVec

	// ChangeNotifications counts change events received from the bus.
	ChangeNotifications prometheus.Counter

	// WebSocketConnections is the number of open gateway sockets.
	WebSocketConnections prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "athletecho_http_request_duration_seconds",
				Help:    "Duration of HTTP API requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "route", "status_code"},
		),
		MutationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "athletecho_mutations_total",
				Help: "Total number of store mutations by operation and status",
			},
			[]string{"operation", "status"},
		),
		ActiveSubscriptions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "athletecho_active_subscriptions",
				Help: "Number of open live subscriptions",
			},
			[]string{"topic_kind"},
		),
		SnapshotCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "athletecho_snapshots_total",
				Help: "Total number of snapshots computed for subscribers",
			},
			[]string{"topic_kind", "status"},
		),
		ChangeNotifications: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "athletecho_change_notifications_total",
				Help: "Total number of change notifications received",
			},
		),
		WebSocketConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "athletecho_websocket_connections",
				Help: "Number of open WebSocket connections",
			},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordHTTPRequest observes one API request.
func (m *Metrics) RecordHTTPRequest(method, route, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(method, route, statusCode).Observe(durationSeconds)
}

// RecordMutation counts one store mutation.
func (m *Metrics) RecordMutation(operation string, err error) {
	if m == nil {
		return
	}
	m.MutationCounter.WithLabelValues(operation, status(err)).Inc()
}

// SubscriptionOpened increments the live subscription gauge.
func (m *Metrics) SubscriptionOpened(kind string) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.WithLabelValues(kind).Inc()
}

// SubscriptionClosed decrements the live subscription gauge.
func (m *Metrics) SubscriptionClosed(kind string) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.WithLabelValues(kind).Dec()
}

// RecordSnapshot counts one snapshot load.
func (m *Metrics) RecordSnapshot(kind string, err error) {
	if m == nil {
		return
	}
	m.SnapshotCounter.WithLabelValues(kind, status(err)).Inc()
}

// ChangeReceived counts one change notification.
func (m *Metrics) ChangeReceived() {
	if m == nil {
		return
	}
	m.ChangeNotifications.Inc()
}

// SocketOpened increments the WebSocket gauge.
func (m *Metrics) SocketOpened() {
	if m == nil {
		return
	}
	m.WebSocketConnections.Inc()
}

// SocketClosed decrements the WebSocket gauge.
func (m *Metrics) SocketClosed() {
	if m == nil {
		return
	}
	m.WebSocketConnections.Dec()
}
