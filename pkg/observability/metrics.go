// Package observability provides Prometheus metrics and OpenTelemetry
// tracing for MCP client sessions. Both are optional: the session engine
// calls through nil-safe recorders, so an unconfigured client pays only a
// nil check.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsConfig configures the metrics recorder
type MetricsConfig struct {
	// Namespace is the Prometheus namespace (default: mcp)
	Namespace string

	// Subsystem is the Prometheus subsystem (default: client)
	Subsystem string

	// HistogramBuckets overrides the latency histogram buckets
	HistogramBuckets []float64

	// ConstLabels are added to every metric
	ConstLabels prometheus.Labels

	// Registerer receives the collectors; prometheus.DefaultRegisterer when nil
	Registerer prometheus.Registerer
}

// Metrics records session-engine activity: outbound request latency and
// outcome, server-initiated traffic, and frames the dispatcher dropped.
type Metrics struct {
	requestDuration     *prometheus.HistogramVec
	requestsInFlight    prometheus.Gauge
	notificationsTotal  *prometheus.CounterVec
	serverRequestsTotal *prometheus.CounterVec
	droppedFramesTotal  prometheus.Counter
}

// Outcome labels for request metrics
const (
	OutcomeOK        = "ok"
	OutcomeError     = "error"
	OutcomeTimeout   = "timeout"
	OutcomeCancelled = "cancelled"
)

// NewMetrics creates and registers the session metrics.
func NewMetrics(config MetricsConfig) (*Metrics, error) {
	if config.Namespace == "" {
		config.Namespace = "mcp"
	}
	if config.Subsystem == "" {
		config.Subsystem = "client"
	}
	if len(config.HistogramBuckets) == 0 {
		config.HistogramBuckets = prometheus.DefBuckets
	}
	registerer := config.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "request_duration_seconds",
			Help:        "Latency of outbound requests by method and outcome.",
			Buckets:     config.HistogramBuckets,
			ConstLabels: config.ConstLabels,
		}, []string{"method", "outcome"}),
		requestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_in_flight",
			Help:        "Outbound requests currently awaiting a response.",
			ConstLabels: config.ConstLabels,
		}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Notifications processed by method and direction.",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "direction"}),
		serverRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "server_requests_total",
			Help:        "Server-initiated requests handled by method and outcome.",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "outcome"}),
		droppedFramesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dropped_frames_total",
			Help:        "Inbound frames dropped by the dispatcher.",
			ConstLabels: config.ConstLabels,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.requestDuration,
		m.requestsInFlight,
		m.notificationsTotal,
		m.serverRequestsTotal,
		m.droppedFramesTotal,
	} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ObserveRequest records one completed outbound request.
func (m *Metrics) ObserveRequest(method, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, outcome).Observe(duration.Seconds())
}

// RequestStarted bumps the in-flight gauge.
func (m *Metrics) RequestStarted() {
	if m == nil {
		return
	}
	m.requestsInFlight.Inc()
}

// RequestFinished drops the in-flight gauge.
func (m *Metrics) RequestFinished() {
	if m == nil {
		return
	}
	m.requestsInFlight.Dec()
}

// Notification directions
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// RecordNotification counts one processed notification.
func (m *Metrics) RecordNotification(method, direction string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(method, direction).Inc()
}

// RecordServerRequest counts one handled server-initiated request.
func (m *Metrics) RecordServerRequest(method, outcome string) {
	if m == nil {
		return
	}
	m.serverRequestsTotal.WithLabelValues(method, outcome).Inc()
}

// RecordDroppedFrame counts one dropped inbound frame.
func (m *Metrics) RecordDroppedFrame() {
	if m == nil {
		return
	}
	m.droppedFramesTotal.Inc()
}
