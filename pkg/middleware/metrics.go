package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/navflow/pkg/navigate"
)

// MetricsConfig configures the Prometheus observer.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "navflow").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for attempt duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus observer.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "navflow",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics is a navigate.Observer that exports attempt lifecycle metrics.
// The bridge also reports session and transport events through it.
//
// Metrics collected:
//   - navflow_navigations_started_total: attempts admitted, by op
//   - navflow_navigations_ended_total: attempts ended, by op and detector
//   - navflow_navigations_dropped_total: requests dropped while busy, by op
//   - navflow_navigation_failures_total: router failures, by op
//   - navflow_navigation_duration_seconds: time from admission to end, by op
//   - navflow_navigations_in_flight: attempts currently in flight
//   - navflow_active_sessions: connected bridge sessions
//   - navflow_websocket_errors_total: bridge transport errors, by type
//   - navflow_platform_events_dropped_total: platform events over the rate limit
type Metrics struct {
	started        *prometheus.CounterVec
	ended          *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	failures       *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	inFlight       prometheus.Gauge
	activeSessions prometheus.Gauge
	wsErrors       *prometheus.CounterVec
	eventsDropped  prometheus.Counter
}

var _ navigate.Observer = (*Metrics)(nil)

// Prometheus creates a Metrics observer and registers its collectors.
// Registering twice against the same registry panics, as with promauto.
//
// Example:
//
//	m := middleware.Prometheus(middleware.WithNamespace("myapp"))
//	c, _ := navigate.New(store, router, loc, navigate.WithObserver(m))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if config.Registry == nil {
		config.Registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(config.Registry)
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}

	return &Metrics{
		started:  counter("navigations_started_total", "Total number of navigation attempts admitted", "op"),
		ended:    counter("navigations_ended_total", "Total number of navigation attempts ended", "op", "detector"),
		dropped:  counter("navigations_dropped_total", "Total number of navigation requests dropped while another was in flight", "op"),
		failures: counter("navigation_failures_total", "Total number of router failures", "op"),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigation_duration_seconds",
			Help:        "Time from admission to the end of a navigation attempt",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"op"}),

		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "navigations_in_flight",
			Help:        "Number of navigation attempts in flight",
			ConstLabels: config.ConstLabels,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of connected bridge sessions",
			ConstLabels: config.ConstLabels,
		}),

		wsErrors: counter("websocket_errors_total", "Total WebSocket errors by type", "type"),

		eventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "platform_events_dropped_total",
			Help:        "Total platform events dropped by the per-session rate limit",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// NavigationStarted implements navigate.Observer.
func (m *Metrics) NavigationStarted(a navigate.Attempt) {
	m.started.WithLabelValues(string(a.Op)).Inc()
	m.inFlight.Inc()
}

// NavigationEnded implements navigate.Observer.
func (m *Metrics) NavigationEnded(a navigate.Attempt, d navigate.Detector, elapsed time.Duration) {
	m.ended.WithLabelValues(string(a.Op), string(d)).Inc()
	m.duration.WithLabelValues(string(a.Op)).Observe(elapsed.Seconds())
	m.inFlight.Dec()
}

// NavigationDropped implements navigate.Observer.
func (m *Metrics) NavigationDropped(op navigate.Op, _ string) {
	m.dropped.WithLabelValues(string(op)).Inc()
}

// NavigationFailed implements navigate.Observer.
func (m *Metrics) NavigationFailed(a navigate.Attempt, _ error) {
	m.failures.WithLabelValues(string(a.Op)).Inc()
}

// SessionOpened records a new bridge session.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

// SessionClosed records a bridge session going away.
func (m *Metrics) SessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

// WebSocketError records a bridge transport error.
func (m *Metrics) WebSocketError(errorType string) {
	if m != nil {
		m.wsErrors.WithLabelValues(errorType).Inc()
	}
}

// PlatformEventDropped records a platform event discarded by the rate limit.
func (m *Metrics) PlatformEventDropped() {
	if m != nil {
		m.eventsDropped.Inc()
	}
}
