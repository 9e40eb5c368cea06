// Package metrics provides the Prometheus collectors shared by the store
// registry, the caches and the inspector.
//
// A nil *Metrics is valid and records nothing, so libraries can accept an
// optional metrics sink without branching at every call site.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "statekit").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for action duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: a fresh prometheus.Registry.
	Registry prometheus.Registerer
}

// Option configures the collectors.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

// Metrics holds the statekit collectors.
type Metrics struct {
	actionsTotal        *prometheus.CounterVec
	actionDuration      *prometheus.HistogramVec
	storesActive        prometheus.Gauge
	cacheErrors         *prometheus.CounterVec
	notificationsActive prometheus.Gauge
	inspectRequests     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors and returns them.
func New(opts ...Option) *Metrics {
	reg := prometheus.NewRegistry()
	config := Config{
		Namespace: "statekit",
		Buckets:   prometheus.DefBuckets,
		Registry:  reg,
	}
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	m := &Metrics{
		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "actions_total",
			Help:        "Total number of store actions executed",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "action", "status"}),

		actionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "action_duration_seconds",
			Help:        "Store action duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store", "action"}),

		storesActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "stores_active",
			Help:        "Number of constructed stores in the registry",
			ConstLabels: config.ConstLabels,
		}),

		cacheErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "cache_errors_total",
			Help:        "Total number of key-value cache failures",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		notificationsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_active",
			Help:        "Number of notifications currently displayed",
			ConstLabels: config.ConstLabels,
		}),

		inspectRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "inspect_requests_total",
			Help:        "Total number of inspector HTTP requests",
			ConstLabels: config.ConstLabels,
		}, []string{"route", "code"}),
	}

	if g, ok := config.Registry.(prometheus.Gatherer); ok {
		m.gatherer = g
	}
	return m
}

// Gatherer returns the gatherer backing these metrics, or nil when the
// configured registerer cannot gather.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.gatherer
}

// ObserveAction records one store action.
func (m *Metrics) ObserveAction(store, action string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.actionsTotal.WithLabelValues(store, action, status).Inc()
	m.actionDuration.WithLabelValues(store, action).Observe(elapsed.Seconds())
}

// SetStoresActive sets the number of constructed stores.
func (m *Metrics) SetStoresActive(n int) {
	if m == nil {
		return
	}
	m.storesActive.Set(float64(n))
}

// CacheError records a failed cache operation ("get", "set", "remove").
func (m *Metrics) CacheError(op string) {
	if m == nil {
		return
	}
	m.cacheErrors.WithLabelValues(op).Inc()
}

// SetNotificationsActive sets the number of displayed notifications.
func (m *Metrics) SetNotificationsActive(n int) {
	if m == nil {
		return
	}
	m.notificationsActive.Set(float64(n))
}

// InspectRequest records one inspector request.
func (m *Metrics) InspectRequest(route string, code int) {
	if m == nil {
		return
	}
	m.inspectRequests.WithLabelValues(route, statusText(code)).Inc()
}

func statusText(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
