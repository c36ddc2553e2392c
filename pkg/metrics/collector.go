package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/callgate/pkg/ratelimiter"
	"github.com/dmitrymomot/callgate/pkg/rpc"
)

// Call outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeValidation = "validation"
	OutcomeSession    = "session"
	OutcomeAuth       = "auth"
	OutcomeAccess     = "access"
	OutcomeUnknown    = "unknown"
	OutcomeThrottled  = "throttled"
	OutcomeInternal   = "internal"
	OutcomeError      = "error"
)

const unknownCallLabel = "unknown"

// Collector holds the call and connection metrics.
type Collector struct {
	callsTotal     *prometheus.CounterVec
	callDuration   *prometheus.HistogramVec
	registered     prometheus.Counter
	loadErrors     *prometheus.CounterVec
	connections    prometheus.Gauge
	connectedTotal prometheus.Counter

	known sync.Map
}

// New registers the collectors with the configured registerer.
// It panics when they are already registered there, like promauto does.
func New(opts ...Option) *Collector {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.Buckets) == 0 {
		cfg.Buckets = prometheus.DefBuckets
	}

	factory := promauto.With(cfg.Registry)

	return &Collector{
		callsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "calls_total",
			Help:        "Total number of calls by name and outcome",
			ConstLabels: cfg.ConstLabels,
		}, []string{"call", "outcome"}),

		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "call_duration_seconds",
			Help:        "Call processing duration in seconds",
			ConstLabels: cfg.ConstLabels,
			Buckets:     cfg.Buckets,
		}, []string{"call"}),

		registered: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "handlers_registered_total",
			Help:        "Total number of registered call handlers",
			ConstLabels: cfg.ConstLabels,
		}),

		loadErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "module_load_errors_total",
			Help:        "Total number of call modules that failed to load",
			ConstLabels: cfg.ConstLabels,
		}, []string{"module"}),

		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "active_connections",
			Help:        "Number of open channel connections",
			ConstLabels: cfg.ConstLabels,
		}),

		connectedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   cfg.Namespace,
			Subsystem:   cfg.Subsystem,
			Name:        "connections_total",
			Help:        "Total number of accepted channel connections",
			ConstLabels: cfg.ConstLabels,
		}),
	}
}

// Hooks returns the rpc hooks that feed the collector.
func (c *Collector) Hooks() rpc.Hooks {
	return rpc.Hooks{
		OnOutAfter: func(_ context.Context, call *rpc.Call, err error) {
			c.ObserveCall(c.label(call.Name), Outcome(err), time.Since(call.Started))
		},
		OnRegistered: func(name string) {
			c.known.Store(name, struct{}{})
			c.registered.Inc()
		},
		OnLoadError: func(err *rpc.HandlerLoadError) {
			c.loadErrors.WithLabelValues(err.Module).Inc()
		},
	}
}

// label returns name when a handler was registered under it.
func (c *Collector) label(name string) string {
	if _, ok := c.known.Load(name); ok {
		return name
	}
	return unknownCallLabel
}

// ObserveCall records one finished call.
func (c *Collector) ObserveCall(name, outcome string, d time.Duration) {
	c.callsTotal.WithLabelValues(name, outcome).Inc()
	c.callDuration.WithLabelValues(name).Observe(d.Seconds())
}

// ConnOpened counts a new channel connection.
func (c *Collector) ConnOpened(*rpc.ConnInfo) {
	c.connections.Inc()
	c.connectedTotal.Inc()
}

// ConnClosed decrements the active connection gauge.
func (c *Collector) ConnClosed(*rpc.ConnInfo) {
	c.connections.Dec()
}

// Outcome maps a call error to its outcome label.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}

	var verr *rpc.ValidationError
	if errors.As(err, &verr) {
		return OutcomeValidation
	}

	var aerr *rpc.AccessError
	if errors.As(err, &aerr) {
		switch aerr.Kind {
		case rpc.AccessSession:
			return OutcomeSession
		case rpc.AccessAuth:
			return OutcomeAuth
		default:
			return OutcomeAccess
		}
	}

	var lerr *ratelimiter.LimitError
	if errors.As(err, &lerr) {
		return OutcomeThrottled
	}

	switch {
	case errors.Is(err, rpc.ErrUnknownCall):
		return OutcomeUnknown
	case errors.Is(err, rpc.ErrInternal):
		return OutcomeInternal
	}
	return OutcomeError
}
