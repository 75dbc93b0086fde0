package telemetry

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wricardo/screeps-world-mcp/game/gateway"
)

// Metrics records gateway calls in Prometheus. It implements gateway.Observer.
type Metrics struct {
	registry     *prometheus.Registry
	calls        *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	loopBlocks   *prometheus.CounterVec
	httpStatuses *prometheus.CounterVec
}

// NewMetrics registers the gateway metrics. A nil registry uses a fresh one.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		calls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screeps_gateway_calls_total",
				Help: "Total number of gateway calls by path and outcome",
			},
			[]string{"kind", "path", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "screeps_gateway_call_duration_seconds",
				Help:    "Duration of gateway calls in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"path", "outcome"},
		),
		loopBlocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screeps_gateway_loop_blocks_total",
				Help: "Total number of calls blocked by loop detection",
			},
			[]string{"path"},
		),
		httpStatuses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "screeps_gateway_http_errors_total",
				Help: "Total number of non-2xx responses from the remote API",
			},
			[]string{"path", "status"},
		),
	}
}

// RegisterTrackerGauge exposes the number of tracked signatures.
func (m *Metrics) RegisterTrackerGauge(tracker *gateway.Tracker) {
	promauto.With(m.registry).NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "screeps_gateway_tracked_signatures",
			Help: "Number of call signatures currently held by loop detection",
		},
		func() float64 { return float64(tracker.Len()) },
	)
}

// ObserveCall implements gateway.Observer.
func (m *Metrics) ObserveCall(e gateway.CallEvent) {
	m.calls.WithLabelValues(e.Kind, e.Path, e.Outcome).Inc()
	m.duration.WithLabelValues(e.Path, e.Outcome).Observe(e.Duration.Seconds())

	switch e.Outcome {
	case gateway.OutcomeBlocked:
		m.loopBlocks.WithLabelValues(e.Path).Inc()
	case gateway.OutcomeHTTPError:
		m.httpStatuses.WithLabelValues(e.Path, strconv.Itoa(e.StatusCode)).Inc()
	}
}

// Registry returns the registry the metrics are registered in.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

var _ gateway.Observer = (*Metrics)(nil)
