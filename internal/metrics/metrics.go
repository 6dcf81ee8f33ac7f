package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scenario_sim"

// Outcome labels for SimulationsTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeInvalid  = "invalid"
	OutcomeCanceled = "canceled"
	OutcomeError    = "error"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	SimulationsTotal   *prometheus.CounterVec
	SimulationDuration prometheus.Histogram
	IterationsTotal    prometheus.Counter
	InsightFailures    prometheus.Counter

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		SimulationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Simulation requests by outcome",
		}, []string{"outcome"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Wall time of a complete simulation request in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14),
		}),
		IterationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "iterations_total",
			Help:      "Monte-Carlo iterations executed across all scenarios",
		}),
		InsightFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insight_failures_total",
			Help:      "Narrative insight requests that fell back to the local summary",
		}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.SimulationsTotal,
		m.SimulationDuration,
		m.IterationsTotal,
		m.InsightFailures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSimulation records one finished request.
func (m *Metrics) ObserveSimulation(outcome string, elapsed time.Duration, iterations int) {
	if m == nil {
		return
	}
	m.SimulationsTotal.WithLabelValues(outcome).Inc()
	m.SimulationDuration.Observe(elapsed.Seconds())
	if iterations > 0 {
		m.IterationsTotal.Add(float64(iterations))
	}
}

// InsightFailed counts a narrative fallback.
func (m *Metrics) InsightFailed() {
	if m == nil {
		return
	}
	m.InsightFailures.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
