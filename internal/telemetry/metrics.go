// Package telemetry exposes Prometheus counters and histograms for pipeline
// stage latency, per-provider routing outcomes, triage source, and active
// dispatch/green-wave counts (SPEC_FULL.md §2), following the singleton
// metrics-struct idiom of the teacher's internal/ai/chat.AIMetrics.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every counter/histogram the dispatch pipeline records.
type Metrics struct {
	stageLatency *prometheus.HistogramVec

	routingOutcomes *prometheus.CounterVec
	triageRequests  *prometheus.CounterVec

	activeDispatches *prometheus.GaugeVec
	activeGreenWaves prometheus.Gauge

	breakerState *prometheus.GaugeVec
}

var (
	instance *Metrics
	once     sync.Once
)

// Get returns the process-wide singleton, constructing and registering it
// with the default registerer on first call.
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	m := &Metrics{
		stageLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "dispatch",
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage (triage, plan, route, track).",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		routingOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dispatch",
				Subsystem: "routing",
				Name:      "provider_outcome_total",
				Help:      "Routing provider attempts by provider name and outcome (success|error|fallback).",
			},
			[]string{"provider", "outcome"},
		),
		triageRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "dispatch",
				Subsystem: "triage",
				Name:      "classification_total",
				Help:      "Triage classifications by source (cloud|local|fallback).",
			},
			[]string{"source"},
		),
		activeDispatches: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "dispatch",
				Name:      "active_dispatches",
				Help:      "Currently active dispatches by force.",
			},
			[]string{"force"},
		),
		activeGreenWaves: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "dispatch",
				Name:      "active_green_waves",
				Help:      "Currently active green-wave coordinations.",
			},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "dispatch",
				Subsystem: "routing",
				Name:      "breaker_open",
				Help:      "1 when a routing provider's circuit breaker is open, else 0.",
			},
			[]string{"provider"},
		),
	}

	prometheus.MustRegister(
		m.stageLatency,
		m.routingOutcomes,
		m.triageRequests,
		m.activeDispatches,
		m.activeGreenWaves,
		m.breakerState,
	)
	return m
}

// ObserveStageDuration records how long a pipeline stage took, in seconds.
func (m *Metrics) ObserveStageDuration(stage string, seconds float64) {
	m.stageLatency.WithLabelValues(stage).Observe(seconds)
}

// RecordRoutingOutcome records one routing provider attempt.
func (m *Metrics) RecordRoutingOutcome(provider, outcome string) {
	m.routingOutcomes.WithLabelValues(provider, outcome).Inc()
}

// RecordTriageSource records which layer produced a triage classification.
func (m *Metrics) RecordTriageSource(source string) {
	m.triageRequests.WithLabelValues(source).Inc()
}

// SetActiveDispatches sets the current active-dispatch gauge for a force.
func (m *Metrics) SetActiveDispatches(force string, count int) {
	m.activeDispatches.WithLabelValues(force).Set(float64(count))
}

// SetActiveGreenWaves sets the current active green-wave gauge.
func (m *Metrics) SetActiveGreenWaves(count int) {
	m.activeGreenWaves.Set(float64(count))
}

// SetBreakerOpen records whether a routing provider's breaker is currently open.
func (m *Metrics) SetBreakerOpen(provider string, open bool) {
	v := 0.0
	if open {
		v = 1.0
	}
	m.breakerState.WithLabelValues(provider).Set(v)
}
