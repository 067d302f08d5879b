// Package metrics provides Prometheus metrics for the sourcing pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	CandidatesFound    prometheus.Counter
	CandidatesSuitable prometheus.Counter
	SearchRetriesTotal prometheus.Counter
	WarningsTotal      *prometheus.CounterVec
	PhaseDuration      *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates and registers all metrics on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcer_runs_total",
				Help: "Total number of sourcing runs by outcome.",
			},
			[]string{"outcome"},
		),
		CandidatesFound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sourcer_candidates_found_total",
				Help: "Total candidates returned by provider searches.",
			},
		),
		CandidatesSuitable: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sourcer_candidates_suitable_total",
				Help: "Total candidates classified as suitable.",
			},
		),
		SearchRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sourcer_search_retries_total",
				Help: "Total adaptive search retries across runs.",
			},
		),
		WarningsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sourcer_warnings_total",
				Help: "Total per-candidate warnings by phase.",
			},
			[]string{"phase"},
		),
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sourcer_phase_duration_seconds",
				Help:    "Pipeline phase duration.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"phase"},
		),
		registry: reg,
	}

	reg.MustRegister(m.RunsTotal)
	reg.MustRegister(m.CandidatesFound)
	reg.MustRegister(m.CandidatesSuitable)
	reg.MustRegister(m.SearchRetriesTotal)
	reg.MustRegister(m.WarningsTotal)
	reg.MustRegister(m.PhaseDuration)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObservePhase records a phase duration. Nil-safe so callers can skip the
// metrics wiring entirely.
func (m *Metrics) ObservePhase(phase string, start time.Time) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
}

// RecordRun increments the run counter for an outcome.
func (m *Metrics) RecordRun(outcome string) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
}

// RecordSearch adds found candidates and notes whether it was a retry round.
func (m *Metrics) RecordSearch(found int, retry bool) {
	if m == nil {
		return
	}
	m.CandidatesFound.Add(float64(found))
	if retry {
		m.SearchRetriesTotal.Inc()
	}
}

// RecordSuitable adds suitable candidates.
func (m *Metrics) RecordSuitable(count int) {
	if m == nil {
		return
	}
	m.CandidatesSuitable.Add(float64(count))
}

// RecordWarning increments the warning counter for a phase.
func (m *Metrics) RecordWarning(phase string) {
	if m == nil {
		return
	}
	m.WarningsTotal.WithLabelValues(phase).Inc()
}
