package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Oracle call outcomes.
const (
	OracleScored      = "scored"
	OracleUnavailable = "unavailable"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	registry       *prometheus.Registry
	transitions    *prometheus.CounterVec
	phaseConflicts *prometheus.CounterVec
	oracleCalls    *prometheus.CounterVec
	created        prometheus.Counter
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventflow",
			Name:      "proposal_transitions_total",
			Help:      "Applied proposal status transitions.",
		}, []string{"from", "to"}),
		phaseConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventflow",
			Name:      "review_phase_conflicts_total",
			Help:      "Review attempts rejected because the proposal was not in the reviewer's phase.",
		}, []string{"phase"}),
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventflow",
			Name:      "oracle_calls_total",
			Help:      "Feasibility oracle calls by outcome.",
		}, []string{"outcome"}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "eventflow",
			Name:      "proposals_created_total",
			Help:      "Proposals submitted by students.",
		}),
	}
	reg.MustRegister(
		m.transitions,
		m.phaseConflicts,
		m.oracleCalls,
		m.created,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveTransition counts one applied status change.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

// ObservePhaseConflict counts one rejected review attempt.
func (m *Metrics) ObservePhaseConflict(phase string) {
	if m == nil {
		return
	}
	m.phaseConflicts.WithLabelValues(phase).Inc()
}

// ObserveOracle counts one oracle call by outcome.
func (m *Metrics) ObserveOracle(outcome string) {
	if m == nil {
		return
	}
	m.oracleCalls.WithLabelValues(outcome).Inc()
}

// ObserveCreated counts one submitted proposal.
func (m *Metrics) ObserveCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

// Transitions exposes the transition counter for inspection in tests.
func (m *Metrics) Transitions() *prometheus.CounterVec {
	return m.transitions
}

// PhaseConflicts exposes the phase conflict counter for inspection in tests.
func (m *Metrics) PhaseConflicts() *prometheus.CounterVec {
	return m.phaseConflicts
}
