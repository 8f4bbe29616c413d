// Package metrics provides the Prometheus-backed implementation of
// pkg/ports.MetricsSink, the injectable metrics abstraction the audit
// trail and pipeline emit through.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nauanbek/saqshy/pkg/types"
)

// PrometheusSink implements ports.MetricsSink against a dedicated registry,
// exposing the standard counters and histograms an operator needs to watch
// the decision core: decisions by group/verdict, actions by type/outcome,
// analyzer latency, and circuit-breaker trips.
type PrometheusSink struct {
	registry *prometheus.Registry

	decisions       *prometheus.CounterVec
	actions         *prometheus.CounterVec
	analyzerLatency *prometheus.HistogramVec
	circuitOpens    *prometheus.CounterVec
}

// NewPrometheusSink constructs a sink with its own registry so multiple
// instances (e.g. in tests) never collide on global metric registration.
func NewPrometheusSink() *PrometheusSink {
	reg := prometheus.NewRegistry()

	s := &PrometheusSink{
		registry: reg,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saqshy_decisions_total",
			Help: "Number of moderation decisions, by group type and verdict.",
		}, []string{"group_type", "verdict"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saqshy_actions_total",
			Help: "Number of action-engine side effects attempted, by action type and outcome.",
		}, []string{"action_type", "outcome"}),
		analyzerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "saqshy_analyzer_duration_seconds",
			Help:    "Analyzer execution time in seconds, by analyzer name.",
			Buckets: prometheus.DefBuckets,
		}, []string{"analyzer"}),
		circuitOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saqshy_circuit_breaker_open_total",
			Help: "Number of times a named circuit breaker tripped open.",
		}, []string{"breaker"}),
	}

	reg.MustRegister(s.decisions, s.actions, s.analyzerLatency, s.circuitOpens)
	return s
}

// IncDecision implements ports.MetricsSink.
func (s *PrometheusSink) IncDecision(groupType types.GroupType, verdict types.Verdict) {
	s.decisions.WithLabelValues(string(groupType), string(verdict)).Inc()
}

// IncAction implements ports.MetricsSink.
func (s *PrometheusSink) IncAction(actionType types.ActionType, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	s.actions.WithLabelValues(string(actionType), outcome).Inc()
}

// ObserveAnalyzerDuration implements ports.MetricsSink.
func (s *PrometheusSink) ObserveAnalyzerDuration(analyzer string, seconds float64) {
	s.analyzerLatency.WithLabelValues(analyzer).Observe(seconds)
}

// IncCircuitOpen implements ports.MetricsSink.
func (s *PrometheusSink) IncCircuitOpen(name string) {
	s.circuitOpens.WithLabelValues(name).Inc()
}

// Handler returns an HTTP handler serving the registry in Prometheus text
// exposition format, mounted at /metrics by cmd/saqshy.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
