// Package metrics exposes Prometheus instrumentation for the evaluation
// engine and the pack watcher.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// EngineMetrics holds the engine-side collectors. A nil *EngineMetrics is
// valid everywhere and records nothing, so library users without a
// metrics pipeline pay no cost.
type EngineMetrics struct {
	registry *prometheus.Registry

	EvaluationsTotal   *prometheus.CounterVec
	ComparatorTimeouts prometheus.Counter
	BudgetExhausted    prometheus.Counter
	EvaluationDuration prometheus.Histogram
	PackReloads        prometheus.Counter
	PackLintFailures   prometheus.Counter
}

// New builds the collectors on a fresh registry.
func New() *EngineMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &EngineMetrics{
		registry: reg,
		EvaluationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "packgate",
			Name:      "evaluations_total",
			Help:      "Pack evaluations completed, by decision.",
		}, []string{"decision"}),
		ComparatorTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "packgate",
			Name:      "comparator_timeouts_total",
			Help:      "Comparator invocations abandoned at the per-comparator timeout.",
		}),
		BudgetExhausted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "packgate",
			Name:      "budget_exhausted_total",
			Help:      "Evaluations halted by the total wall-clock budget.",
		}),
		EvaluationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "packgate",
			Name:      "evaluation_duration_seconds",
			Help:      "Wall-clock duration of one pack evaluation.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		PackReloads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "packgate",
			Name:      "pack_reloads_total",
			Help:      "Pack directory reloads triggered by the watcher.",
		}),
		PackLintFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "packgate",
			Name:      "pack_lint_failures_total",
			Help:      "Pack files rejected by validation during reload.",
		}),
	}
}

// ObserveEvaluation records one completed evaluation.
func (m *EngineMetrics) ObserveEvaluation(decision string, seconds float64, budgetExhausted bool) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(decision).Inc()
	m.EvaluationDuration.Observe(seconds)
	if budgetExhausted {
		m.BudgetExhausted.Inc()
	}
}

// ObserveComparatorTimeout records one abandoned comparator invocation.
func (m *EngineMetrics) ObserveComparatorTimeout() {
	if m == nil {
		return
	}
	m.ComparatorTimeouts.Inc()
}

// ObservePackReload records one watcher-triggered reload.
func (m *EngineMetrics) ObservePackReload(lintFailures int) {
	if m == nil {
		return
	}
	m.PackReloads.Inc()
	m.PackLintFailures.Add(float64(lintFailures))
}

// Handler serves the registry in Prometheus exposition format.
func (m *EngineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
