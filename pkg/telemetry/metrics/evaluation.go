package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/dsm/pkg/config"
)

// EvaluationMetrics tracks model evaluations.
//
// Metrics:
//   - dsm_engine_evaluations_total: evaluations by model, mode and status
//   - dsm_engine_evaluation_duration_seconds: evaluation duration
//   - dsm_engine_records_total: records produced by flat evaluations
//   - dsm_engine_resolver_errors_total: resolver failures by resolver and kind
type EvaluationMetrics struct {
	evaluationsTotal   *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	recordsTotal       *prometheus.CounterVec
	resolverErrors     *prometheus.CounterVec
}

// NewEvaluationMetrics creates and registers evaluation metrics.
func NewEvaluationMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EvaluationMetrics {
	em := &EvaluationMetrics{
		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluations_total",
				Help:      "Total number of model evaluations",
			},
			[]string{"model", "mode", "status"},
		),

		evaluationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "evaluation_duration_seconds",
				Help:      "Duration of model evaluations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"model", "mode"},
		),

		recordsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "records_total",
				Help:      "Total number of records produced by list and node evaluations",
			},
			[]string{"model", "mode"},
		),

		resolverErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "resolver_errors_total",
				Help:      "Total number of failed resolver calls",
			},
			[]string{"resolver", "kind"},
		),
	}

	registry.MustRegister(
		em.evaluationsTotal,
		em.evaluationDuration,
		em.recordsTotal,
		em.resolverErrors,
	)

	return em
}

// RecordEvaluation records one evaluation. Detail evaluations produce a
// single tree and are not counted as records.
func (em *EvaluationMetrics) RecordEvaluation(model, mode, status string, duration time.Duration, records int) {
	em.evaluationsTotal.WithLabelValues(model, mode, status).Inc()
	em.evaluationDuration.WithLabelValues(model, mode).Observe(duration.Seconds())
	if mode != "detail" && records > 0 {
		em.recordsTotal.WithLabelValues(model, mode).Add(float64(records))
	}
}

// RecordResolverError records a resolver failure.
func (em *EvaluationMetrics) RecordResolverError(resolver, kind string) {
	em.resolverErrors.WithLabelValues(resolver, kind).Inc()
}
