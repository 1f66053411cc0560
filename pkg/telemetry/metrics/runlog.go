package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/dsm/pkg/config"
)

// RunLogMetrics tracks the evaluation run log.
//
// Metrics:
//   - dsm_engine_runs_pruned_total: runs removed by retention
//   - dsm_engine_runlog_errors_total: failed run log writes
type RunLogMetrics struct {
	prunedTotal prometheus.Counter
	errorsTotal prometheus.Counter
}

// NewRunLogMetrics creates and registers run log metrics.
func NewRunLogMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RunLogMetrics {
	rm := &RunLogMetrics{
		prunedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "runs_pruned_total",
			Help:      "Total number of runs removed by retention",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "runlog_errors_total",
			Help:      "Total number of failed run log writes",
		}),
	}

	registry.MustRegister(rm.prunedTotal, rm.errorsTotal)
	return rm
}

// RecordPruned adds count pruned runs.
func (rm *RunLogMetrics) RecordPruned(count int64) {
	if count > 0 {
		rm.prunedTotal.Add(float64(count))
	}
}

// RecordError counts a failed write.
func (rm *RunLogMetrics) RecordError() {
	rm.errorsTotal.Inc()
}
