package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/dsm/pkg/config"
)

// StoreMetrics tracks the model store.
//
// Metrics:
//   - dsm_engine_models_loaded: number of models currently served
//   - dsm_engine_model_reloads_total: loads by result
type StoreMetrics struct {
	modelsLoaded prometheus.Gauge
	reloadsTotal *prometheus.CounterVec
}

// NewStoreMetrics creates and registers model store metrics.
func NewStoreMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StoreMetrics {
	sm := &StoreMetrics{
		modelsLoaded: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "models_loaded",
				Help:      "Number of models currently loaded",
			},
		),
		reloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "model_reloads_total",
				Help:      "Total number of model store loads",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(sm.modelsLoaded, sm.reloadsTotal)
	return sm
}

// RecordReload records a load. A failed load keeps the previous models, so
// the gauge is only updated on success.
func (sm *StoreMetrics) RecordReload(success bool, loaded int) {
	if !success {
		sm.reloadsTotal.WithLabelValues("error").Inc()
		return
	}
	sm.reloadsTotal.WithLabelValues("success").Inc()
	sm.modelsLoaded.Set(float64(loaded))
}
