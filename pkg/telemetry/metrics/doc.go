// Package metrics exposes dsm's Prometheus metrics.
//
// A Collector owns a registry with evaluation, model store, HTTP and run log
// metrics, all under the configured namespace and subsystem (by default
// "dsm_engine_"). The collector is passed to the engine as its Recorder:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	eng, err := engine.New(engineCfg, logger, engine.WithRecorder(collector))
//	mux.Handle("/metrics", collector.Handler())
//
// Model names are user controlled; past 1000 distinct names further models
// are recorded as "other".
package metrics
