// Package telemetry bundles dsm's observability: structured logging,
// Prometheus metrics, OpenTelemetry tracing and health probes.
//
// # Components
//
//   - logging: slog handlers with context fields and secret redaction
//   - metrics: evaluation, model store, HTTP and run log metrics
//   - tracing: OTLP tracing with W3C propagation
//   - health: liveness and readiness endpoints
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry, version)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	eng, err := engine.New(engineCfg, tel.Logger(),
//	    engine.WithRecorder(tel.Metrics()),
//	    engine.WithTracer(tel.Tracer()),
//	)
package telemetry
