// Package tracing provides OpenTelemetry tracing for dsm.
//
// When enabled, New installs an SDK tracer provider exporting to an OTLP
// gRPC collector and sets the W3C Trace Context and Baggage propagators
// globally. When disabled, a noop tracer is returned and spans cost almost
// nothing.
//
// # Sampling
//
//   - always: sample every trace
//   - never: sample no traces
//   - ratio: sample a fraction of traces by trace ID
//
// Every sampler respects the parent span's decision.
//
// # Usage
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, tracing.WithVersion(version))
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	eng, err := engine.New(engineCfg, logger, engine.WithTracer(tracer))
//
// The engine opens one "dsm.evaluate" span per evaluation carrying the
// dsm.model, dsm.mode and dsm.roles attributes. The HTTP server wraps its
// handler in HTTPMiddleware so spans join the caller's trace.
package tracing
