// Package health serves dsm's liveness and readiness probes.
//
// Liveness answers 200 while the process runs. Readiness runs the
// registered component checks concurrently, each bounded by the configured
// timeout, and answers 503 when any fails:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout, version)
//	checker.Register("models", store.Check)
//	checker.Register("runlog", runs.Ping)
//	checker.Mount(mux, "/healthz", "/readyz")
package health
