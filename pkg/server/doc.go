// Package server exposes the extraction engine over HTTP.
//
// Models are served from a modelstore.Store and evaluated per request:
//
//	POST /v1/models/{name}/{mode}   evaluate a model (detail, list or node)
//	GET  /v1/models                 list loaded models
//	GET  /v1/models/{name}          describe one model
//	GET  /v1/runs                   query the run log (with WithRunLog)
//
// An evaluation request carries the active roles and the named input
// documents:
//
//	{"roles": ["admin"], "inputs": {"input": {"items": ["a", "b"]}}}
//
// With WithAuth every /v1 route needs an API key. A key limits the roles a
// request may ask for, and a request naming no roles evaluates with all of
// the key's roles. Health and metrics endpoints stay open.
//
// Failures are returned as {"error": {"kind", "dn", "message"}}. Model
// errors (invalid_model, resolution, postformat) use 422 and name the dn
// of the failing node.
//
// # Usage
//
//	srv := server.New(&cfg.Server, eng, store, logger,
//	    server.WithRunLog(runs),
//	    server.WithMetrics(tel.Metrics(), cfg.Telemetry.Metrics.Path),
//	    server.WithHealth(tel.Health(), "/health", "/ready"),
//	)
//	if err := srv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until ctx is cancelled and then shuts down gracefully within
// the configured shutdown timeout.
package server
