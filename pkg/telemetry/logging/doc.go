// Package logging builds the structured loggers used by dsm.
//
// Loggers are plain *slog.Logger values; components accept one in their
// constructor. New adds two things on top of the standard handlers:
//
//   - Context fields. Records logged with a context that carries a run ID,
//     model, mode, roles or an OpenTelemetry span get those as attributes.
//   - Secret redaction. Attributes whose keys look like credentials are
//     masked, as are "password=..." style fragments in strings and errors.
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
//	ctx = logging.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "evaluation completed", "records", n)
package logging
