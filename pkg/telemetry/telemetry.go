package telemetry

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/dsm/pkg/config"
	"mercator-hq/dsm/pkg/telemetry/health"
	"mercator-hq/dsm/pkg/telemetry/logging"
	"mercator-hq/dsm/pkg/telemetry/metrics"
	"mercator-hq/dsm/pkg/telemetry/tracing"
)

// Telemetry holds the process-wide logger, metrics collector, tracer and
// health checker.
type Telemetry struct {
	config  *config.TelemetryConfig
	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	health  *health.Checker
}

// Option configures New.
type Option func(*options)

type options struct {
	logWriter     io.Writer
	tracerOptions []tracing.Option
}

// WithLogWriter sends log output to w instead of stderr.
func WithLogWriter(w io.Writer) Option {
	return func(o *options) { o.logWriter = w }
}

// WithTracerOptions passes options to tracing.New.
func WithTracerOptions(opts ...tracing.Option) Option {
	return func(o *options) { o.tracerOptions = append(o.tracerOptions, opts...) }
}

// New builds every telemetry component from cfg.
func New(cfg *config.TelemetryConfig, version string, opts ...Option) (*Telemetry, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logCfg := logging.FromConfig(cfg.Logging)
	logCfg.Writer = o.logWriter
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	tracerOpts := append([]tracing.Option{tracing.WithVersion(version)}, o.tracerOptions...)
	tracer, err := tracing.New(&cfg.Tracing, tracerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	return &Telemetry{
		config:  cfg,
		logger:  logger,
		metrics: metrics.NewCollector(&cfg.Metrics, nil),
		tracer:  tracer,
		health:  health.New(cfg.Health.CheckTimeout, version),
	}, nil
}

// Logger returns the structured logger.
func (t *Telemetry) Logger() *slog.Logger { return t.logger }

// Metrics returns the metrics collector.
func (t *Telemetry) Metrics() *metrics.Collector { return t.metrics }

// Tracer returns the tracer.
func (t *Telemetry) Tracer() *tracing.Tracer { return t.tracer }

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker { return t.health }

// Config returns the telemetry configuration.
func (t *Telemetry) Config() *config.TelemetryConfig { return t.config }

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.tracer.Shutdown(ctx)
}
