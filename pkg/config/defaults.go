package config

import "time"

// Default values for configuration fields.
const (
	// Engine defaults
	DefaultCommonPrefix  = "common_"
	DefaultRecurseItem   = true
	DefaultEngineTimeout = 30 * time.Second

	// Models defaults
	DefaultModelsPath     = "./models"
	DefaultModelsDebounce = 250 * time.Millisecond

	// Run log defaults
	DefaultRunLogBackend           = "memory"
	DefaultRunLogMaxRecords        = 10000
	DefaultRunLogSQLitePath        = "data/runs.db"
	DefaultRunLogSQLiteMaxOpen     = 10
	DefaultRunLogSQLiteMaxIdle     = 5
	DefaultRunLogSQLiteWALMode     = true
	DefaultRunLogSQLiteBusyTimeout = 5 * time.Second
	DefaultRetentionDays           = 30
	DefaultPruneSchedule           = "0 3 * * *"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(10 * 1024 * 1024)
	DefaultAuthHeader      = "Authorization"
	DefaultAuthScheme      = "Bearer"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultRedactSecrets      = true
	DefaultMetricsEnabled     = true
	DefaultPrometheusPath     = "/metrics"
	DefaultMetricsNamespace   = "dsm"
	DefaultMetricsSubsystem   = "engine"
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingService     = "dsm"
	DefaultOTLPTimeout        = 10 * time.Second
	DefaultHealthEnabled      = true
	DefaultLivenessPath       = "/healthz"
	DefaultReadinessPath      = "/readyz"
	DefaultHealthCheckTimeout = 5 * time.Second
)

// DefaultCommonKeys are the root children searched for common fields.
var DefaultCommonKeys = []string{"common", "standard"}

// DefaultDurationBuckets are the evaluation duration histogram buckets.
var DefaultDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// Default returns a fully defaulted configuration. LoadConfig decodes the
// file over it so that boolean settings which default to true can still be
// turned off.
func Default() *Config {
	cfg := &Config{}
	cfg.Engine.RecurseItem = DefaultRecurseItem
	cfg.RunLog.SQLite.WALMode = DefaultRunLogSQLiteWALMode
	cfg.Telemetry.Logging.RedactSecrets = DefaultRedactSecrets
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Enabled = DefaultTracingEnabled
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Engine defaults
	if len(cfg.Engine.CommonKeys) == 0 {
		cfg.Engine.CommonKeys = append([]string(nil), DefaultCommonKeys...)
	}
	if cfg.Engine.CommonPrefix == "" {
		cfg.Engine.CommonPrefix = DefaultCommonPrefix
	}
	if cfg.Engine.Timeout == 0 {
		cfg.Engine.Timeout = DefaultEngineTimeout
	}

	// Models defaults
	if cfg.Models.Path == "" {
		cfg.Models.Path = DefaultModelsPath
	}
	if cfg.Models.Debounce == 0 {
		cfg.Models.Debounce = DefaultModelsDebounce
	}

	// Run log defaults
	if cfg.RunLog.Backend == "" {
		cfg.RunLog.Backend = DefaultRunLogBackend
	}
	if cfg.RunLog.MaxRecords == 0 {
		cfg.RunLog.MaxRecords = DefaultRunLogMaxRecords
	}
	if cfg.RunLog.SQLite.Path == "" {
		cfg.RunLog.SQLite.Path = DefaultRunLogSQLitePath
	}
	if cfg.RunLog.SQLite.MaxOpenConns == 0 {
		cfg.RunLog.SQLite.MaxOpenConns = DefaultRunLogSQLiteMaxOpen
	}
	if cfg.RunLog.SQLite.MaxIdleConns == 0 {
		cfg.RunLog.SQLite.MaxIdleConns = DefaultRunLogSQLiteMaxIdle
	}
	if cfg.RunLog.SQLite.BusyTimeout == 0 {
		cfg.RunLog.SQLite.BusyTimeout = DefaultRunLogSQLiteBusyTimeout
	}
	if cfg.RunLog.Retention.Days == 0 {
		cfg.RunLog.Retention.Days = DefaultRetentionDays
	}
	if cfg.RunLog.Retention.PruneSchedule == "" {
		cfg.RunLog.Retention.PruneSchedule = DefaultPruneSchedule
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.Auth.Header == "" {
		cfg.Server.Auth.Header = DefaultAuthHeader
		if cfg.Server.Auth.Scheme == "" {
			cfg.Server.Auth.Scheme = DefaultAuthScheme
		}
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultPrometheusPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(cfg.Telemetry.Metrics.DurationBuckets) == 0 {
		cfg.Telemetry.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingService
	}
	if cfg.Telemetry.Tracing.OTLP.Timeout == 0 {
		cfg.Telemetry.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}
	if cfg.Telemetry.Health.LivenessPath == "" {
		cfg.Telemetry.Health.LivenessPath = DefaultLivenessPath
	}
	if cfg.Telemetry.Health.ReadinessPath == "" {
		cfg.Telemetry.Health.ReadinessPath = DefaultReadinessPath
	}
	if cfg.Telemetry.Health.CheckTimeout == 0 {
		cfg.Telemetry.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
