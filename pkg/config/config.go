package config

import "time"

// Config is the root configuration structure for the dsm engine and server.
type Config struct {
	// Engine contains evaluation settings shared by the CLI and the server.
	Engine EngineConfig `yaml:"engine"`

	// Models contains the location of the model documents and reload settings.
	Models ModelsConfig `yaml:"models"`

	// RunLog contains configuration for the evaluation run log.
	RunLog RunLogConfig `yaml:"runlog"`

	// Server contains HTTP server configuration for "dsm serve".
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for logging, metrics, tracing and
	// health endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig contains evaluation settings.
type EngineConfig struct {
	// CommonKeys are the root children whose fields are merged into every
	// flat record. The first key present in a model wins.
	// Default: ["common", "standard"]
	CommonKeys []string `yaml:"common_keys"`

	// CommonPrefix is prepended to each common field name.
	// Default: "common_"
	CommonPrefix string `yaml:"common_prefix"`

	// DefaultRoles are used when a request names no roles. Empty means
	// every node is visible.
	DefaultRoles []string `yaml:"default_roles"`

	// RecurseItem applies a list's "item" schema to each element.
	// Default: true
	RecurseItem bool `yaml:"recurse_item"`

	// Timeout bounds a single evaluation.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// ModelsConfig contains model store configuration.
type ModelsConfig struct {
	// Path is a model file or a directory of .yaml, .yml and .json models.
	// Default: "./models"
	Path string `yaml:"path"`

	// Watch reloads models when files under Path change.
	// Default: false
	Watch bool `yaml:"watch"`

	// Debounce delays a reload until file events settle.
	// Default: 250ms
	Debounce time.Duration `yaml:"debounce"`

	// Strict rejects models that fail static validation at load time.
	// Default: false
	Strict bool `yaml:"strict"`
}

// RunLogConfig contains configuration for the evaluation run log.
type RunLogConfig struct {
	// Enabled controls whether evaluations are recorded.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite backend configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// MaxRecords caps the in-memory backend. Zero means unlimited.
	// Default: 10000
	MaxRecords int `yaml:"max_records"`

	// Retention contains pruning configuration.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite backend configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/runs.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RetentionConfig contains run log pruning configuration.
type RetentionConfig struct {
	// Days is the number of days to keep runs. Zero keeps them forever.
	// Default: 30
	Days int `yaml:"days"`

	// MaxRecords is the maximum number of runs to keep. Zero means unlimited.
	// Default: 0
	MaxRecords int64 `yaml:"max_records"`

	// PruneSchedule is a cron expression for the pruning job.
	// Default: "0 3 * * *" (daily at 3 AM)
	PruneSchedule string `yaml:"prune_schedule"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes limits the size of an evaluation request body.
	// Default: 10MB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// Auth contains API key authentication configuration.
	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig contains API key authentication configuration.
type AuthConfig struct {
	// Enabled requires an API key on every /v1 request.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Header is the request header carrying the key.
	// Default: "Authorization"
	Header string `yaml:"header"`

	// Scheme is stripped from the header value when set.
	// Default: "Bearer"
	Scheme string `yaml:"scheme"`

	// Keys are the accepted API keys.
	Keys []APIKeyConfig `yaml:"keys"`
}

// APIKeyConfig describes one API key.
type APIKeyConfig struct {
	// Name identifies the key in logs and the run log.
	Name string `yaml:"name"`

	// Key is the secret value.
	Key string `yaml:"key"`

	// Roles are the roles the key may evaluate as. Empty allows any role.
	Roles []string `yaml:"roles"`

	// Disabled rejects the key without removing it.
	Disabled bool `yaml:"disabled"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks attributes whose keys look like credentials.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`

	// RedactKeys adds attribute key fragments to the built-in list.
	RedactKeys []string `yaml:"redact_keys"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "dsm"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "engine"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets defines histogram buckets for evaluation duration (seconds).
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5]
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint, e.g. "localhost:4317".
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "dsm"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are enabled.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/healthz"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/readyz"
	ReadinessPath string `yaml:"readiness_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
