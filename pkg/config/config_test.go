package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dsm.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  default_roles: [ops]
  recurse_item: false
  timeout: 5s
models:
  path: ./testdata
  watch: true
runlog:
  enabled: true
  backend: sqlite
  sqlite:
    path: ./runs.db
  retention:
    days: 7
    prune_schedule: "*/10 * * * *"
server:
  listen_address: "0.0.0.0:9090"
telemetry:
  logging:
    level: debug
    format: text
  metrics:
    enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if diff := cmp.Diff([]string{"ops"}, cfg.Engine.DefaultRoles); diff != "" {
		t.Errorf("default roles mismatch (-want +got):\n%s", diff)
	}
	if cfg.Engine.RecurseItem {
		t.Error("expected recurse_item to be turned off")
	}
	if cfg.Engine.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Engine.Timeout)
	}
	if !cfg.Models.Watch || cfg.Models.Path != "./testdata" {
		t.Errorf("unexpected models config: %+v", cfg.Models)
	}
	if cfg.RunLog.Backend != "sqlite" || cfg.RunLog.SQLite.Path != "./runs.db" {
		t.Errorf("unexpected runlog config: %+v", cfg.RunLog)
	}
	if cfg.RunLog.Retention.Days != 7 {
		t.Errorf("expected retention days 7, got %d", cfg.RunLog.Retention.Days)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("expected listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
	}
	if cfg.Telemetry.Metrics.Enabled {
		t.Error("expected metrics to be turned off")
	}

	// Untouched sections keep their defaults.
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("expected read timeout %v, got %v", DefaultReadTimeout, cfg.Server.ReadTimeout)
	}
	if !cfg.Telemetry.Health.Enabled {
		t.Error("expected health endpoints to stay enabled")
	}
	if !cfg.RunLog.SQLite.WALMode {
		t.Error("expected WAL mode to stay enabled")
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "malformed yaml",
			content: "server:\n  listen_address: [\n",
			want:    "failed to parse",
		},
		{
			name:    "unknown key",
			content: "server:\n  listen_adress: \":80\"\n",
			want:    "listen_adress",
		},
		{
			name:    "invalid values",
			content: "runlog:\n  backend: postgres\ntelemetry:\n  logging:\n    level: loud\n",
			want:    "validation failed with 2 errors",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got: %v", tt.want, err)
			}
		})
	}

	if _, err := LoadConfig("/nonexistent/dsm.yaml"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected a not-exist error, got: %v", err)
	}
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("empty document should yield the defaults (-want +got):\n%s", diff)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if diff := cmp.Diff(DefaultCommonKeys, cfg.Engine.CommonKeys); diff != "" {
		t.Errorf("common keys mismatch (-want +got):\n%s", diff)
	}
	if cfg.Engine.CommonPrefix != DefaultCommonPrefix {
		t.Errorf("expected common prefix %q, got %q", DefaultCommonPrefix, cfg.Engine.CommonPrefix)
	}
	if cfg.Models.Path != DefaultModelsPath {
		t.Errorf("expected models path %q, got %q", DefaultModelsPath, cfg.Models.Path)
	}
	if cfg.RunLog.Backend != DefaultRunLogBackend {
		t.Errorf("expected backend %q, got %q", DefaultRunLogBackend, cfg.RunLog.Backend)
	}
	if cfg.RunLog.Retention.PruneSchedule != DefaultPruneSchedule {
		t.Errorf("expected schedule %q, got %q", DefaultPruneSchedule, cfg.RunLog.Retention.PruneSchedule)
	}
	if cfg.Server.MaxBodyBytes != DefaultMaxBodyBytes {
		t.Errorf("expected max body bytes %d, got %d", DefaultMaxBodyBytes, cfg.Server.MaxBodyBytes)
	}
	if cfg.Telemetry.Metrics.Namespace != DefaultMetricsNamespace {
		t.Errorf("expected namespace %q, got %q", DefaultMetricsNamespace, cfg.Telemetry.Metrics.Namespace)
	}

	// Idempotent, and the defaults do not alias the package slices.
	cfg.Engine.CommonKeys[0] = "changed"
	ApplyDefaults(cfg)
	if DefaultCommonKeys[0] != "common" {
		t.Error("ApplyDefaults must copy DefaultCommonKeys")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty common key", func(c *Config) { c.Engine.CommonKeys = []string{"common", ""} }, "engine.common_keys"},
		{"negative timeout", func(c *Config) { c.Engine.Timeout = -time.Second }, "engine.timeout"},
		{"bad backend", func(c *Config) { c.RunLog.Backend = "redis" }, "runlog.backend"},
		{"sqlite without path", func(c *Config) { c.RunLog.Backend = "sqlite"; c.RunLog.SQLite.Path = "" }, "runlog.sqlite.path"},
		{"bad schedule", func(c *Config) { c.RunLog.Retention.PruneSchedule = "every day" }, "runlog.retention.prune_schedule"},
		{"bad listen address", func(c *Config) { c.Server.ListenAddress = "8080" }, "server.listen_address"},
		{"negative write timeout", func(c *Config) { c.Server.WriteTimeout = -1 }, "server.write_timeout"},
		{"auth without keys", func(c *Config) { c.Server.Auth.Enabled = true }, "server.auth.keys"},
		{"auth with only disabled keys", func(c *Config) {
			c.Server.Auth.Enabled = true
			c.Server.Auth.Keys = []APIKeyConfig{{Name: "old", Key: "k1", Disabled: true}}
		}, "server.auth.keys"},
		{"empty api key", func(c *Config) { c.Server.Auth.Keys = []APIKeyConfig{{Name: "ci"}} }, "server.auth.keys[0].key"},
		{"duplicate api key", func(c *Config) {
			c.Server.Auth.Keys = []APIKeyConfig{{Name: "a", Key: "k1"}, {Name: "b", Key: "k1"}}
		}, "server.auth.keys[1].key"},
		{"bad format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
		{"tracing without endpoint", func(c *Config) { c.Telemetry.Tracing.Enabled = true }, "telemetry.tracing.endpoint"},
		{"bad sampler", func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" }, "telemetry.tracing.sampler"},
		{"bad ratio", func(c *Config) { c.Telemetry.Tracing.SampleRatio = 1.5 }, "telemetry.tracing.sample_ratio"},
		{"bad readiness path", func(c *Config) { c.Telemetry.Health.ReadinessPath = "ready" }, "telemetry.health.readiness_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)

			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected valid config, got: %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected an error on %q, got: %v", tt.field, err)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("unexpected message: %q", got)
	}

	multi := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if !strings.Contains(multi.Error(), "  - b: worse") {
		t.Errorf("unexpected message: %q", multi.Error())
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  listen_address: \"127.0.0.1:8080\"\n")

	t.Setenv("DSM_SERVER_LISTEN_ADDRESS", "0.0.0.0:9999")
	t.Setenv("DSM_ENGINE_DEFAULT_ROLES", "ops, admin,")
	t.Setenv("DSM_ENGINE_TIMEOUT", "2s")
	t.Setenv("DSM_RUNLOG_ENABLED", "true")
	t.Setenv("DSM_RUNLOG_RETENTION_MAX_RECORDS", "500")
	t.Setenv("DSM_TELEMETRY_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("DSM_MODELS_WATCH", "not-a-bool")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9999" {
		t.Errorf("expected listen address override, got %q", cfg.Server.ListenAddress)
	}
	if diff := cmp.Diff([]string{"ops", "admin"}, cfg.Engine.DefaultRoles); diff != "" {
		t.Errorf("default roles mismatch (-want +got):\n%s", diff)
	}
	if cfg.Engine.Timeout != 2*time.Second {
		t.Errorf("expected timeout 2s, got %v", cfg.Engine.Timeout)
	}
	if !cfg.RunLog.Enabled || cfg.RunLog.Retention.MaxRecords != 500 {
		t.Errorf("unexpected runlog config: %+v", cfg.RunLog)
	}
	if cfg.Telemetry.Tracing.SampleRatio != 0.25 {
		t.Errorf("expected sample ratio 0.25, got %v", cfg.Telemetry.Tracing.SampleRatio)
	}
	if cfg.Models.Watch {
		t.Error("an unparsable override must be ignored")
	}
}

func TestLoadConfigWithEnvOverrides_NoFile(t *testing.T) {
	t.Setenv("DSM_TELEMETRY_LOGGING_LEVEL", "warn")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %q", cfg.Telemetry.Logging.Level)
	}

	t.Setenv("DSM_RUNLOG_BACKEND", "etcd")
	if _, err := LoadConfigWithEnvOverrides(""); err == nil {
		t.Error("expected validation to fail after overrides")
	}
}
