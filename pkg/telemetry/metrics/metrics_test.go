package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"mercator-hq/dsm/pkg/config"
	"mercator-hq/dsm/pkg/model"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:         true,
		Namespace:       "test",
		Subsystem:       "engine",
		DurationBuckets: []float64{0.01, 0.1, 1.0},
	}
}

func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.Registry() != registry {
		t.Error("Collector registry not set correctly")
	}
}

func TestCollector_NewCollectorDefaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	collector := NewCollector(cfg, nil)

	if cfg.Namespace != config.DefaultMetricsNamespace || cfg.Subsystem != config.DefaultMetricsSubsystem {
		t.Errorf("namespace/subsystem = %q/%q", cfg.Namespace, cfg.Subsystem)
	}
	if len(cfg.DurationBuckets) == 0 {
		t.Error("expected default duration buckets")
	}
	if collector.Registry() == nil {
		t.Fatal("expected a registry")
	}
}

func TestCollector_RecordEvaluation(t *testing.T) {
	tests := []struct {
		name    string
		model   string
		mode    string
		status  string
		records int
	}{
		{name: "detail success", model: "monitor", mode: "detail", status: "success", records: 1},
		{name: "list success", model: "monitor", mode: "list", status: "success", records: 4},
		{name: "node failure", model: "arp", mode: "node", status: "resolution", records: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := NewCollector(testConfig(), prometheus.NewRegistry())
			collector.RecordEvaluation(tt.model, tt.mode, tt.status, 20*time.Millisecond, tt.records)

			got := testutil.ToFloat64(collector.evaluationMetrics.evaluationsTotal.WithLabelValues(tt.model, tt.mode, tt.status))
			if got != 1 {
				t.Errorf("evaluations_total = %v, want 1", got)
			}

			wantRecords := float64(tt.records)
			if tt.mode == "detail" {
				wantRecords = 0
			}
			got = testutil.ToFloat64(collector.evaluationMetrics.recordsTotal.WithLabelValues(tt.model, tt.mode))
			if got != wantRecords {
				t.Errorf("records_total = %v, want %v", got, wantRecords)
			}
		})
	}
}

func TestCollector_RecordEvaluationEmptyModel(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordEvaluation("", "detail", "success", time.Millisecond, 1)

	got := testutil.ToFloat64(collector.evaluationMetrics.evaluationsTotal.WithLabelValues("unnamed", "detail", "success"))
	if got != 1 {
		t.Errorf("evaluations_total{model=unnamed} = %v, want 1", got)
	}
}

func TestCollector_RecordResolverError(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordResolverError("json_key_item", model.ErrorResolution)
	collector.RecordResolverError("json_key_item", model.ErrorResolution)

	got := testutil.ToFloat64(collector.evaluationMetrics.resolverErrors.WithLabelValues("json_key_item", string(model.ErrorResolution)))
	if got != 2 {
		t.Errorf("resolver_errors_total = %v, want 2", got)
	}
}

func TestCollector_RecordModelReload(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordModelReload(true, 3)
	collector.RecordModelReload(false, 0)

	if got := testutil.ToFloat64(collector.storeMetrics.modelsLoaded); got != 3 {
		t.Errorf("models_loaded = %v, want 3", got)
	}
	if got := testutil.ToFloat64(collector.storeMetrics.reloadsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("model_reloads_total{success} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.storeMetrics.reloadsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("model_reloads_total{error} = %v, want 1", got)
	}
}

func TestCollector_RecordHTTPRequest(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordHTTPRequest("/v1/models/{name}/{mode}", http.MethodPost, 200, 5*time.Millisecond)

	got := testutil.ToFloat64(collector.httpMetrics.requestsTotal.WithLabelValues("/v1/models/{name}/{mode}", http.MethodPost, "200"))
	if got != 1 {
		t.Errorf("http_requests_total = %v, want 1", got)
	}
}

func TestCollector_RecordRunLog(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordRunsPruned(5)
	collector.RecordRunsPruned(0)
	collector.RecordRunLogError()

	if got := testutil.ToFloat64(collector.runLogMetrics.prunedTotal); got != 5 {
		t.Errorf("runs_pruned_total = %v, want 5", got)
	}
	if got := testutil.ToFloat64(collector.runLogMetrics.errorsTotal); got != 1 {
		t.Errorf("runlog_errors_total = %v, want 1", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	collector := NewCollector(cfg, prometheus.NewRegistry())

	collector.RecordEvaluation("monitor", "detail", "success", time.Millisecond, 1)
	collector.RecordResolverError("json_key", model.ErrorResolution)
	collector.RecordModelReload(true, 2)

	if got := testutil.CollectAndCount(collector.evaluationMetrics.evaluationsTotal); got != 0 {
		t.Errorf("expected no evaluation series, got %d", got)
	}
	if got := testutil.ToFloat64(collector.storeMetrics.modelsLoaded); got != 0 {
		t.Errorf("models_loaded = %v, want 0", got)
	}
}

func TestCollector_CardinalityLimit(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.cardinalityLimiter = NewCardinalityLimiter(2)

	for _, name := range []string{"a", "b", "c", "d", "a"} {
		collector.RecordEvaluation(name, "list", "success", time.Millisecond, 1)
	}

	if got := testutil.ToFloat64(collector.evaluationMetrics.evaluationsTotal.WithLabelValues("a", "list", "success")); got != 2 {
		t.Errorf("evaluations_total{model=a} = %v, want 2", got)
	}
	if got := testutil.ToFloat64(collector.evaluationMetrics.evaluationsTotal.WithLabelValues(otherLabel, "list", "success")); got != 2 {
		t.Errorf("evaluations_total{model=other} = %v, want 2", got)
	}
}

func TestCardinalityLimiter(t *testing.T) {
	cl := NewCardinalityLimiter(2)

	if !cl.Allow("x") || !cl.Allow("y") {
		t.Fatal("first two label sets should be allowed")
	}
	if cl.Allow("z") {
		t.Error("third label set should be rejected")
	}
	if !cl.Allow("x") {
		t.Error("existing label set should stay allowed")
	}
	if cl.Count() != 2 {
		t.Errorf("Count() = %d, want 2", cl.Count())
	}
}

func TestCollector_Handler(t *testing.T) {
	collector := NewCollector(testConfig(), prometheus.NewRegistry())
	collector.RecordEvaluation("monitor", "detail", "success", time.Millisecond, 1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_engine_evaluations_total") {
		t.Errorf("expected evaluations_total in output, got:\n%s", rec.Body.String())
	}
}
