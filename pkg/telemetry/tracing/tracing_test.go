package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/dsm/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.TracingConfig
		wantErr     bool
		wantEnabled bool
	}{
		{
			name:    "nil config",
			config:  nil,
			wantErr: true,
		},
		{
			name:   "disabled tracing",
			config: &config.TracingConfig{Enabled: false, ServiceName: "test-service"},
		},
		{
			name:        "enabled with always sampler",
			config:      &config.TracingConfig{Enabled: true, Sampler: "always", ServiceName: "test-service"},
			wantEnabled: true,
		},
		{
			name:        "enabled with ratio sampler",
			config:      &config.TracingConfig{Enabled: true, Sampler: "ratio", SampleRatio: 0.5},
			wantEnabled: true,
		},
		{
			name:    "unknown sampler",
			config:  &config.TracingConfig{Enabled: true, Sampler: "sometimes"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, WithExporter(tracetest.NewInMemoryExporter()))
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer tracer.Shutdown(context.Background())

			if tracer.Enabled() != tt.wantEnabled {
				t.Errorf("Enabled() = %v, want %v", tracer.Enabled(), tt.wantEnabled)
			}
		})
	}
}

func TestNew_OTLPExporterIsLazy(t *testing.T) {
	cfg := &config.TracingConfig{
		Enabled:  true,
		Sampler:  SamplerAlways,
		Endpoint: "127.0.0.1:1",
		OTLP:     config.OTLPConfig{Insecure: true},
	}
	tracer, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_ = tracer.Shutdown(context.Background())
}

func TestTracer_StartExportsSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(&config.TracingConfig{Enabled: true, Sampler: SamplerAlways}, WithExporter(exporter))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	ctx, span := tracer.Start(context.Background(), "dsm.evaluate")
	if TraceID(ctx) == "" || SpanID(ctx) == "" {
		t.Error("expected trace and span IDs in context")
	}
	span.SetAttributes(EvaluationAttributes("monitor", "list", []string{"admin"})...)
	SetRecordCount(span, 3)
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("exported %d spans, want 1", len(spans))
	}
	if spans[0].Name != "dsm.evaluate" {
		t.Errorf("span name = %q", spans[0].Name)
	}

	got := map[attribute.Key]attribute.Value{}
	for _, kv := range spans[0].Attributes {
		got[kv.Key] = kv.Value
	}
	if got[AttrModel].AsString() != "monitor" || got[AttrMode].AsString() != "list" {
		t.Errorf("unexpected attributes %v", spans[0].Attributes)
	}
	if got[AttrRecords].AsInt64() != 3 {
		t.Errorf("%s = %v, want 3", AttrRecords, got[AttrRecords])
	}
}

func TestTracer_Disabled(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx, span := tracer.Start(context.Background(), "noop")
	defer span.End()

	if TraceID(ctx) != "" {
		t.Error("noop tracer should not produce a trace ID")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestSetError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(&config.TracingConfig{Enabled: true, Sampler: SamplerAlways}, WithExporter(exporter))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer tracer.Shutdown(context.Background())

	_, span := tracer.Start(context.Background(), "failing")
	SetError(span, errors.New("boom"), "resolution", "a.b")
	SetError(span, nil, "ignored", "")
	span.End()

	s := exporter.GetSpans()[0]
	if s.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status.Code)
	}
	if len(s.Events) != 1 {
		t.Errorf("expected one recorded error event, got %d", len(s.Events))
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{strategy: SamplerAlways},
		{strategy: SamplerNever},
		{strategy: SamplerRatio, ratio: 0.25},
		{strategy: SamplerRatio, ratio: 1.5, wantErr: true},
		{strategy: SamplerRatio, ratio: -0.1, wantErr: true},
		{strategy: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.strategy, func(t *testing.T) {
			sampler, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && sampler == nil {
				t.Error("expected non-nil sampler")
			}
		})
	}
}

func TestHTTPMiddleware(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	var gotTraceID string
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceID = TraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	const want = "4bf92f3577b34da6a3ce929d0e0e4736"
	if gotTraceID != want {
		t.Errorf("handler trace ID = %q, want %q", gotTraceID, want)
	}
	if rec.Header().Get("X-Trace-ID") != want {
		t.Errorf("X-Trace-ID = %q, want %q", rec.Header().Get("X-Trace-ID"), want)
	}
}

func TestInjectRoundTrip(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	headers := http.Header{}
	headers.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	ctx := Extract(context.Background(), headers)

	out := http.Header{}
	Inject(ctx, out)
	if out.Get("traceparent") == "" {
		t.Error("expected traceparent to be injected")
	}
}
