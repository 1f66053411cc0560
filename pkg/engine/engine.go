package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"mercator-hq/dsm/pkg/model"
	"mercator-hq/dsm/pkg/pipeline"
	"mercator-hq/dsm/pkg/resolver"
	"mercator-hq/dsm/pkg/telemetry/tracing"
)

// Mode selects an evaluator.
type Mode string

const (
	// ModeDetail returns the nested value tree.
	ModeDetail Mode = "detail"

	// ModeList returns one flat record per leaf.
	ModeList Mode = "list"

	// ModeNode returns flat records with scalar siblings grouped.
	ModeNode Mode = "node"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeDetail, ModeList, ModeNode:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (want detail, list or node)", s)
	}
}

// Record is one flat evaluation entry.
type Record map[string]any

// Input is the data of one top-level evaluation.
type Input struct {
	// Model names the model for logs and metrics. Optional.
	Model string

	// Documents are the named input documents.
	Documents resolver.Documents

	// Roles are the active roles. Empty means every node is visible.
	Roles []string
}

// Result is the outcome of Run.
type Result struct {
	Mode Mode

	// Value is set in detail mode.
	Value any

	// Records is set in list and node modes.
	Records []Record

	Duration time.Duration
}

// Count returns the number of records, or 1 for a detail result.
func (r *Result) Count() int {
	if r.Mode == ModeDetail {
		return 1
	}
	return len(r.Records)
}

// Recorder receives evaluation metrics.
type Recorder interface {
	RecordEvaluation(model, mode, status string, duration time.Duration, records int)
	RecordResolverError(resolver string, kind model.ErrorKind)
}

// Tracer starts spans. Both an OpenTelemetry trace.Tracer and
// tracing.Tracer satisfy it.
type Tracer interface {
	Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span)
}

// Option configures an Engine.
type Option func(*Engine)

// WithResolvers replaces the default resolver registry.
func WithResolvers(r *resolver.Registry) Option {
	return func(e *Engine) { e.resolvers = r }
}

// WithPipeline replaces the default filter and postformat registries.
func WithPipeline(p *pipeline.Pipeline) Option {
	return func(e *Engine) { e.pipeline = p }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithTracer sets the tracer.
func WithTracer(t Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// Engine evaluates models.
type Engine struct {
	config    *EngineConfig
	resolvers *resolver.Registry
	pipeline  *pipeline.Pipeline
	recorder  Recorder
	tracer    Tracer
	logger    *slog.Logger
}

// New creates an engine with the built-in resolvers, filters and
// postformats unless options replace them.
func New(config *EngineConfig, logger *slog.Logger, opts ...Option) (*Engine, error) {
	if config == nil {
		config = DefaultEngineConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		config: config,
		logger: logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.resolvers == nil {
		e.resolvers = resolver.NewDefaultRegistry()
	}
	if e.pipeline == nil {
		e.pipeline = pipeline.New()
	}
	if e.tracer == nil {
		e.tracer = noop.NewTracerProvider().Tracer("dsm/engine")
	}
	return e, nil
}

// Resolvers returns the resolver registry.
func (e *Engine) Resolvers() *resolver.Registry {
	return e.resolvers
}

// Pipeline returns the filter and postformat registries.
func (e *Engine) Pipeline() *pipeline.Pipeline {
	return e.pipeline
}

// HasResolver implements model.Catalog.
func (e *Engine) HasResolver(name string) bool {
	return e.resolvers.Has(name)
}

// HasFilter implements model.Catalog.
func (e *Engine) HasFilter(name string) bool {
	return e.pipeline.HasFilter(name)
}

// HasPostformat implements model.Catalog.
func (e *Engine) HasPostformat(name string) bool {
	return e.pipeline.HasPostformat(name)
}

// ResolverNames implements model.NameLister.
func (e *Engine) ResolverNames() []string {
	return e.resolvers.Names()
}

// FilterNames implements model.NameLister.
func (e *Engine) FilterNames() []string {
	return e.pipeline.Filters.Names()
}

// PostformatNames implements model.NameLister.
func (e *Engine) PostformatNames() []string {
	return e.pipeline.Postformats.Names()
}

// Validate checks a whole model against the engine's registries.
func (e *Engine) Validate(root *model.Node) error {
	return model.Validate(root, e)
}

// Run dispatches to the evaluator selected by mode.
func (e *Engine) Run(ctx context.Context, mode Mode, root *model.Node, in Input) (*Result, error) {
	start := time.Now()
	res := &Result{Mode: mode}

	var err error
	switch mode {
	case ModeDetail:
		res.Value, err = e.Detail(ctx, root, in)
	case ModeList:
		res.Records, err = e.Items(ctx, root, in)
	case ModeNode:
		res.Records, err = e.Nodes(ctx, root, in)
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	return res, nil
}

// Detail evaluates root into a nested value.
func (e *Engine) Detail(ctx context.Context, root *model.Node, in Input) (any, error) {
	var out any
	err := e.instrument(ctx, ModeDetail, in, func(ev *evaluator) (int, error) {
		v, err := ev.detail(root, nil, nil)
		if err != nil {
			return 0, err
		}
		out = v
		return 1, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StreamItems evaluates root in list mode, passing each record to emit as it
// is produced. An error from emit stops the evaluation and is returned.
func (e *Engine) StreamItems(ctx context.Context, root *model.Node, in Input, emit func(Record) error) error {
	return e.instrument(ctx, ModeList, in, func(ev *evaluator) (int, error) {
		return ev.flat(root, emit, ev.items)
	})
}

// Items evaluates root in list mode and collects the records.
func (e *Engine) Items(ctx context.Context, root *model.Node, in Input) ([]Record, error) {
	records := make([]Record, 0)
	err := e.StreamItems(ctx, root, in, func(r Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// StreamNodes evaluates root in node mode, passing each record to emit.
func (e *Engine) StreamNodes(ctx context.Context, root *model.Node, in Input, emit func(Record) error) error {
	return e.instrument(ctx, ModeNode, in, func(ev *evaluator) (int, error) {
		return ev.flat(root, emit, ev.nodes)
	})
}

// Nodes evaluates root in node mode and collects the records.
func (e *Engine) Nodes(ctx context.Context, root *model.Node, in Input) ([]Record, error) {
	records := make([]Record, 0)
	err := e.StreamNodes(ctx, root, in, func(r Record) error {
		records = append(records, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// instrument wraps one top-level evaluation with a span, the timeout, logs
// and metrics.
func (e *Engine) instrument(ctx context.Context, mode Mode, in Input, run func(*evaluator) (int, error)) error {
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	ctx, span := e.tracer.Start(ctx, "dsm.evaluate",
		trace.WithAttributes(tracing.EvaluationAttributes(in.Model, string(mode), in.Roles)...),
	)
	defer span.End()

	start := time.Now()
	ev := newEvaluator(ctx, e, in)
	count, err := run(ev)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = errorStatus(err)
		var me *model.Error
		if errors.As(err, &me) {
			tracing.SetError(span, err, string(me.Kind), me.DN.String())
		} else {
			tracing.SetError(span, err, status, "")
		}
		e.logger.ErrorContext(ctx, "evaluation failed",
			"model", in.Model,
			"mode", mode,
			"error", err,
			"duration", duration,
		)
	} else {
		tracing.SetRecordCount(span, count)
		e.logger.InfoContext(ctx, "evaluation completed",
			"model", in.Model,
			"mode", mode,
			"records", count,
			"duration", duration,
		)
	}

	if e.recorder != nil {
		e.recorder.RecordEvaluation(in.Model, string(mode), status, duration, count)
	}
	return err
}

// errorStatus maps an evaluation error to a metrics status label.
func errorStatus(err error) string {
	var me *model.Error
	switch {
	case errors.As(err, &me):
		return string(me.Kind)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
