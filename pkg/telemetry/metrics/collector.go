package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"mercator-hq/dsm/pkg/config"
	"mercator-hq/dsm/pkg/model"
)

// otherLabel replaces label values beyond the cardinality limit.
const otherLabel = "other"

// Collector owns every Prometheus metric of a dsm process. It implements the
// engine's Recorder interface.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	evaluationMetrics *EvaluationMetrics
	storeMetrics      *StoreMetrics
	httpMetrics       *HTTPMetrics
	runLogMetrics     *RunLogMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a collector registering into registry, or into a new
// registry when nil. Go runtime and process collectors are registered too.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = append([]float64(nil), config.DefaultDurationBuckets...)
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		evaluationMetrics:  NewEvaluationMetrics(cfg, registry),
		storeMetrics:       NewStoreMetrics(cfg, registry),
		httpMetrics:        NewHTTPMetrics(cfg, registry),
		runLogMetrics:      NewRunLogMetrics(cfg, registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

// RecordEvaluation records one top-level evaluation.
//
// Parameters:
//   - modelName: model name; replaced by "other" past the cardinality limit
//   - mode: "detail", "list" or "node"
//   - status: "success" or an error kind
//   - duration: evaluation duration
//   - records: number of records produced
func (c *Collector) RecordEvaluation(modelName, mode, status string, duration time.Duration, records int) {
	if !c.config.Enabled {
		return
	}
	if modelName == "" {
		modelName = "unnamed"
	}
	if !c.cardinalityLimiter.Allow(fmt.Sprintf("model:%s", modelName)) {
		modelName = otherLabel
	}
	c.evaluationMetrics.RecordEvaluation(modelName, mode, status, duration, records)
}

// RecordResolverError records a failed resolver call.
func (c *Collector) RecordResolverError(resolver string, kind model.ErrorKind) {
	if !c.config.Enabled {
		return
	}
	c.evaluationMetrics.RecordResolverError(resolver, string(kind))
}

// RecordModelReload records a model store load.
func (c *Collector) RecordModelReload(success bool, loaded int) {
	if !c.config.Enabled {
		return
	}
	c.storeMetrics.RecordReload(success, loaded)
}

// RecordHTTPRequest records a served HTTP request.
func (c *Collector) RecordHTTPRequest(route, method string, code int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.httpMetrics.RecordRequest(route, method, code, duration)
}

// RecordRunsPruned records runs deleted by retention.
func (c *Collector) RecordRunsPruned(count int64) {
	if !c.config.Enabled {
		return
	}
	c.runLogMetrics.RecordPruned(count)
}

// RecordRunLogError records a failed run log write.
func (c *Collector) RecordRunLogError() {
	if !c.config.Enabled {
		return
	}
	c.runLogMetrics.RecordError()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
