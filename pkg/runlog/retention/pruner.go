package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/dsm/pkg/config"
	"mercator-hq/dsm/pkg/runlog"
)

// Recorder receives pruning metrics.
type Recorder interface {
	RecordRunsPruned(count int64)
}

// Pruner enforces retention on a run log.
type Pruner struct {
	store    runlog.Store
	config   *config.RetentionConfig
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewPruner creates a pruner. A nil config uses the default retention.
func NewPruner(store runlog.Store, cfg *config.RetentionConfig, logger *slog.Logger, recorder Recorder) *Pruner {
	if cfg == nil {
		cfg = &config.RetentionConfig{
			Days:          config.DefaultRetentionDays,
			PruneSchedule: config.DefaultPruneSchedule,
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{
		store:    store,
		config:   cfg,
		recorder: recorder,
		logger:   logger.With("component", "runlog.retention"),
		now:      time.Now,
	}
}

// Prune deletes runs older than the retention period, then the oldest runs
// beyond the maximum count. It returns the total number deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var total int64

	if p.config.Days > 0 {
		cutoff := p.now().UTC().AddDate(0, 0, -p.config.Days)
		deleted, err := p.store.DeleteBefore(ctx, cutoff)
		if err != nil {
			return total, fmt.Errorf("prune by age failed: %w", err)
		}
		total += deleted
		p.logger.Debug("pruned runs by age", "deleted_count", deleted, "cutoff", cutoff)
	}

	if p.config.MaxRecords > 0 {
		deleted, err := p.store.DeleteOldest(ctx, p.config.MaxRecords)
		if err != nil {
			p.record(total)
			return total, fmt.Errorf("prune by count failed: %w", err)
		}
		total += deleted
		p.logger.Debug("pruned runs by count", "deleted_count", deleted, "max_records", p.config.MaxRecords)
	}

	p.record(total)
	if total > 0 {
		p.logger.Info("run log pruning completed",
			"total_deleted", total,
			"retention_days", p.config.Days,
			"max_records", p.config.MaxRecords,
		)
	}
	return total, nil
}

func (p *Pruner) record(n int64) {
	if p.recorder != nil {
		p.recorder.RecordRunsPruned(n)
	}
}
