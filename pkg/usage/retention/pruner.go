// Package retention prunes old usage records on a schedule.
//
// The pruner deletes records older than the configured retention period.
// A cron scheduler (standard five-field syntax) runs it unattended,
// defaulting to daily at 03:00. Setting the retention period to zero or
// a negative number of days disables pruning.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aurora-ml/relay/pkg/usage"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// RetentionDays is how many days of usage records to keep. Zero or
	// negative disables pruning.
	// Default: 30
	RetentionDays int

	// Schedule is the cron expression for automatic pruning, in
	// standard five-field syntax. Empty disables the scheduler.
	// Default: "0 3 * * *"
	Schedule string
}

// DefaultConfig returns the default retention configuration.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 30,
		Schedule:      "0 3 * * *",
	}
}

// Pruner deletes usage records older than the retention period.
type Pruner struct {
	storage   usage.Storage
	config    *Config
	logger    *slog.Logger
	scheduler *Scheduler

	now func() time.Time
}

// NewPruner creates a retention pruner. It does not start pruning; call
// Start to run on the configured schedule, or Prune for a single pass.
func NewPruner(storage usage.Storage, config *Config, logger *slog.Logger) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pruner{
		storage: storage,
		config:  config,
		logger:  logger.With("component", "usage.retention"),
		now:     time.Now,
	}
	p.scheduler = NewScheduler(p, logger)

	return p
}

// Prune deletes records older than the retention period and returns how
// many were removed. It is a no-op when retention is disabled.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		p.logger.Debug("retention disabled, skipping prune")
		return 0, nil
	}

	cutoff := p.now().AddDate(0, 0, -p.config.RetentionDays)

	deleted, err := p.storage.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune failed: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("pruned usage records",
			"deleted_count", deleted,
			"retention_days", p.config.RetentionDays,
			"cutoff", cutoff,
		)
	} else {
		p.logger.Debug("no usage records to prune",
			"retention_days", p.config.RetentionDays,
		)
	}

	return deleted, nil
}

// Start begins scheduled pruning. Call during application startup.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop stops scheduled pruning. Call during graceful shutdown.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning returns the next scheduled pruning time, or nil when the
// scheduler is not running.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
