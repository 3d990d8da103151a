// retention.go implements the RetentionPruner background job, which
// periodically deletes activity-log entries older than the configured
// retention window. Pruning is idempotent, so the job is safe to run on
// every instance of the server; overlapping runs simply find fewer rows
// to delete. The job is a no-op when audit.auto_prune is false, so it is
// always safe to start regardless of deployment environment.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/clinic-office/clinic-office/internal/config"
	"github.com/clinic-office/clinic-office/internal/db/repositories"
	"github.com/clinic-office/clinic-office/internal/telemetry"
)

// RetentionPruner periodically removes activity-log entries past the
// retention cutoff.
type RetentionPruner struct {
	activityRepo *repositories.ActivityLogRepository
	cfg          *config.AuditConfig
	interval     time.Duration
	stopChan     chan struct{}
}

// NewRetentionPruner creates a new RetentionPruner.
// cfg.PruneInterval controls how often the prune runs (default 24h).
func NewRetentionPruner(activityRepo *repositories.ActivityLogRepository, cfg *config.AuditConfig) *RetentionPruner {
	interval := cfg.PruneInterval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &RetentionPruner{
		activityRepo: activityRepo,
		cfg:          cfg,
		interval:     interval,
		stopChan:     make(chan struct{}),
	}
}

// Start begins the background prune loop.
// It runs an initial prune immediately, then repeats on the configured
// interval. The loop exits when ctx is cancelled or Stop() is called.
func (p *RetentionPruner) Start(ctx context.Context) {
	if !p.cfg.AutoPrune {
		slog.Info("activity-log retention pruner disabled (audit.auto_prune=false)")
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	slog.Info("activity-log retention pruner started",
		"interval", p.interval, "retention_days", p.cfg.DefaultRetentionDays)

	// Run once immediately on startup
	p.runPrune(ctx)

	for {
		select {
		case <-ticker.C:
			p.runPrune(ctx)
		case <-p.stopChan:
			slog.Info("activity-log retention pruner stopped")
			return
		case <-ctx.Done():
			slog.Info("activity-log retention pruner context cancelled")
			return
		}
	}
}

// Stop signals the background loop to exit.
func (p *RetentionPruner) Stop() {
	close(p.stopChan)
}

// runPrune deletes entries older than the retention window.
func (p *RetentionPruner) runPrune(ctx context.Context) {
	days := p.cfg.DefaultRetentionDays
	if days < 1 {
		days = 30
	}

	count, err := p.activityRepo.DeleteOlderThan(ctx, days)
	if err != nil {
		slog.Error("activity-log retention prune failed", "retention_days", days, "error", err)
		return
	}

	if count == 0 {
		return
	}

	telemetry.ActivityRecordsPrunedTotal.Add(float64(count))
	slog.Info("pruned activity-log entries", "deleted", count, "retention_days", days)
}
