package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"meridian-hq/meridian/pkg/config"
	"meridian-hq/meridian/pkg/usage"
)

// Pruner deletes ledger records older than the configured retention
// window, on a cron schedule.
type Pruner struct {
	storage usage.Storage
	cfg     config.UsageRetentionConfig
	cron    *cron.Cron
	mu      sync.Mutex
	running bool
	logger  *slog.Logger
}

// NewPruner creates a pruner over the ledger storage backend.
func NewPruner(storage usage.Storage, cfg config.UsageRetentionConfig) *Pruner {
	return &Pruner{
		storage: storage,
		cfg:     cfg,
		cron:    cron.New(),
		logger:  slog.Default().With("component", "usage.retention"),
	}
}

// Start schedules pruning per the configured cron expression. Pruning
// is skipped entirely when the schedule is empty or the retention
// window is non-positive.
func (p *Pruner) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cfg.PruneSchedule == "" || p.cfg.Days <= 0 {
		p.logger.Info("usage retention disabled",
			"schedule", p.cfg.PruneSchedule,
			"days", p.cfg.Days,
		)
		return nil
	}

	if _, err := cron.ParseStandard(p.cfg.PruneSchedule); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", p.cfg.PruneSchedule, err)
	}

	_, err := p.cron.AddFunc(p.cfg.PruneSchedule, func() {
		if _, err := p.Prune(ctx); err != nil {
			p.logger.Error("scheduled pruning failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling pruning: %w", err)
	}

	p.cron.Start()
	p.running = true

	p.logger.Info("usage retention started",
		"schedule", p.cfg.PruneSchedule,
		"retention_days", p.cfg.Days,
	)

	go func() {
		<-ctx.Done()
		p.Stop()
	}()

	return nil
}

// Prune deletes records older than the retention window and returns
// how many were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.cfg.Days)

	deleted, err := p.storage.Cleanup(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning usage ledger: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("pruned usage records",
			"deleted_count", deleted,
			"cutoff", cutoff,
		)
	} else {
		p.logger.Debug("pruning complete, no records deleted")
	}
	return deleted, nil
}

// Stop halts the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	<-p.cron.Stop().Done()
	p.running = false
	p.logger.Info("usage retention stopped")
}

// NextPruning returns the next scheduled prune time, or the zero time
// when nothing is scheduled.
func (p *Pruner) NextPruning() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	entries := p.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}
