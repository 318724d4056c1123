package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Pruner deletes audit records older than the retention window on a cron
// schedule (e.g., "0 3 * * *" for daily at 3 AM).
type Pruner struct {
	storage       Storage
	retentionDays int
	schedule      string
	cron          *cron.Cron
	logger        *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewPruner creates a pruner for the given storage. An empty schedule
// disables scheduled pruning; PruneNow can still be called manually.
func NewPruner(storage Storage, retentionDays int, schedule string) *Pruner {
	return &Pruner{
		storage:       storage,
		retentionDays: retentionDays,
		schedule:      schedule,
		cron:          cron.New(),
		logger:        slog.Default().With("component", "audit.pruner"),
	}
}

// Start begins scheduled pruning. It returns an error for an invalid cron
// expression and does nothing when no schedule is configured.
func (p *Pruner) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.schedule == "" {
		p.logger.Info("prune schedule not configured, skipping scheduler")
		return nil
	}
	if p.running {
		return nil
	}

	if _, err := cron.ParseStandard(p.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", p.schedule, err)
	}

	if _, err := p.cron.AddFunc(p.schedule, func() {
		if _, err := p.PruneNow(context.Background()); err != nil {
			p.logger.Error("scheduled pruning failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	p.cron.Start()
	p.running = true

	p.logger.Info("audit retention scheduler started",
		"schedule", p.schedule,
		"retention_days", p.retentionDays,
	)
	return nil
}

// Stop stops the scheduler, waiting for a running prune to finish.
func (p *Pruner) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false
	<-p.cron.Stop().Done()
}

// PruneNow deletes records older than the retention window and returns how
// many were removed.
func (p *Pruner) PruneNow(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -p.retentionDays)

	deleted, err := p.storage.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		p.logger.Info("pruned audit records",
			"deleted", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return deleted, nil
}
