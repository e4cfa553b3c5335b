package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"fetchd/internal/logging"
)

// Pruner deletes archived records older than the retention window on a cron
// schedule.
type Pruner struct {
	store     *Store
	retention time.Duration
	cron      *cron.Cron
	logger    *slog.Logger
	now       func() time.Time
}

// NewPruner schedules pruning with a standard cron spec or descriptor such as
// "@daily". A retention of zero days disables pruning and returns nil.
func NewPruner(store *Store, schedule string, retentionDays int, logger *slog.Logger) (*Pruner, error) {
	if store == nil || retentionDays <= 0 {
		return nil, nil
	}
	p := &Pruner{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		cron:      cron.New(),
		logger:    logging.NewComponentLogger(logger, "history"),
		now:       time.Now,
	}
	if _, err := p.cron.AddFunc(schedule, func() {
		_, _ = p.PruneNow(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("schedule prune %q: %w", schedule, err)
	}
	return p, nil
}

// Start begins running scheduled prunes in the background.
func (p *Pruner) Start() {
	if p == nil {
		return
	}
	p.cron.Start()
}

// Stop halts the schedule and waits for a running prune to finish.
func (p *Pruner) Stop() {
	if p == nil {
		return
	}
	<-p.cron.Stop().Done()
}

// PruneNow removes records older than the retention window.
func (p *Pruner) PruneNow(ctx context.Context) (int64, error) {
	cutoff := p.now().Add(-p.retention)
	removed, err := p.store.PruneBefore(ctx, cutoff)
	if err != nil {
		logging.WarnWithContext(p.logger, "history prune failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "archive keeps growing until the next successful prune"),
		)
		return 0, err
	}
	if removed > 0 {
		p.logger.Info("history pruned",
			logging.String(logging.FieldEventType, "history_pruned"),
			logging.Int64("removed", removed),
			logging.String("cutoff", cutoff.UTC().Format(time.RFC3339)),
		)
	}
	return removed, nil
}
