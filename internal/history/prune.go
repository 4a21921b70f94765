package history

import (
	"context"
	"time"
)

// Logger is the logging interface used by the pruner.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Pruner periodically deletes journal entries older than a retention window.
type Pruner struct {
	repo      Repository
	retention time.Duration
	interval  time.Duration
	logger    Logger
	now       func() time.Time
}

// NewPruner returns a pruner for repo. A retention of zero keeps
// everything.
func NewPruner(repo Repository, retention, interval time.Duration) *Pruner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Pruner{
		repo:      repo,
		retention: retention,
		interval:  interval,
		logger:    noopLogger{},
		now:       time.Now,
	}
}

// SetLogger sets the logger for the pruner.
func (p *Pruner) SetLogger(logger Logger) {
	p.logger = logger
}

// PruneOnce deletes expired entries now.
func (p *Pruner) PruneOnce(ctx context.Context) (int64, error) {
	if p.retention <= 0 {
		return 0, nil
	}
	return p.repo.Prune(ctx, p.now().Add(-p.retention))
}

// Run prunes at start and then every interval until ctx is done. It
// always returns nil; failed passes are logged and retried next tick.
func (p *Pruner) Run(ctx context.Context) error {
	if p.retention <= 0 {
		return nil
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		n, err := p.PruneOnce(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			p.logger.Warn("pruning hotplug journal", "error", err)
		case n > 0:
			p.logger.Info("pruned hotplug journal", "deleted", n)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
