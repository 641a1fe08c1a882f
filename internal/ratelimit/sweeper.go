package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/portfolio/backend/internal/apperr"
)

// Sweeper periodically prunes records whose window has ended.
type Sweeper struct {
	Pruner   Pruner
	Window   time.Duration
	Interval time.Duration
	now      func() time.Time
}

// NewSweeper creates a sweeper pruning p every interval.
func NewSweeper(p Pruner, window, interval time.Duration) *Sweeper {
	return &Sweeper{Pruner: p, Window: window, Interval: interval, now: time.Now}
}

// Run sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce prunes every record whose window ended before now.
func (s *Sweeper) SweepOnce(ctx context.Context) int64 {
	n, err := s.Pruner.Prune(ctx, s.now().Add(-s.Window))
	if err != nil {
		slog.Warn("rate limit sweep failed",
			"kind", string(apperr.KindOf(err)),
			"cause", string(apperr.CauseOf(err)))
		return 0
	}
	if n > 0 {
		slog.Debug("rate limit sweep", "pruned", n)
	}
	return n
}
