package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/portfolio/backend/internal/apperr"
	"github.com/portfolio/backend/internal/repository"
)

// HandleSource yields the current backend handle.
type HandleSource interface {
	Get(ctx context.Context) (repository.ConnectionHandle, error)
}

// TableLimiter keeps records in the backend's rate_limits table, shared by
// every instance using the same backend.
type TableLimiter struct {
	policy Policy
	src    HandleSource
	now    func() time.Time
}

var (
	_ Limiter = (*TableLimiter)(nil)
	_ Pruner  = (*TableLimiter)(nil)
)

// NewTableLimiter creates a table-backed limiter for policy.
func NewTableLimiter(policy Policy, src HandleSource) *TableLimiter {
	return &TableLimiter{policy: policy, src: src, now: time.Now}
}

func (l *TableLimiter) table(ctx context.Context) (repository.RateLimitTable, error) {
	h, err := l.src.Get(ctx)
	if err != nil {
		return nil, err
	}
	t, ok := h.(repository.RateLimitTable)
	if !ok {
		return nil, apperr.New(apperr.KindConfiguration, fmt.Sprintf("backend handle %T has no rate limit table", h))
	}
	return t, nil
}

func (l *TableLimiter) CheckAndRecord(ctx context.Context, clientID string) (Decision, error) {
	t, err := l.table(ctx)
	if err != nil {
		return Decision{}, err
	}
	// Backends store microseconds; truncating keeps Release's window match exact.
	now := l.now().UTC().Truncate(time.Microsecond)
	rec, allowed, err := t.HitRateLimit(ctx, clientID, now, l.policy.Window, l.policy.Limit)
	if err != nil {
		return Decision{}, apperr.Wrap(apperr.KindPersistence, "record rate limit hit", err)
	}
	return decision(rec, allowed, now, l.policy.Window), nil
}

func (l *TableLimiter) Release(ctx context.Context, d Decision) error {
	if !d.Allowed {
		return nil
	}
	t, err := l.table(ctx)
	if err != nil {
		return err
	}
	if err := t.ReleaseRateLimit(ctx, d.ClientID, d.WindowStart); err != nil {
		return apperr.Wrap(apperr.KindPersistence, "release rate limit slot", err)
	}
	return nil
}

func (l *TableLimiter) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	t, err := l.table(ctx)
	if err != nil {
		return 0, err
	}
	return t.PruneRateLimits(ctx, cutoff)
}
