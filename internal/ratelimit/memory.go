package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/portfolio/backend/internal/model"
)

// MemoryLimiter keeps records in process memory. Counters reset when the
// process restarts.
type MemoryLimiter struct {
	policy Policy
	now    func() time.Time

	mu      sync.Mutex
	records map[string]model.RateLimitRecord
}

var (
	_ Limiter = (*MemoryLimiter)(nil)
	_ Pruner  = (*MemoryLimiter)(nil)
)

// NewMemoryLimiter creates an in-memory limiter for policy.
func NewMemoryLimiter(policy Policy) *MemoryLimiter {
	return &MemoryLimiter{
		policy:  policy,
		now:     time.Now,
		records: make(map[string]model.RateLimitRecord),
	}
}

func (l *MemoryLimiter) CheckAndRecord(ctx context.Context, clientID string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, allowed := l.records[clientID].Hit(clientID, now, l.policy.Window, l.policy.Limit)
	if allowed {
		l.records[clientID] = rec
	}
	return decision(rec, allowed, now, l.policy.Window), nil
}

func (l *MemoryLimiter) Release(ctx context.Context, d Decision) error {
	if !d.Allowed {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[d.ClientID]
	if !ok || !rec.WindowStart.Equal(d.WindowStart) || rec.Count == 0 {
		return nil
	}
	rec.Count--
	l.records[d.ClientID] = rec
	return nil
}

func (l *MemoryLimiter) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for id, rec := range l.records {
		if rec.WindowStart.Before(cutoff) {
			delete(l.records, id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of tracked client identifiers.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

func decision(rec model.RateLimitRecord, allowed bool, now time.Time, window time.Duration) Decision {
	d := Decision{
		Allowed:     allowed,
		ClientID:    rec.ClientIdentifier,
		WindowStart: rec.WindowStart,
		Count:       rec.Count,
	}
	if !allowed {
		d.RetryAfter = rec.RetryAfter(now, window)
	}
	return d
}
