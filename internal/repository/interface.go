package repository

import (
	"context"
	"time"

	"github.com/portfolio/backend/internal/model"
)

// DB は DB 接続の生存確認を行うインターフェース
type DB interface {
	Ping(ctx context.Context) error
}

// ConnectionHandle is a live backend handle cached by the Accessor.
type ConnectionHandle interface {
	DB
	// InsertSubmission appends a record and sets sub.ID.
	InsertSubmission(ctx context.Context, sub *model.ContactSubmission) error
	Close()
}

// RateLimitTable is implemented by handles that can host the durable
// rate-limit table shared by every instance.
type RateLimitTable interface {
	// HitRateLimit atomically applies one attempt for clientID at now and
	// returns the resulting record and whether the attempt was allowed.
	HitRateLimit(ctx context.Context, clientID string, now time.Time, window time.Duration, limit int) (model.RateLimitRecord, bool, error)
	// ReleaseRateLimit gives back one slot if the record still belongs to windowStart.
	ReleaseRateLimit(ctx context.Context, clientID string, windowStart time.Time) error
	// PruneRateLimits deletes records whose window started before cutoff.
	PruneRateLimits(ctx context.Context, cutoff time.Time) (int64, error)
}
