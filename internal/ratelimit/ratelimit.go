// Package ratelimit enforces the fixed-window submission quota per client
// identifier.
//
// A Limiter reserves a slot with CheckAndRecord before the request body is
// read. When the submission is later rejected, the caller returns the slot
// with Release, so only accepted submissions count against the quota.
package ratelimit

import (
	"context"
	"time"
)

// Policy is a fixed-window quota.
type Policy struct {
	Limit  int
	Window time.Duration
}

// DefaultPolicy allows three submissions per client per hour.
var DefaultPolicy = Policy{Limit: 3, Window: time.Hour}

// Decision is the outcome of one CheckAndRecord call.
type Decision struct {
	Allowed     bool
	ClientID    string
	WindowStart time.Time
	Count       int
	// RetryAfter is set on denials to the time left in the window.
	RetryAfter time.Duration
}

// Limiter checks and records submissions for a client identifier. Both
// methods must be safe for concurrent use.
type Limiter interface {
	CheckAndRecord(ctx context.Context, clientID string) (Decision, error)
	// Release returns the slot reserved by an allowed decision. It is a no-op
	// for denied decisions and for windows that have since been reset.
	Release(ctx context.Context, d Decision) error
}

// Pruner deletes records whose window started before cutoff.
type Pruner interface {
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}
