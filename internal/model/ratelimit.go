package model

import "time"

// RateLimitRecord counts accepted submissions for one client identifier
// within a fixed window starting at WindowStart.
type RateLimitRecord struct {
	ClientIdentifier string
	WindowStart      time.Time
	Count            int
}

// Expired reports whether the record's window has ended at now.
func (r RateLimitRecord) Expired(now time.Time, window time.Duration) bool {
	return !now.Before(r.WindowStart.Add(window))
}

// Hit applies one submission attempt at now against a fixed-window policy and
// returns the updated record. A missing record is passed as the zero value.
// When allowed is false the record is returned unchanged.
func (r RateLimitRecord) Hit(clientID string, now time.Time, window time.Duration, limit int) (RateLimitRecord, bool) {
	if r.WindowStart.IsZero() || r.Expired(now, window) {
		return RateLimitRecord{ClientIdentifier: clientID, WindowStart: now, Count: 1}, true
	}
	if r.Count < limit {
		r.Count++
		return r, true
	}
	return r, false
}

// RetryAfter returns how long until the record's window ends.
func (r RateLimitRecord) RetryAfter(now time.Time, window time.Duration) time.Duration {
	d := r.WindowStart.Add(window).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
