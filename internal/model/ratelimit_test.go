package model

import (
	"testing"
	"time"
)

func TestRateLimitRecord_Hit_FixedWindow(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	var rec RateLimitRecord

	for i := 1; i <= 3; i++ {
		var ok bool
		rec, ok = rec.Hit("203.0.113.7", start.Add(time.Duration(i)*time.Minute), time.Hour, 3)
		if !ok {
			t.Fatalf("hit %d: expected allowed", i)
		}
		if rec.Count != i {
			t.Fatalf("hit %d: expected count %d, got %d", i, i, rec.Count)
		}
	}

	denied, ok := rec.Hit("203.0.113.7", start.Add(30*time.Minute), time.Hour, 3)
	if ok {
		t.Fatal("4th hit inside the window should be denied")
	}
	if denied.Count != 3 {
		t.Errorf("denied hit must not increment, got count %d", denied.Count)
	}

	// Window opened at the first hit (start+1m), so start+61m is the first expired instant.
	reset, ok := rec.Hit("203.0.113.7", start.Add(61*time.Minute), time.Hour, 3)
	if !ok {
		t.Fatal("hit after the window should be allowed")
	}
	if reset.Count != 1 {
		t.Errorf("expected reset count 1, got %d", reset.Count)
	}
	if !reset.WindowStart.Equal(start.Add(61 * time.Minute)) {
		t.Errorf("expected new window start, got %v", reset.WindowStart)
	}
}

func TestRateLimitRecord_RetryAfter(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rec := RateLimitRecord{WindowStart: start, Count: 3}

	if got := rec.RetryAfter(start.Add(45*time.Minute), time.Hour); got != 15*time.Minute {
		t.Errorf("expected 15m, got %v", got)
	}
	if got := rec.RetryAfter(start.Add(2*time.Hour), time.Hour); got != 0 {
		t.Errorf("expected 0 after expiry, got %v", got)
	}
}
