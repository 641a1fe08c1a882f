package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/portfolio/backend/internal/model"
)

func openPgHandle(t *testing.T) *PgHandle {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	uri := os.Getenv("TEST_DATABASE_URL")
	if uri == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	h, err := DialPostgres(context.Background(), DialConfig{URI: uri, Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(h.Close)
	return h.(*PgHandle)
}

func TestPgHandle_InsertSubmission(t *testing.T) {
	h := openPgHandle(t)

	sub := &model.ContactSubmission{
		Name:      "Test User",
		Email:     fmt.Sprintf("test-%d@example.com", time.Now().UnixNano()),
		Subject:   "Integration",
		Message:   "Inserted by the integration test.",
		CreatedAt: time.Now().UTC(),
	}
	if err := h.InsertSubmission(context.Background(), sub); err != nil {
		t.Fatalf("InsertSubmission failed: %v", err)
	}
	if sub.ID == "" {
		t.Error("expected ID to be set after InsertSubmission")
	}
}

func TestPgHandle_HitRateLimit(t *testing.T) {
	h := openPgHandle(t)
	ctx := context.Background()
	client := fmt.Sprintf("test-%d", time.Now().UnixNano())
	now := time.Now().UTC().Truncate(time.Microsecond)

	var last model.RateLimitRecord
	for i := 1; i <= 3; i++ {
		rec, ok, err := h.HitRateLimit(ctx, client, now, time.Hour, 3)
		if err != nil || !ok {
			t.Fatalf("hit %d: allowed=%v err=%v", i, ok, err)
		}
		last = rec
	}
	if _, ok, err := h.HitRateLimit(ctx, client, now, time.Hour, 3); err != nil || ok {
		t.Fatalf("4th hit: allowed=%v err=%v", ok, err)
	}

	if err := h.ReleaseRateLimit(ctx, client, last.WindowStart); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok, err := h.HitRateLimit(ctx, client, now, time.Hour, 3); err != nil || !ok {
		t.Fatalf("hit after release: allowed=%v err=%v", ok, err)
	}

	if _, err := h.PruneRateLimits(ctx, now.Add(time.Second)); err != nil {
		t.Fatalf("prune: %v", err)
	}
}
