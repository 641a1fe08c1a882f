package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/portfolio/backend/internal/logging"
)

// captureLogs swaps the default logger for one writing JSON to a buffer.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func decodeLogLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var entries []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var entry map[string]any
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("decode log line: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestRequestLogger_TagsRequest(t *testing.T) {
	buf := captureLogs(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()
	RequestLogger(inner).ServeHTTP(rec, req)

	requestID := rec.Header().Get("X-Request-ID")
	if _, err := uuid.Parse(requestID); err != nil {
		t.Fatalf("expected uuid request id, got %q", requestID)
	}

	entries := decodeLogLines(t, buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e["request_id"] != requestID {
			t.Errorf("entry %v missing request_id %s", e["msg"], requestID)
		}
	}
	last := entries[1]
	if last["msg"] != "request" || last["level"] != "WARN" {
		t.Errorf("expected WARN request entry, got %v", last)
	}
	if last["status"] != float64(http.StatusTeapot) {
		t.Errorf("expected status 418, got %v", last["status"])
	}
}

func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusTooManyRequests, "WARN"},
		{http.StatusInternalServerError, "ERROR"},
	}
	for _, tt := range tests {
		buf := captureLogs(t)
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		})
		RequestLogger(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/contact", nil))

		entries := decodeLogLines(t, buf)
		if len(entries) != 1 || entries[0]["level"] != tt.level {
			t.Errorf("status %d: expected one %s entry, got %v", tt.status, tt.level, entries)
		}
	}
}
