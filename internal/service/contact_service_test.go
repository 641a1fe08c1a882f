package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/portfolio/backend/internal/apperr"
	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/repository"
)

// ---------------------------------------------------------------------------
// mockHandle / mockSource: in-memory stubs for testing
// ---------------------------------------------------------------------------

type mockHandle struct {
	insertFunc func(ctx context.Context, sub *model.ContactSubmission) error
	inserted   []*model.ContactSubmission
}

func (m *mockHandle) Ping(ctx context.Context) error { return nil }

func (m *mockHandle) InsertSubmission(ctx context.Context, sub *model.ContactSubmission) error {
	if m.insertFunc != nil {
		if err := m.insertFunc(ctx, sub); err != nil {
			return err
		}
	}
	sub.ID = "generated-id"
	m.inserted = append(m.inserted, sub)
	return nil
}

func (m *mockHandle) Close() {}

type mockSource struct {
	handle *mockHandle
	err    error
	calls  int
}

func (m *mockSource) Get(ctx context.Context) (repository.ConnectionHandle, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.handle, nil
}

func validInput() model.ContactInput {
	return model.ContactInput{
		Name:    "Ada Lovelace",
		Email:   "Ada@Example.com",
		Subject: "Hello",
		Message: "This is a test message.",
	}
}

// ---------------------------------------------------------------------------
// Submit tests
// ---------------------------------------------------------------------------

func TestContactService_Submit_StoresNormalizedRecord(t *testing.T) {
	h := &mockHandle{}
	svc := NewContactService(&mockSource{handle: h})

	sub, err := svc.Submit(context.Background(), validInput(), "203.0.113.7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h.inserted) != 1 {
		t.Fatalf("expected one insert, got %d", len(h.inserted))
	}
	if sub.Email != "ada@example.com" {
		t.Errorf("expected lower-cased email, got %q", sub.Email)
	}
	if sub.Name != "Ada Lovelace" {
		t.Errorf("expected name=Ada Lovelace, got %q", sub.Name)
	}
	if sub.SourceIdentifier != "203.0.113.7" {
		t.Errorf("expected source identifier, got %q", sub.SourceIdentifier)
	}
	if sub.ID != "generated-id" {
		t.Errorf("expected backend-assigned id, got %q", sub.ID)
	}
}

// TestContactService_Submit_SetsCreatedAt verifies the service stamps CreatedAt from the server clock.
func TestContactService_Submit_SetsCreatedAt(t *testing.T) {
	before := time.Now()
	svc := NewContactService(&mockSource{handle: &mockHandle{}})

	sub, err := svc.Submit(context.Background(), validInput(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := time.Now()
	if sub.CreatedAt.Before(before) || sub.CreatedAt.After(after) {
		t.Errorf("CreatedAt %v not in expected range [%v, %v]", sub.CreatedAt, before, after)
	}
	if sub.CreatedAt.Location() != time.UTC {
		t.Errorf("expected UTC timestamp, got %v", sub.CreatedAt.Location())
	}
}

func TestContactService_Submit_InvalidNeverTouchesBackend(t *testing.T) {
	src := &mockSource{handle: &mockHandle{}}
	svc := NewContactService(src)

	in := validInput()
	in.Message = "short"
	_, err := svc.Submit(context.Background(), in, "")
	if apperr.KindOf(err) != apperr.KindClientInput {
		t.Fatalf("expected CLIENT_INPUT, got %v", err)
	}
	if src.calls != 0 {
		t.Errorf("backend must not be reached on invalid input, got %d calls", src.calls)
	}
}

func TestContactService_Submit_BackendErrorPassesThrough(t *testing.T) {
	backendErr := apperr.Backend(apperr.CauseAuthentication, "connect to backend", errors.New("password authentication failed"))
	svc := NewContactService(&mockSource{err: backendErr})

	_, err := svc.Submit(context.Background(), validInput(), "")
	if apperr.KindOf(err) != apperr.KindBackendUnavailable {
		t.Fatalf("expected BACKEND_UNAVAILABLE, got %v", err)
	}
	if apperr.CauseOf(err) != apperr.CauseAuthentication {
		t.Errorf("expected authentication cause, got %q", apperr.CauseOf(err))
	}
}

// TestContactService_Submit_InsertError wraps repository errors as persistence errors.
func TestContactService_Submit_InsertError(t *testing.T) {
	h := &mockHandle{
		insertFunc: func(ctx context.Context, sub *model.ContactSubmission) error {
			return errors.New("db write failed")
		},
	}
	svc := NewContactService(&mockSource{handle: h})

	_, err := svc.Submit(context.Background(), validInput(), "")
	if apperr.KindOf(err) != apperr.KindPersistence {
		t.Fatalf("expected PERSISTENCE, got %v", err)
	}
	if len(h.inserted) != 0 {
		t.Error("failed insert must not be recorded")
	}
}
