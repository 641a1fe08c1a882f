package validate

import (
	"testing"
	"time"

	"github.com/portfolio/backend/internal/model"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Ada Lovelace  ", "Ada Lovelace"},
		{"hello <b>world</b>", "hello world"},
		{"<script>alert(1)</script>text", "alert(1)text"},
		{"click javascript:alert(1)", "click alert(1)"},
		{"DATA:text/html", "text/html"},
		{"javajavascript:script:x", "x"},
		{"unterminated <img src=x", "unterminated"},
		{"Fish & chips", "Fish & chips"},
		{"O'Brien", "O'Brien"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitize_ComposesToNFC(t *testing.T) {
	decomposed := "Jose\u0301"
	if got := Sanitize(decomposed); got != "Jos\u00e9" {
		t.Errorf("expected NFC form, got %q", got)
	}
}

func TestSubmission_Normalizes(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	sub := Submission(model.ContactInput{
		Name:    " Ada Lovelace ",
		Email:   " Ada@Example.com ",
		Subject: " Hello ",
		Message: " This is a test message. ",
	}, "203.0.113.7", now)

	if sub.Name != "Ada Lovelace" {
		t.Errorf("name: got %q", sub.Name)
	}
	if sub.Email != "ada@example.com" {
		t.Errorf("email: got %q", sub.Email)
	}
	if sub.Subject != "Hello" {
		t.Errorf("subject: got %q", sub.Subject)
	}
	if sub.Message != "This is a test message." {
		t.Errorf("message: got %q", sub.Message)
	}
	if !sub.CreatedAt.Equal(now) {
		t.Errorf("created_at: got %v", sub.CreatedAt)
	}
	if sub.SourceIdentifier != "203.0.113.7" {
		t.Errorf("source identifier: got %q", sub.SourceIdentifier)
	}
	if sub.ID != "" {
		t.Errorf("id is assigned by persistence, got %q", sub.ID)
	}
}
