package service

import (
	"context"

	"github.com/portfolio/backend/internal/model"
)

// ContactService defines the business logic for contact form submissions.
type ContactService interface {
	// Submit validates and sanitizes in, then stores it with clientID as the
	// source identifier. Errors are *apperr.Error values; validation failures
	// never reach the backend.
	Submit(ctx context.Context, in model.ContactInput, clientID string) (*model.ContactSubmission, error)
}
