package service

import (
	"context"
	"time"

	"github.com/portfolio/backend/internal/apperr"
	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/repository"
	"github.com/portfolio/backend/internal/validate"
)

// HandleSource yields the current backend handle.
type HandleSource interface {
	Get(ctx context.Context) (repository.ConnectionHandle, error)
}

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	src HandleSource
	now func() time.Time
}

// NewContactService creates a ContactService that persists through src.
func NewContactService(src HandleSource) ContactService {
	return &contactServiceImpl{src: src, now: time.Now}
}

// Submit stores a new contact submission. CreatedAt is taken from the server
// clock; ID is assigned by the backend.
func (s *contactServiceImpl) Submit(ctx context.Context, in model.ContactInput, clientID string) (*model.ContactSubmission, error) {
	if err := validate.Validate(in); err != nil {
		return nil, err
	}
	sub := validate.Submission(in, clientID, s.now().UTC())

	h, err := s.src.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.InsertSubmission(ctx, sub); err != nil {
		return nil, apperr.Wrap(apperr.KindPersistence, "insert contact submission", err)
	}
	return sub, nil
}
