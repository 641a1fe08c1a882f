package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"mime"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/portfolio/backend/internal/apperr"
	"github.com/portfolio/backend/internal/logging"
	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/ratelimit"
	"github.com/portfolio/backend/internal/service"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 64 << 10

const releaseTimeout = 2 * time.Second

var contactFields = []string{"name", "email", "subject", "message"}

type ContactHandler struct {
	contactService service.ContactService
	limiter        ratelimit.Limiter
	maxBodyBytes   int64
}

func NewContactHandler(svc service.ContactService, limiter ratelimit.Limiter, maxBodyBytes int64) *ContactHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &ContactHandler{contactService: svc, limiter: limiter, maxBodyBytes: maxBodyBytes}
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusOK)
		return
	case http.MethodPost:
	default:
		logger.Warn("contact submission rejected", "kind", string(apperr.KindMethodNotAllowed), "method", r.Method)
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, apperr.MsgMethodNotAllowed)
		return
	}

	clientID := ClientIdentifier(r)
	logger = logger.With("client_id", clientID)

	decision, err := h.limiter.CheckAndRecord(r.Context(), clientID)
	if err != nil {
		h.fail(w, logger, err)
		return
	}
	if !decision.Allowed {
		logger.Warn("contact submission rejected",
			"kind", string(apperr.KindRateLimited),
			"count", decision.Count,
			"retry_after_ms", decision.RetryAfter.Milliseconds(),
		)
		w.Header().Set("Retry-After", retryAfterSeconds(decision.RetryAfter))
		writeError(w, http.StatusTooManyRequests, apperr.MsgRateLimited)
		return
	}

	in, err := decodeContactInput(w, r, h.maxBodyBytes)
	if err != nil {
		h.release(r.Context(), logger, decision)
		h.fail(w, logger, err)
		return
	}

	sub, err := h.contactService.Submit(r.Context(), in, clientID)
	if err != nil {
		h.release(r.Context(), logger, decision)
		h.fail(w, logger, err)
		return
	}

	logger.Info("contact submission accepted", "submission_id", sub.ID)
	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Contact form submitted successfully",
	})
}

// fail writes the response for err. Public kinds keep their message; all
// others become a generic 500 with an id that links the response to the log.
func (h *ContactHandler) fail(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := apperr.KindOf(err)
	if kind.Public() {
		var field string
		var e *apperr.Error
		if errors.As(err, &e) {
			field = e.Field
		}
		logger.Warn("contact submission rejected",
			"kind", string(kind),
			"field", field,
			"reason", apperr.PublicMessage(err),
		)
		writeError(w, kind.HTTPStatus(), apperr.PublicMessage(err))
		return
	}

	errorID := uuid.NewString()
	logger.Error("contact submission failed",
		"error_id", errorID,
		"kind", string(kind),
		"cause", string(apperr.CauseOf(err)),
		"detail", apperr.LogDetail(err),
	)
	writeJSON(w, http.StatusInternalServerError, errorResponse{
		Error:   apperr.MsgInternal,
		ErrorID: errorID,
	})
}

func (h *ContactHandler) release(ctx context.Context, logger *slog.Logger, d ratelimit.Decision) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := h.limiter.Release(ctx, d); err != nil {
		logger.Warn("failed to release rate limit slot",
			"kind", string(apperr.KindOf(err)),
			"detail", apperr.LogDetail(err),
		)
	}
}

// decodeContactInput reads a single JSON object with string-valued known
// fields from the request body.
func decodeContactInput(w http.ResponseWriter, r *http.Request, maxBytes int64) (model.ContactInput, error) {
	var in model.ContactInput

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return in, apperr.Invalid("", "Content-Type must be application/json")
	}
	if r.Body == nil {
		return in, apperr.Invalid("", "Request body is required")
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		var maxErr *http.MaxBytesError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return in, apperr.Invalid("", "Request body is required")
		case errors.As(err, &maxErr):
			return in, apperr.Invalid("", "Request body is too large")
		case errors.As(err, &typeErr):
			return in, apperr.Invalid("", "Request body must be a JSON object")
		default:
			return in, apperr.Invalid("", "Invalid JSON in request body")
		}
	}
	if raw == nil {
		return in, apperr.Invalid("", "Request body must be a JSON object")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return in, apperr.Invalid("", "Invalid JSON in request body")
	}

	// Keys are checked in a fixed order so identical payloads get identical errors.
	targets := map[string]*string{
		"name":    &in.Name,
		"email":   &in.Email,
		"subject": &in.Subject,
		"message": &in.Message,
	}
	for _, key := range slices.Sorted(maps.Keys(raw)) {
		if _, ok := targets[key]; !ok {
			return in, apperr.Invalid(key, "Unexpected field in request body: "+key)
		}
	}
	for _, key := range contactFields {
		value, ok := raw[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, targets[key]); err != nil {
			return in, apperr.Invalid(key, "Field "+key+" must be a string")
		}
	}
	return in, nil
}
