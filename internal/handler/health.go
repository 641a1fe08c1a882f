package handler

import (
	"net/http"

	"github.com/portfolio/backend/internal/apperr"
	"github.com/portfolio/backend/internal/logging"
)

type healthResponse struct {
	Status string `json:"status"`
}

// Health runs the backend liveness path. Failure details go to the log only.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		logging.FromContext(r.Context()).Warn("health check failed",
			"kind", string(apperr.KindOf(err)),
			"cause", string(apperr.CauseOf(err)),
			"detail", apperr.LogDetail(err),
		)
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
