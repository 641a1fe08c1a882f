package handler

import "net/http"

// NewRouter mounts the API routes behind the shared middleware chain.
func NewRouter(h *Handler, contact *ContactHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	// Method checks happen inside Submit so that other verbs get the JSON 405.
	mux.HandleFunc("/api/contact", contact.Submit)
	return RequestLogger(SecurityHeaders(h.CORS(mux)))
}
