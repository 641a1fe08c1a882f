package handler

import (
	"net/http"

	"github.com/portfolio/backend/internal/repository"
)

type Handler struct {
	db            repository.DB
	allowedOrigin string
}

func New(db repository.DB, allowedOrigin string) *Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return &Handler{db: db, allowedOrigin: allowedOrigin}
}

// CORS sets the cross-origin headers on every response and answers
// pre-flight requests with an empty 200.
func (h *Handler) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", h.allowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if h.allowedOrigin != "*" {
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
