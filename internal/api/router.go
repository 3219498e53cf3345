package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/jholt/papers/internal/repo"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(store *repo.Store, authEnabled bool, token string) chi.Router {
	h := NewHandler(store)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/papers", h.ListPapers)
	r.Get("/papers/*", h.GetPaper)
	r.Get("/reviewable", h.Reviewable)

	return r
}
