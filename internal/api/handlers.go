package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jholt/papers/internal/apperr"
	"github.com/jholt/papers/internal/paper"
	"github.com/jholt/papers/internal/repo"
)

// Handler holds API route handlers over the repository store.
type Handler struct {
	store *repo.Store
}

// NewHandler creates a new Handler.
func NewHandler(store *repo.Store) *Handler {
	return &Handler{store: store}
}

// notePath extracts the note path from the URL (everything after /papers/).
// Supports encoded characters from clients (e.g. My%20Title.md).
func notePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// filterFromQuery maps list query parameters onto a repo filter.
// author, tag and label may repeat; all parts are ANDed.
func filterFromQuery(q url.Values) (repo.Filter, error) {
	f := repo.Filter{
		File:    q.Get("file"),
		Title:   q.Get("title"),
		Authors: q["author"],
		Tags:    q["tag"],
	}
	for _, l := range q["label"] {
		key, value, err := paper.ParseLabel(l)
		if err != nil {
			return repo.Filter{}, err
		}
		if f.Labels == nil {
			f.Labels = make(map[string]any)
		}
		f.Labels[key] = value
	}
	return f, nil
}

// ListPapers handles GET /papers with optional file/title/author/tag/label
// filters.
func (h *Handler) ListPapers(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	papers, skipped := h.store.List(f)

	resp := ListResponse{Papers: []PaperSummary{}, Total: len(papers)}
	for i := range papers {
		resp.Papers = append(resp.Papers, summarize(&papers[i]))
	}
	for _, sk := range skipped {
		resp.Skipped = append(resp.Skipped, sk.Path)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPaper handles GET /papers/*.
func (h *Handler) GetPaper(w http.ResponseWriter, r *http.Request) {
	path := notePath(r)
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	lp, err := h.store.GetPaper(path)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeError(w, http.StatusNotFound, "not found")
		case errors.Is(err, apperr.ErrOutsideRoot):
			writeError(w, http.StatusBadRequest, "path is outside the repository")
		case errors.Is(err, apperr.ErrNoFrontMatter), errors.Is(err, apperr.ErrMalformedFrontMatter):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			slog.Error("get paper failed", slog.String("path", path), slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}
	writeJSON(w, http.StatusOK, detail(lp))
}

// Reviewable handles GET /reviewable: the papers due for review now.
func (h *Handler) Reviewable(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	papers, skipped := h.store.AllPapers()

	resp := ListResponse{Papers: []PaperSummary{}}
	for i := range papers {
		if papers[i].Meta.IsReviewable(now) {
			resp.Papers = append(resp.Papers, summarize(&papers[i]))
		}
	}
	resp.Total = len(resp.Papers)
	for _, sk := range skipped {
		resp.Skipped = append(resp.Skipped, sk.Path)
	}
	writeJSON(w, http.StatusOK, resp)
}
