package api

import (
	"time"

	"github.com/jholt/papers/internal/repo"
)

// PaperSummary is a lightweight item in a list response.
type PaperSummary struct {
	Path       string         `json:"path"`
	Title      string         `json:"title"`
	URL        string         `json:"url,omitempty"`
	Filename   string         `json:"filename,omitempty"`
	Tags       []string       `json:"tags"`
	Labels     map[string]any `json:"labels,omitempty"`
	Authors    []string       `json:"authors"`
	CreatedAt  time.Time      `json:"created_at"`
	NextReview *time.Time     `json:"next_review,omitempty"`
}

// PaperDetail is the full representation of one paper, notes included.
type PaperDetail struct {
	PaperSummary
	ModifiedAt time.Time  `json:"modified_at"`
	LastReview *time.Time `json:"last_review,omitempty"`
	Notes      string     `json:"notes"`
}

// ListResponse wraps a paper listing. Skipped carries the note files the
// scan could not parse, so a corrupt note is visible rather than silent.
type ListResponse struct {
	Papers  []PaperSummary `json:"papers"`
	Total   int            `json:"total"`
	Skipped []string       `json:"skipped,omitempty"`
}

func summarize(lp *repo.LoadedPaper) PaperSummary {
	return PaperSummary{
		Path:       lp.Path,
		Title:      lp.Meta.Title,
		URL:        lp.Meta.SourceURL(),
		Filename:   lp.Meta.Document(),
		Tags:       nonNil(lp.Meta.Tags),
		Labels:     lp.Meta.Labels,
		Authors:    nonNil(lp.Meta.Authors),
		CreatedAt:  lp.Meta.CreatedAt,
		NextReview: lp.Meta.NextReview,
	}
}

func detail(lp *repo.LoadedPaper) PaperDetail {
	return PaperDetail{
		PaperSummary: summarize(lp),
		ModifiedAt:   lp.Meta.ModifiedAt,
		LastReview:   lp.Meta.LastReview,
		Notes:        lp.Notes,
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
