package repo

import (
	"strings"

	"github.com/jholt/papers/internal/paper"
)

// Filter narrows a listing. File and Title are case-insensitive substring
// matches; Authors, Tags and Labels are containment checks. All parts must
// hold for a paper to pass (conjunction, never union). The zero Filter
// matches everything.
type Filter struct {
	File    string
	Title   string
	Authors []string
	Tags    []string
	Labels  map[string]any
}

// Match reports whether the paper passes every part of the filter.
func (f Filter) Match(lp *LoadedPaper) bool {
	if f.File != "" {
		doc := lp.Meta.Document()
		if doc == "" || !strings.Contains(strings.ToLower(doc), strings.ToLower(f.File)) {
			return false
		}
	}
	if f.Title != "" && !strings.Contains(strings.ToLower(lp.Meta.Title), strings.ToLower(f.Title)) {
		return false
	}
	for _, a := range f.Authors {
		if !lp.Meta.HasAuthor(a) {
			return false
		}
	}
	for _, t := range f.Tags {
		if !lp.Meta.HasTag(t) {
			return false
		}
	}
	for k, want := range f.Labels {
		have, ok := lp.Meta.Labels[k]
		if !ok || paper.FormatValue(have) != paper.FormatValue(want) {
			return false
		}
	}
	return true
}
