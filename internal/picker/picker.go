// Package picker selects papers for interactive flows. The repository never
// depends on a concrete selector; batch operations (list, doctor,
// rename-files) must not use one at all.
package picker

import "github.com/jholt/papers/internal/repo"

// Selector chooses zero, one, or many papers from a candidate list.
// Implementations may be interactive (a fuzzy finder) or deterministic.
type Selector interface {
	Pick(papers []repo.LoadedPaper) (*repo.LoadedPaper, bool)
	PickMany(papers []repo.LoadedPaper) []repo.LoadedPaper
}

// First is the deterministic fallback selector: it picks the first
// candidate, or everything for a multi-pick.
type First struct{}

// Pick returns the first candidate, if any.
func (First) Pick(papers []repo.LoadedPaper) (*repo.LoadedPaper, bool) {
	if len(papers) == 0 {
		return nil, false
	}
	return &papers[0], true
}

// PickMany returns all candidates.
func (First) PickMany(papers []repo.LoadedPaper) []repo.LoadedPaper {
	return papers
}
