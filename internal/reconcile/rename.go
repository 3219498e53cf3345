// Package reconcile realigns on-disk file names with paper metadata and
// detects drift between the two. Both passes are best effort: one paper's
// failure is recorded and the pass continues.
package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jholt/papers/internal/filetype"
	"github.com/jholt/papers/internal/paper"
	"github.com/jholt/papers/internal/repo"
)

// Strategy names a way of producing a candidate base name for a paper's
// files.
type Strategy string

// StrategyTitle renames files to the paper's sanitized title.
const StrategyTitle Strategy = "title"

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyTitle:
		return StrategyTitle, nil
	default:
		return "", fmt.Errorf("unknown rename strategy %q", s)
	}
}

// Rename produces the candidate base name for a paper under this strategy.
func (st Strategy) Rename(m *paper.Meta) (string, error) {
	switch st {
	case StrategyTitle:
		name := paper.SanitizeTitle(m.Title)
		if name == "" {
			return "", fmt.Errorf("missing title")
		}
		return name, nil
	default:
		return "", fmt.Errorf("unknown rename strategy %q", st)
	}
}

// Move records a planned or executed file move, both paths root-relative.
type Move struct {
	From string
	To   string
}

// Failure records a paper the pass had to skip.
type Failure struct {
	Path string
	Err  error
}

// RenameReport is the outcome of one rename-files pass.
type RenameReport struct {
	Moved     []Move
	NoOps     []Move // already named correctly, reported but not executed
	Conflicts []Move // destination exists, skipped
	Failures  []Failure
}

// RenameFiles walks every paper and renames its document file to the
// strategy's candidate name (with a content-sniffed extension) and its note
// file to the canonical derived path. With dryRun the report is produced but
// nothing moves.
func RenameFiles(st *repo.Store, strategy Strategy, dryRun bool) *RenameReport {
	rep := &RenameReport{}
	papers, skipped := st.AllPapers()
	for _, sk := range skipped {
		rep.Failures = append(rep.Failures, Failure{Path: sk.Path, Err: sk.Err})
	}
	for i := range papers {
		lp := papers[i]
		name, err := strategy.Rename(&lp.Meta)
		if err != nil {
			rep.Failures = append(rep.Failures, Failure{Path: lp.Path, Err: err})
			continue
		}
		renameDocument(st, rep, &lp, name, dryRun)
		renameNote(st, rep, &lp, dryRun)
	}
	return rep
}

// renameDocument moves the paper's document file to the candidate name,
// keeping its directory and detecting the extension from content.
func renameDocument(st *repo.Store, rep *RenameReport, lp *repo.LoadedPaper, name string, dryRun bool) {
	doc := lp.Meta.Document()
	if doc == "" {
		return
	}
	absDoc := st.Abs(doc)
	if _, err := os.Stat(absDoc); err != nil {
		rep.Failures = append(rep.Failures, Failure{Path: lp.Path, Err: fmt.Errorf("document %s: %w", doc, err)})
		return
	}
	ext := filetype.DetectExt(absDoc)
	if ext == "" {
		ext = strings.TrimPrefix(filepath.Ext(doc), ".")
	}
	newDoc := name
	if ext != "" {
		newDoc += "." + ext
	}
	newDoc = filepath.Join(filepath.Dir(doc), newDoc)

	mv := Move{From: doc, To: newDoc}
	switch {
	case newDoc == doc:
		rep.NoOps = append(rep.NoOps, mv)
	case exists(st.Abs(newDoc)):
		rep.Conflicts = append(rep.Conflicts, mv)
	default:
		if !dryRun {
			if err := os.Rename(absDoc, st.Abs(newDoc)); err != nil {
				rep.Failures = append(rep.Failures, Failure{Path: lp.Path, Err: err})
				return
			}
			if err := st.Update(lp, st.Abs(newDoc)); err != nil {
				rep.Failures = append(rep.Failures, Failure{Path: lp.Path, Err: err})
				return
			}
		}
		rep.Moved = append(rep.Moved, mv)
	}
}

// renameNote moves the note file to the canonical derived path.
func renameNote(st *repo.Store, rep *RenameReport, lp *repo.LoadedPaper, dryRun bool) {
	expected := lp.Meta.Path()
	mv := Move{From: lp.Path, To: expected}
	switch {
	case expected == lp.Path:
		rep.NoOps = append(rep.NoOps, mv)
	case exists(st.Abs(expected)):
		rep.Conflicts = append(rep.Conflicts, mv)
	default:
		if !dryRun {
			if err := os.Rename(st.Abs(lp.Path), st.Abs(expected)); err != nil {
				rep.Failures = append(rep.Failures, Failure{Path: lp.Path, Err: err})
				return
			}
		}
		rep.Moved = append(rep.Moved, mv)
	}
}

func exists(abs string) bool {
	_, err := os.Stat(abs)
	return err == nil
}
