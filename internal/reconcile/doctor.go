package reconcile

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jholt/papers/internal/repo"
)

// PathMismatch is a note file living somewhere other than its derived path.
type PathMismatch struct {
	NotePath string
	Expected string
	Fixed    bool
}

// MissingDoc is a metadata record pointing at a document that is gone.
type MissingDoc struct {
	NotePath string
	Filename string
}

// DoctorReport is the outcome of one doctor pass.
type DoctorReport struct {
	Mismatches    []PathMismatch
	MissingDocs   []MissingDoc
	Orphans       []string // files under the root no paper accounts for
	ParseFailures []Failure
}

// Clean reports whether the pass found nothing to complain about.
func (r *DoctorReport) Clean() bool {
	return len(r.Mismatches) == 0 && len(r.MissingDocs) == 0 &&
		len(r.Orphans) == 0 && len(r.ParseFailures) == 0
}

// Doctor walks every regular file under the root and reports drift between
// metadata, note files and document files. It never deletes anything; with
// fix it only moves mis-placed note files to their derived paths.
func Doctor(st *repo.Store, fix bool) (*DoctorReport, error) {
	rep := &DoctorReport{}
	accounted := make(map[string]bool)
	var candidates []string

	err := filepath.WalkDir(st.Root(), func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(st.Root(), p)
		if relErr != nil {
			return relErr
		}
		if filepath.Ext(rel) != ".md" {
			candidates = append(candidates, rel)
			return nil
		}

		lp, parseErr := st.GetPaper(rel)
		if parseErr != nil {
			rep.ParseFailures = append(rep.ParseFailures, Failure{Path: rel, Err: parseErr})
			return nil
		}

		expected := lp.Meta.Path()
		if rel != expected {
			mm := PathMismatch{NotePath: rel, Expected: expected}
			if fix && !exists(st.Abs(expected)) {
				if mvErr := os.Rename(p, st.Abs(expected)); mvErr == nil {
					mm.Fixed = true
				}
			}
			rep.Mismatches = append(rep.Mismatches, mm)
		}

		if doc := lp.Meta.Document(); doc != "" {
			if exists(st.Abs(doc)) {
				accounted[filepath.Clean(doc)] = true
			} else {
				rep.MissingDocs = append(rep.MissingDocs, MissingDoc{NotePath: rel, Filename: doc})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, rel := range candidates {
		if !accounted[filepath.Clean(rel)] {
			rep.Orphans = append(rep.Orphans, rel)
		}
	}
	return rep, nil
}
