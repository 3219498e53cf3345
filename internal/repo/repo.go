// Package repo implements the file-backed repository store. The root
// directory itself is the index: every paper is one .md note file directly
// under the root, named after its title.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jholt/papers/internal/apperr"
	"github.com/jholt/papers/internal/paper"
)

// LoadedPaper is a paper read from disk: the note path it was actually
// found at, its metadata, and the notes body.
type LoadedPaper struct {
	Path  string // note file path, relative to the repository root
	Meta  paper.Meta
	Notes string
}

// Skipped records a note file that failed to parse during enumeration.
type Skipped struct {
	Path string
	Err  error
}

// Store is a repository bound to a canonicalized root directory. It assumes
// a single writer and performs blocking filesystem I/O directly.
type Store struct {
	root string
}

// Load binds a store to a root directory, resolving it to an absolute
// canonical path. No index file is required; the directory is the index.
func Load(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("repo: resolve root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("repo: canonicalize root: %w", err)
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("repo: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repo: root is not a directory: %s", resolved)
	}
	return &Store{root: resolved}, nil
}

// Init creates the directory if needed and loads a store over it.
func Init(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("repo: create root: %w", err)
	}
	return Load(root)
}

// Root returns the absolute repository root.
func (s *Store) Root() string {
	return s.root
}

// Abs resolves a root-relative path to an absolute one. Absolute inputs
// pass through unchanged.
func (s *Store) Abs(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(s.root, rel)
}

// safePath resolves a note path against the root and rejects anything that
// escapes it, whether absolute or via "..". Every note read, write and
// delete goes through this.
func (s *Store) safePath(path string) (string, error) {
	abs := filepath.Clean(s.Abs(path))
	if abs != s.root && !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("repo: note %s: %w", path, apperr.ErrOutsideRoot)
	}
	return abs, nil
}

// relDocPath canonicalizes a document file path and rejects anything that
// resolves outside the repository root.
func (s *Store) relDocPath(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("repo: resolve %s: %w", file, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("repo: canonicalize %s: %w", file, err)
	}
	rel, err := filepath.Rel(s.root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("repo: %s: %w", file, apperr.ErrOutsideRoot)
	}
	return rel, nil
}

// Add creates a new paper. file and url may be empty; authors keep their
// order, tags and labels are deduplicated. A note already existing at the
// derived path is a collision, not an overwrite.
func (s *Store) Add(file, url, title string, authors, tags []string, labels map[string]any) (*paper.Meta, error) {
	now := paper.Now()
	m := &paper.Meta{
		Title:      title,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	m.AddAuthors(authors...)
	m.AddTags(tags...)
	for k, v := range labels {
		m.SetLabel(k, v)
	}
	m.SetSourceURL(url)
	if file != "" {
		rel, err := s.relDocPath(file)
		if err != nil {
			return nil, err
		}
		m.SetDocument(rel)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	notePath := m.Path()
	if _, err := os.Stat(s.Abs(notePath)); err == nil {
		return nil, fmt.Errorf("repo: note %s: %w", notePath, apperr.ErrAlreadyExists)
	}
	if err := s.WritePaper(notePath, m, ""); err != nil {
		return nil, err
	}
	return m, nil
}

// Import writes a fully-formed record as-is, preserving its timestamps.
// Overwrite-on-conflict is the caller's concern.
func (s *Store) Import(m *paper.Meta) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return s.writeNote(m.Path(), m, "")
}

// Update repoints a paper at a new document file. The on-disk record is
// re-read first so external edits to the notes body are not clobbered.
func (s *Store) Update(lp *LoadedPaper, newFile string) error {
	rel := ""
	if newFile != "" {
		var err error
		rel, err = s.relDocPath(newFile)
		if err != nil {
			return err
		}
	}
	current, err := s.GetPaper(lp.Path)
	if err != nil {
		return err
	}
	current.Meta.SetDocument(rel)
	return s.WritePaper(current.Path, &current.Meta, current.Notes)
}

// WritePaper is the sole mutation primitive: it stamps modified_at,
// serializes, and overwrites the whole note file.
func (s *Store) WritePaper(path string, m *paper.Meta, notes string) error {
	m.ModifiedAt = paper.Now()
	return s.writeNote(path, m, notes)
}

// writeNote serializes without stamping. Writes go through a temp file and
// rename so a crash cannot leave a half-written note.
func (s *Store) writeNote(path string, m *paper.Meta, notes string) error {
	data, err := paper.MarshalNote(m, notes)
	if err != nil {
		return err
	}
	abs, err := s.safePath(path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".papers-tmp-*")
	if err != nil {
		return fmt.Errorf("repo: create temp: %w", err)
	}
	tmpName := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("repo: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("repo: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("repo: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("repo: rename: %w", err)
	}
	success = true
	return nil
}

// GetPaper reads and parses one note file. The path may be root-relative or
// absolute.
func (s *Store) GetPaper(path string) (*LoadedPaper, error) {
	abs, err := s.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("repo: note %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("repo: read %s: %w", path, err)
	}
	m, notes, err := paper.ParseNote(data)
	if err != nil {
		return nil, fmt.Errorf("repo: parse %s: %w", path, err)
	}
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		rel = path
	}
	return &LoadedPaper{Path: rel, Meta: *m, Notes: notes}, nil
}

// AllPapers scans the root's direct entries for .md files and parses each.
// Files that fail to parse are skipped, not fatal: one corrupt note must not
// abort the listing. The skipped files are returned for reporting.
func (s *Store) AllPapers() ([]LoadedPaper, []Skipped) {
	var papers []LoadedPaper
	var skipped []Skipped
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, []Skipped{{Path: s.root, Err: err}}
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		lp, err := s.GetPaper(entry.Name())
		if err != nil {
			skipped = append(skipped, Skipped{Path: entry.Name(), Err: err})
			continue
		}
		papers = append(papers, *lp)
	}
	return papers, skipped
}

// List returns the papers matching every part of the filter.
func (s *Store) List(f Filter) ([]LoadedPaper, []Skipped) {
	papers, skipped := s.AllPapers()
	var out []LoadedPaper
	for _, lp := range papers {
		if f.Match(&lp) {
			out = append(out, lp)
		}
	}
	return out, skipped
}

// RemoveNote deletes a paper's note file.
func (s *Store) RemoveNote(path string) error {
	abs, err := s.safePath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("repo: note %s: %w", path, apperr.ErrNotFound)
		}
		return fmt.Errorf("repo: remove %s: %w", path, err)
	}
	return nil
}

// RemoveDocument deletes a document file by its root-relative path.
// The path may come from note metadata, so it gets the same escape check.
func (s *Store) RemoveDocument(rel string) error {
	abs, err := s.safePath(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("repo: remove document %s: %w", rel, err)
	}
	return nil
}

// mutate re-reads a note, applies fn to its metadata, and writes it back.
func (s *Store) mutate(path string, fn func(*paper.Meta)) error {
	lp, err := s.GetPaper(path)
	if err != nil {
		return err
	}
	fn(&lp.Meta)
	return s.WritePaper(lp.Path, &lp.Meta, lp.Notes)
}

// AddTags adds tags to the paper at path.
func (s *Store) AddTags(path string, tags ...string) error {
	return s.mutate(path, func(m *paper.Meta) { m.AddTags(tags...) })
}

// RemoveTags removes tags from the paper at path.
func (s *Store) RemoveTags(path string, tags ...string) error {
	return s.mutate(path, func(m *paper.Meta) { m.RemoveTags(tags...) })
}

// AddAuthors adds authors to the paper at path.
func (s *Store) AddAuthors(path string, authors ...string) error {
	return s.mutate(path, func(m *paper.Meta) { m.AddAuthors(authors...) })
}

// RemoveAuthors removes authors from the paper at path.
func (s *Store) RemoveAuthors(path string, authors ...string) error {
	return s.mutate(path, func(m *paper.Meta) { m.RemoveAuthors(authors...) })
}

// AddLabels sets labels on the paper at path.
func (s *Store) AddLabels(path string, labels map[string]any) error {
	return s.mutate(path, func(m *paper.Meta) {
		for k, v := range labels {
			m.SetLabel(k, v)
		}
	})
}

// RemoveLabels deletes labels by key on the paper at path.
func (s *Store) RemoveLabels(path string, keys ...string) error {
	return s.mutate(path, func(m *paper.Meta) {
		for _, k := range keys {
			m.RemoveLabel(k)
		}
	})
}
