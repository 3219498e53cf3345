// Package testutil provides shared test helpers for setting up temporary
// paper repositories.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jholt/papers/internal/repo"
)

// TestRepo creates a temporary repository directory with a store over it.
func TestRepo(t *testing.T) (string, *repo.Store) {
	t.Helper()
	dir := t.TempDir()
	st, err := repo.Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	return st.Root(), st
}

// WriteFile drops raw bytes at a path relative to the repo root, creating
// parent directories as needed.
func WriteFile(t *testing.T, root, rel string, data []byte) string {
	t.Helper()
	abs := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return abs
}
