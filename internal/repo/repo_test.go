package repo_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/jholt/papers/internal/apperr"
	"github.com/jholt/papers/internal/paper"
	"github.com/jholt/papers/internal/repo"
	"github.com/jholt/papers/internal/testutil"
)

func TestAddCreatesNote(t *testing.T) {
	root, st := testutil.TestRepo(t)

	m, err := st.Add("", "", "My Title", []string{"An Author"}, []string{"ml"}, map[string]any{"priority": 3})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if m.Path() != "My Title.md" {
		t.Errorf("Path = %q, want My Title.md", m.Path())
	}

	data, err := os.ReadFile(filepath.Join(root, "My Title.md"))
	if err != nil {
		t.Fatalf("read note: %v", err)
	}
	got, notes, err := paper.ParseNote(data)
	if err != nil {
		t.Fatalf("ParseNote: %v", err)
	}
	if notes != "" {
		t.Errorf("new paper has notes %q, want empty", notes)
	}
	if diff := cmp.Diff(m, got); diff != "" {
		t.Errorf("on-disk metadata mismatch (-want +got):\n%s", diff)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(got.ModifiedAt) {
		t.Errorf("timestamps: created %v modified %v", got.CreatedAt, got.ModifiedAt)
	}
}

func TestAddSanitizesTitle(t *testing.T) {
	root, st := testutil.TestRepo(t)

	m, err := st.Add("", "", "Other/Title:1", nil, nil, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if m.Path() != "OtherTitle1.md" {
		t.Errorf("Path = %q, want OtherTitle1.md", m.Path())
	}
	if _, err := os.Stat(filepath.Join(root, "OtherTitle1.md")); err != nil {
		t.Errorf("note file missing: %v", err)
	}
	// The title itself keeps the prohibited characters.
	if m.Title != "Other/Title:1" {
		t.Errorf("Title = %q, want the original", m.Title)
	}
}

func TestAddCollision(t *testing.T) {
	root, st := testutil.TestRepo(t)

	if _, err := st.Add("", "", "Same.Title", nil, []string{"first"}, nil); err != nil {
		t.Fatalf("first Add: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(root, "SameTitle.md"))
	if err != nil {
		t.Fatal(err)
	}

	// A distinct title collapsing to the same path is still a collision.
	_, err = st.Add("", "", "SameTitle", nil, []string{"second"}, nil)
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}

	after, err := os.ReadFile(filepath.Join(root, "SameTitle.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(before) != string(after) {
		t.Error("existing note was modified by the failed Add")
	}
}

func TestAddRejectsEmptyTitle(t *testing.T) {
	_, st := testutil.TestRepo(t)
	if _, err := st.Add("", "", "", nil, nil, nil); err == nil {
		t.Fatal("expected error for empty title")
	}
	if _, err := st.Add("", "", "...", nil, nil, nil); err == nil {
		t.Fatal("expected error for title that sanitizes to nothing")
	}
}

func TestAddDocumentOutsideRoot(t *testing.T) {
	_, st := testutil.TestRepo(t)

	outside := filepath.Join(t.TempDir(), "elsewhere.pdf")
	if err := os.WriteFile(outside, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := st.Add(outside, "", "Escapes", nil, nil, nil)
	if !errors.Is(err, apperr.ErrOutsideRoot) {
		t.Fatalf("err = %v, want ErrOutsideRoot", err)
	}
}

func TestAddDocumentInsideRoot(t *testing.T) {
	root, st := testutil.TestRepo(t)
	doc := testutil.WriteFile(t, root, "a.pdf", []byte("%PDF-1.4"))

	m, err := st.Add(doc, "https://example.com/a.pdf", "With Doc", nil, nil, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if m.Document() != "a.pdf" {
		t.Errorf("Document = %q, want the root-relative a.pdf", m.Document())
	}
	if m.SourceURL() != "https://example.com/a.pdf" {
		t.Errorf("SourceURL = %q", m.SourceURL())
	}
}

func TestUpdatePreservesExternalEdits(t *testing.T) {
	root, st := testutil.TestRepo(t)
	doc := testutil.WriteFile(t, root, "b.pdf", []byte("%PDF-1.4"))

	m, err := st.Add("", "", "Edited Elsewhere", nil, nil, nil)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	lp, err := st.GetPaper(m.Path())
	if err != nil {
		t.Fatal(err)
	}

	// Someone edits the notes body behind the store's back.
	edited, err := paper.MarshalNote(m, "hand-written notes\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, m.Path()), edited, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := st.Update(lp, doc); err != nil {
		t.Fatalf("Update: %v", err)
	}
	after, err := st.GetPaper(m.Path())
	if err != nil {
		t.Fatal(err)
	}
	if after.Notes != "hand-written notes\n" {
		t.Errorf("Notes = %q, external edit was clobbered", after.Notes)
	}
	if after.Meta.Document() != "b.pdf" {
		t.Errorf("Document = %q, want b.pdf", after.Meta.Document())
	}
}

func TestNotePathEscapeRejected(t *testing.T) {
	root, st := testutil.TestRepo(t)

	// A perfectly valid note sitting outside the root must stay unreachable.
	outside := filepath.Join(filepath.Dir(root), "outside.md")
	secret := &paper.Meta{Title: "Secret"}
	data, err := paper.MarshalNote(secret, "private notes\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(outside, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := st.GetPaper("../outside.md"); !errors.Is(err, apperr.ErrOutsideRoot) {
		t.Errorf("GetPaper err = %v, want ErrOutsideRoot", err)
	}
	if err := st.WritePaper("../evil.md", &paper.Meta{Title: "Evil"}, ""); !errors.Is(err, apperr.ErrOutsideRoot) {
		t.Errorf("WritePaper err = %v, want ErrOutsideRoot", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "evil.md")); !os.IsNotExist(err) {
		t.Errorf("escaping write created a file: %v", err)
	}
	if err := st.RemoveNote("../outside.md"); !errors.Is(err, apperr.ErrOutsideRoot) {
		t.Errorf("RemoveNote err = %v, want ErrOutsideRoot", err)
	}
	if err := st.RemoveDocument("../outside.md"); !errors.Is(err, apperr.ErrOutsideRoot) {
		t.Errorf("RemoveDocument err = %v, want ErrOutsideRoot", err)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("outside file was touched: %v", err)
	}

	// An absolute path inside the root is still fine.
	m, err := st.Add("", "", "In Root", nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.GetPaper(filepath.Join(root, m.Path())); err != nil {
		t.Errorf("absolute in-root path rejected: %v", err)
	}
}

func TestGetPaperNotFound(t *testing.T) {
	_, st := testutil.TestRepo(t)
	_, err := st.GetPaper("nope.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAllPapersSkipsUnparseable(t *testing.T) {
	root, st := testutil.TestRepo(t)

	if _, err := st.Add("", "", "Good One", nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Add("", "", "Good Two", nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFile(t, root, "corrupt.md", []byte("no front matter here"))
	testutil.WriteFile(t, root, "not-a-note.txt", []byte("ignored"))
	if err := os.Mkdir(filepath.Join(root, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	papers, skipped := st.AllPapers()
	if len(papers) != 2 {
		t.Errorf("papers = %d, want 2", len(papers))
	}
	if len(skipped) != 1 || skipped[0].Path != "corrupt.md" {
		t.Errorf("skipped = %+v, want only corrupt.md", skipped)
	}
	if !errors.Is(skipped[0].Err, apperr.ErrNoFrontMatter) {
		t.Errorf("skip reason = %v, want ErrNoFrontMatter", skipped[0].Err)
	}
}

func TestImportPreservesTimestamps(t *testing.T) {
	_, st := testutil.TestRepo(t)

	created := time.Date(2020, 3, 1, 8, 0, 0, 0, time.UTC)
	modified := time.Date(2021, 4, 2, 9, 30, 0, 0, time.UTC)
	m := &paper.Meta{Title: "Old Record", CreatedAt: created, ModifiedAt: modified}
	if err := st.Import(m); err != nil {
		t.Fatalf("Import: %v", err)
	}

	lp, err := st.GetPaper("Old Record.md")
	if err != nil {
		t.Fatal(err)
	}
	if !lp.Meta.CreatedAt.Equal(created) || !lp.Meta.ModifiedAt.Equal(modified) {
		t.Errorf("timestamps restamped: created %v modified %v", lp.Meta.CreatedAt, lp.Meta.ModifiedAt)
	}
}

func TestRemoveNote(t *testing.T) {
	root, st := testutil.TestRepo(t)
	m, err := st.Add("", "", "Doomed", nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.RemoveNote(m.Path()); err != nil {
		t.Fatalf("RemoveNote: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, m.Path())); !os.IsNotExist(err) {
		t.Errorf("note still exists: %v", err)
	}
	if err := st.RemoveNote(m.Path()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second remove err = %v, want ErrNotFound", err)
	}
}

func TestMutators(t *testing.T) {
	_, st := testutil.TestRepo(t)
	m, err := st.Add("", "", "Mutable", nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	path := m.Path()

	if err := st.AddTags(path, "beta", "alpha"); err != nil {
		t.Fatalf("AddTags: %v", err)
	}
	if err := st.AddAuthors(path, "Z Author", "A Author"); err != nil {
		t.Fatalf("AddAuthors: %v", err)
	}
	if err := st.AddLabels(path, map[string]any{"priority": 3, "done": false}); err != nil {
		t.Fatalf("AddLabels: %v", err)
	}

	lp, err := st.GetPaper(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"alpha", "beta"}, lp.Meta.Tags); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Z Author", "A Author"}, lp.Meta.Authors); diff != "" {
		t.Errorf("authors (-want +got):\n%s", diff)
	}

	if err := st.RemoveTags(path, "alpha"); err != nil {
		t.Fatal(err)
	}
	if err := st.RemoveAuthors(path, "Z Author"); err != nil {
		t.Fatal(err)
	}
	if err := st.RemoveLabels(path, "done"); err != nil {
		t.Fatal(err)
	}

	lp, err = st.GetPaper(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"beta"}, lp.Meta.Tags); diff != "" {
		t.Errorf("tags after remove (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A Author"}, lp.Meta.Authors); diff != "" {
		t.Errorf("authors after remove (-want +got):\n%s", diff)
	}
	if _, ok := lp.Meta.Labels["done"]; ok {
		t.Error("label done still present")
	}
	if _, ok := lp.Meta.Labels["priority"]; !ok {
		t.Error("label priority lost")
	}
}

func TestLoadRejectsMissingRoot(t *testing.T) {
	_, err := repo.Load(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestInitCreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "new-repo")
	st, err := repo.Init(dir)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !strings.HasSuffix(st.Root(), "new-repo") {
		t.Errorf("Root = %q", st.Root())
	}
}
