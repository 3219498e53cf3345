package reconcile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jholt/papers/internal/reconcile"
	"github.com/jholt/papers/internal/testutil"
)

func TestDoctorCleanRepo(t *testing.T) {
	root, st := testutil.TestRepo(t)
	doc := testutil.WriteFile(t, root, "fine.pdf", pdfBytes)
	if _, err := st.Add(doc, "", "All Fine", nil, nil, nil); err != nil {
		t.Fatal(err)
	}

	rep, err := reconcile.Doctor(st, false)
	if err != nil {
		t.Fatalf("Doctor: %v", err)
	}
	if !rep.Clean() {
		t.Errorf("report not clean: %+v", rep)
	}
}

func TestDoctorDetectsMisplacedNote(t *testing.T) {
	root, st := testutil.TestRepo(t)
	if _, err := st.Add("", "", "Bar", nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(filepath.Join(root, "Bar.md"), filepath.Join(root, "foo.md")); err != nil {
		t.Fatal(err)
	}

	rep, err := reconcile.Doctor(st, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Mismatches) != 1 {
		t.Fatalf("mismatches = %+v, want one", rep.Mismatches)
	}
	mm := rep.Mismatches[0]
	if mm.NotePath != "foo.md" || mm.Expected != "Bar.md" || mm.Fixed {
		t.Errorf("mismatch = %+v", mm)
	}
	// Without fix the file stays where it is.
	if _, err := os.Stat(filepath.Join(root, "foo.md")); err != nil {
		t.Errorf("note moved without fix: %v", err)
	}
}

func TestDoctorFixMovesNote(t *testing.T) {
	root, st := testutil.TestRepo(t)
	if _, err := st.Add("", "", "Bar", nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(filepath.Join(root, "Bar.md"), filepath.Join(root, "foo.md")); err != nil {
		t.Fatal(err)
	}

	rep, err := reconcile.Doctor(st, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Mismatches) != 1 || !rep.Mismatches[0].Fixed {
		t.Fatalf("mismatches = %+v, want one fixed", rep.Mismatches)
	}
	if _, err := os.Stat(filepath.Join(root, "Bar.md")); err != nil {
		t.Errorf("note not at canonical path after fix: %v", err)
	}

	// The next pass finds nothing.
	rep, err = reconcile.Doctor(st, false)
	if err != nil {
		t.Fatal(err)
	}
	if !rep.Clean() {
		t.Errorf("repo still dirty after fix: %+v", rep)
	}
}

func TestDoctorFixKeepsConflictingNote(t *testing.T) {
	root, st := testutil.TestRepo(t)
	if _, err := st.Add("", "", "Bar", nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(filepath.Join(root, "Bar.md"), filepath.Join(root, "foo.md")); err != nil {
		t.Fatal(err)
	}
	// The canonical path is retaken by another paper.
	if _, err := st.Add("", "", "Bar", nil, nil, nil); err != nil {
		t.Fatal(err)
	}

	rep, err := reconcile.Doctor(st, true)
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, mm := range rep.Mismatches {
		if mm.NotePath == "foo.md" {
			found = true
			if mm.Fixed {
				t.Error("doctor overwrote an existing note")
			}
		}
	}
	if !found {
		t.Fatalf("mismatches = %+v, foo.md not reported", rep.Mismatches)
	}
	if _, err := os.Stat(filepath.Join(root, "foo.md")); err != nil {
		t.Errorf("conflicting note was moved: %v", err)
	}
}

func TestDoctorDetectsMissingDocument(t *testing.T) {
	root, st := testutil.TestRepo(t)
	doc := testutil.WriteFile(t, root, "vanishes.pdf", pdfBytes)
	if _, err := st.Add(doc, "", "Lost Doc", nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(doc); err != nil {
		t.Fatal(err)
	}

	rep, err := reconcile.Doctor(st, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.MissingDocs) != 1 {
		t.Fatalf("missing docs = %+v, want one", rep.MissingDocs)
	}
	md := rep.MissingDocs[0]
	if md.NotePath != "Lost Doc.md" || md.Filename != "vanishes.pdf" {
		t.Errorf("missing doc = %+v", md)
	}
}

func TestDoctorDetectsOrphans(t *testing.T) {
	root, st := testutil.TestRepo(t)
	claimed := testutil.WriteFile(t, root, "claimed.pdf", pdfBytes)
	if _, err := st.Add(claimed, "", "Claimed", nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	testutil.WriteFile(t, root, "stray.pdf", pdfBytes)
	testutil.WriteFile(t, root, "sub/nested-stray.pdf", pdfBytes)

	rep, err := reconcile.Doctor(st, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Orphans) != 2 {
		t.Fatalf("orphans = %+v, want stray.pdf and sub/nested-stray.pdf", rep.Orphans)
	}
	got := map[string]bool{}
	for _, o := range rep.Orphans {
		got[o] = true
	}
	if !got["stray.pdf"] || !got[filepath.Join("sub", "nested-stray.pdf")] {
		t.Errorf("orphans = %+v", rep.Orphans)
	}
}

func TestDoctorReportsUnparseableNotes(t *testing.T) {
	root, st := testutil.TestRepo(t)
	testutil.WriteFile(t, root, "broken.md", []byte("no front matter"))

	rep, err := reconcile.Doctor(st, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.ParseFailures) != 1 || rep.ParseFailures[0].Path != "broken.md" {
		t.Fatalf("parse failures = %+v", rep.ParseFailures)
	}
}
