// Package export moves paper metadata in and out of the repository as JSON.
// The wire format is a JSON array of metadata records, the same shape
// `list --output json` prints.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jholt/papers/internal/paper"
	"github.com/jholt/papers/internal/repo"
)

// Write serializes the metadata of the given papers to w.
func Write(w io.Writer, papers []repo.LoadedPaper) error {
	metas := make([]paper.Meta, len(papers))
	for i, lp := range papers {
		metas[i] = lp.Meta
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(metas); err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	return nil
}

// ImportFailure records one record the import loop could not store.
type ImportFailure struct {
	Title string
	Err   error
}

// Read imports a JSON array of metadata records one at a time. A failing
// record is reported and does not stop the rest; the store's Import itself
// is atomic per record.
func Read(st *repo.Store, r io.Reader) (added int, failures []ImportFailure, err error) {
	var metas []paper.Meta
	if err := json.NewDecoder(r).Decode(&metas); err != nil {
		return 0, nil, fmt.Errorf("export: decode: %w", err)
	}
	for i := range metas {
		m := metas[i]
		if impErr := st.Import(&m); impErr != nil {
			failures = append(failures, ImportFailure{Title: m.Title, Err: impErr})
			continue
		}
		added++
	}
	return added, failures, nil
}
