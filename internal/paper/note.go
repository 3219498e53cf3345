package paper

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jholt/papers/internal/apperr"
)

const delim = "---"

// MarshalNote serializes a paper into its note-file form: a YAML
// front-matter block between --- delimiters, then the notes body verbatim.
func MarshalNote(m *Meta, notes string) ([]byte, error) {
	fm, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}
	var buf bytes.Buffer
	buf.Grow(len(fm) + len(notes) + 2*len(delim) + 2)
	buf.WriteString(delim)
	buf.WriteByte('\n')
	buf.Write(fm)
	buf.WriteString(delim)
	buf.WriteByte('\n')
	buf.WriteString(notes)
	return buf.Bytes(), nil
}

// ParseNote splits a note file into metadata and notes body.
// A file without a leading front-matter block fails with ErrNoFrontMatter;
// a block that is not valid YAML fails with ErrMalformedFrontMatter.
func ParseNote(data []byte) (*Meta, string, error) {
	if !bytes.HasPrefix(data, []byte(delim+"\n")) {
		return nil, "", apperr.ErrNoFrontMatter
	}
	rest := data[len(delim)+1:]
	end := bytes.Index(rest, []byte("\n"+delim))
	if end < 0 {
		return nil, "", apperr.ErrNoFrontMatter
	}
	block := rest[:end+1]

	var m Meta
	if err := yaml.Unmarshal(block, &m); err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperr.ErrMalformedFrontMatter, err)
	}

	// The body starts after the closing delimiter line.
	body := rest[end+1+len(delim):]
	if len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}
	return &m, string(body), nil
}
