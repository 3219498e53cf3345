// Package paper defines the metadata model for reference documents and its
// note-file serialization. A paper is one Markdown note file: a YAML
// front-matter block holding the metadata, followed by free-form notes.
package paper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Meta is the editable metadata record for one paper. The title doubles as
// the identity: the note's canonical path is derived from it.
type Meta struct {
	Title      string         `yaml:"title" json:"title"`
	URL        *string        `yaml:"url" json:"url"`
	Filename   *string        `yaml:"filename" json:"filename"`
	Tags       []string       `yaml:"tags" json:"tags"`
	Labels     map[string]any `yaml:"labels" json:"labels"`
	Authors    []string       `yaml:"authors" json:"authors"`
	CreatedAt  time.Time      `yaml:"created_at" json:"created_at"`
	ModifiedAt time.Time      `yaml:"modified_at" json:"modified_at"`
	LastReview *time.Time     `yaml:"last_review" json:"last_review"`
	NextReview *time.Time     `yaml:"next_review" json:"next_review"`
}

// Validate checks the structural invariants of the record.
func (m *Meta) Validate() error {
	if err := validation.ValidateStruct(m,
		validation.Field(&m.Title, validation.Required),
	); err != nil {
		return err
	}
	if SanitizeTitle(m.Title) == "" {
		return fmt.Errorf("title %q is empty after removing prohibited characters", m.Title)
	}
	for key := range m.Labels {
		if strings.Contains(key, "=") {
			return fmt.Errorf("label key %q contains '='", key)
		}
	}
	return nil
}

// Document returns the document filename, or "" when no document is attached.
func (m *Meta) Document() string {
	if m.Filename == nil {
		return ""
	}
	return *m.Filename
}

// SetDocument points the paper at a document file. An empty name detaches it.
func (m *Meta) SetDocument(name string) {
	if name == "" {
		m.Filename = nil
		return
	}
	m.Filename = &name
}

// SourceURL returns the source URL, or "" when none was recorded.
func (m *Meta) SourceURL() string {
	if m.URL == nil {
		return ""
	}
	return *m.URL
}

// SetSourceURL records the source URL. An empty string clears it.
func (m *Meta) SetSourceURL(u string) {
	if u == "" {
		m.URL = nil
		return
	}
	m.URL = &u
}

// AddTags inserts tags, keeping the set deduplicated and sorted.
func (m *Meta) AddTags(tags ...string) {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || m.HasTag(t) {
			continue
		}
		m.Tags = append(m.Tags, t)
	}
	sort.Strings(m.Tags)
}

// RemoveTags deletes the given tags if present.
func (m *Meta) RemoveTags(tags ...string) {
	for _, t := range tags {
		for i, have := range m.Tags {
			if have == t {
				m.Tags = append(m.Tags[:i], m.Tags[i+1:]...)
				break
			}
		}
	}
}

// HasTag reports whether the tag is present.
func (m *Meta) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// AddAuthors appends authors, preserving entry order and skipping ones
// already present.
func (m *Meta) AddAuthors(authors ...string) {
	for _, a := range authors {
		a = strings.TrimSpace(a)
		if a == "" || m.HasAuthor(a) {
			continue
		}
		m.Authors = append(m.Authors, a)
	}
}

// RemoveAuthors deletes the given authors if present.
func (m *Meta) RemoveAuthors(authors ...string) {
	for _, a := range authors {
		for i, have := range m.Authors {
			if have == a {
				m.Authors = append(m.Authors[:i], m.Authors[i+1:]...)
				break
			}
		}
	}
}

// HasAuthor reports whether the author is present.
func (m *Meta) HasAuthor(author string) bool {
	for _, a := range m.Authors {
		if a == author {
			return true
		}
	}
	return false
}

// SetLabel sets a label value, creating the map on first use.
func (m *Meta) SetLabel(key string, value any) {
	if m.Labels == nil {
		m.Labels = make(map[string]any)
	}
	m.Labels[key] = value
}

// RemoveLabel deletes a label by key.
func (m *Meta) RemoveLabel(key string) {
	delete(m.Labels, key)
}

// ParseLabel parses a textual "key=value" label. The value is decoded as a
// YAML scalar so "done=true" and "priority=3" carry typed values, and
// "note=draft" stays a string.
func ParseLabel(s string) (string, any, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok {
		return "", nil, fmt.Errorf("label %q: missing value, should be of the form key=value", s)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", nil, fmt.Errorf("label %q: empty key", s)
	}
	if strings.Contains(raw, "=") {
		return "", nil, fmt.Errorf("label %q: too many '='", s)
	}
	var value any
	if err := yaml.Unmarshal([]byte(strings.TrimSpace(raw)), &value); err != nil {
		value = strings.TrimSpace(raw)
	}
	return key, value, nil
}

// FormatValue renders a label value the way it reads in a filter argument.
// Null renders as the empty string.
func FormatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// Now returns the current UTC time at the second resolution used by the
// on-disk format.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
