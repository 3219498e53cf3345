package paper

import "strings"

// prohibitedPathChars are stripped from titles before they become file
// names. They are unsafe across common filesystems, or ('.') would collide
// with the .md extension.
const prohibitedPathChars = `/\?%*:|"<>.`

// SanitizeTitle strips every prohibited character from a title. It is pure
// and idempotent; two distinct titles can collapse to the same result, which
// the store rejects at creation time.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if strings.ContainsRune(prohibitedPathChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NotePath derives the canonical note path, relative to the repository root,
// for a given title.
func NotePath(title string) string {
	return SanitizeTitle(title) + ".md"
}

// Path returns the canonical note path for this record. The on-disk location
// of an already-loaded paper stays authoritative; this is the expected path
// used when reconciling.
func (m *Meta) Path() string {
	return NotePath(m.Title)
}
