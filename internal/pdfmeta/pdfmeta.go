// Package pdfmeta extracts the title and authors recorded in a PDF's
// document information dictionary. It is strictly best effort: anything that
// is not a PDF, or carries no usable Info entries, yields empty results and
// the caller falls back to explicit input.
package pdfmeta

import (
	"bytes"
	"os"
	"regexp"
	"strings"
)

// maxRead bounds how much of the file is scanned. The Info dictionary of a
// sane PDF sits well within this.
const maxRead = 8 << 20

var (
	titleRe  = regexp.MustCompile(`/Title\s*\(((?:\\.|[^()\\])*)\)`)
	authorRe = regexp.MustCompile(`/Author\s*\(((?:\\.|[^()\\])*)\)`)
)

// Extract returns the embedded title and author names of a PDF file.
// Both are zero-valued when the metadata is absent or unreadable.
func Extract(path string) (title string, authors []string) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil
	}
	defer f.Close()

	buf := make([]byte, maxRead)
	n, _ := f.Read(buf)
	data := buf[:n]
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		return "", nil
	}

	if m := titleRe.FindSubmatch(data); m != nil {
		title = strings.TrimSpace(unescape(string(m[1])))
	}
	if m := authorRe.FindSubmatch(data); m != nil {
		authors = SplitAuthors(unescape(string(m[1])))
	}
	return title, authors
}

// SplitAuthors splits an Info-dict author string into individual names.
// Names keep alphanumerics, whitespace and full stops ("First M. Last");
// everything else separates entries.
func SplitAuthors(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !isNameRune(r)
	})
	var out []string
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func isNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '\t', r == '.':
		return true
	default:
		return r > 127 // keep non-ASCII letters intact
	}
}

// unescape undoes the PDF literal-string escapes that matter for names.
func unescape(s string) string {
	r := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`, `\n`, " ", `\r`, " ", `\t`, " ")
	return r.Replace(s)
}
