// Package filetype sniffs a file's type from its content so renamed
// documents keep a truthful extension.
package filetype

import (
	"bytes"
	"net/http"
	"os"
)

// sniffLen matches the amount http.DetectContentType considers.
const sniffLen = 512

// DetectExt returns an extension (without the dot) for the file's detected
// content type, or "" when the type is unknown and the caller should keep
// the existing extension.
func DetectExt(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, sniffLen)
	n, err := f.Read(buf)
	if n == 0 && err != nil {
		return ""
	}
	return ExtFor(buf[:n])
}

// ExtFor maps content bytes to an extension, or "".
func ExtFor(data []byte) string {
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return "pdf"
	}
	switch http.DetectContentType(data) {
	case "application/pdf":
		return "pdf"
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "application/zip":
		return "zip"
	case "application/x-gzip":
		return "gz"
	case "application/postscript":
		return "ps"
	default:
		return ""
	}
}
