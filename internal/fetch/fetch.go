// Package fetch downloads remote documents into the repository. The store
// itself never performs network I/O; this collaborator writes the bytes to a
// caller-chosen path.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"
)

const userAgent = "papers/1.0"

// DefaultName derives a file name from a URL's last path segment.
func DefaultName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch: parse url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("fetch: cannot derive a file name from %s", rawURL)
	}
	return name, nil
}

// Download fetches rawURL and writes the body to dest. It returns the
// response content type so callers can warn about unexpected payloads.
func Download(ctx context.Context, rawURL, dest string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	client := &http.Client{Timeout: 5 * time.Minute}
	res, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: get %s: %w", rawURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("fetch: get %s: unexpected status %s", rawURL, res.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("fetch: create %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, res.Body); err != nil {
		return "", fmt.Errorf("fetch: save %s: %w", dest, err)
	}
	return res.Header.Get("Content-Type"), nil
}
