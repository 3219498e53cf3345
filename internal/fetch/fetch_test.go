package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultName(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://example.com/papers/attention.pdf", want: "attention.pdf"},
		{url: "https://example.com/attention.pdf?version=2", want: "attention.pdf"},
		{url: "https://example.com/", wantErr: true},
		{url: "https://example.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := DefaultName(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DefaultName(%q): expected error, got %q", tt.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DefaultName: %v", err)
			}
			if got != tt.want {
				t.Errorf("DefaultName = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 payload"))
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "out.pdf")
	ct, err := Download(context.Background(), srv.URL+"/a.pdf", dest)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if ct != "application/pdf" {
		t.Errorf("content type = %q", ct)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "%PDF-1.4 payload" {
		t.Errorf("body = %q", data)
	}
}

func TestDownloadNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	dest := filepath.Join(t.TempDir(), "out.pdf")
	if _, err := Download(context.Background(), srv.URL+"/gone.pdf", dest); err == nil {
		t.Fatal("expected error for 404 response")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Errorf("destination created despite error: %v", err)
	}
}
