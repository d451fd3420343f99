package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
	tu "github.com/do-hu-so/GD-Ba-Than/internal/testing"
)

func TestHTTPDownloader(t *testing.T) {
	t.Run("Writes File", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("jpeg-bytes"))
		}))
		defer server.Close()

		path := filepath.Join(t.TempDir(), "2022", "Tết_2022.jpg")
		n, err := NewHTTPDownloader(nil).Download(context.Background(), server.URL+"/abc123", path)
		if err != nil {
			t.Fatalf("Download() error = %v", err)
		}
		if n != int64(len("jpeg-bytes")) {
			t.Errorf("expected %d bytes, got %d", len("jpeg-bytes"), n)
		}
		if got := tu.MustReadFile(t, path); got != "jpeg-bytes" {
			t.Errorf("unexpected file content %q", got)
		}
	})

	t.Run("Status Error Leaves No File", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		dir := t.TempDir()
		path := filepath.Join(dir, "missing.jpg")
		_, err := NewHTTPDownloader(nil).Download(context.Background(), server.URL, path)
		if !errors.Is(err, shared.ErrDownloadFailed) {
			t.Fatalf("expected ErrDownloadFailed, got %v", err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("expected no file after failed download")
		}
	})

	t.Run("Body Read Failure", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
			StatusCode: http.StatusOK,
			Body:       &tu.FCloser{},
			Header:     http.Header{},
		}, nil)}

		dir := t.TempDir()
		_, err := NewHTTPDownloader(client).Download(context.Background(), "http://example.com/x", filepath.Join(dir, "x.jpg"))
		if !errors.Is(err, shared.ErrDownloadFailed) {
			t.Fatalf("expected ErrDownloadFailed, got %v", err)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("expected temp file to be cleaned up, found %d entries", len(entries))
		}
	})
}
