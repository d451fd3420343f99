package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// HTTPDownloader implements [Downloader] over plain HTTP GETs.
type HTTPDownloader struct {
	httpClient *http.Client
}

// NewHTTPDownloader creates an [HTTPDownloader]; client defaults to [http.DefaultClient].
func NewHTTPDownloader(client *http.Client) *HTTPDownloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPDownloader{httpClient: client}
}

// Download streams url into path. The file only appears at path once fully written.
func (d *HTTPDownloader) Download(ctx context.Context, url, path string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("%w: %s returned status %d", shared.ErrDownloadFailed, url, resp.StatusCode)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}

	tmp, err := os.CreateTemp(dir, ".download-*")
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}
	return n, nil
}
