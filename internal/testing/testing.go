// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
)

// MockLister is a test double for services.Lister.
//
// Resources are returned per kind; Errs makes a kind fail. Calls counts invocations.
type MockLister struct {
	mu        sync.Mutex
	Resources map[models.Kind][]models.RemoteResource
	Errs      map[models.Kind]error
	Calls     int
	Tags      []string
}

func (m *MockLister) ListResources(ctx context.Context, kind models.Kind, tag string) ([]models.RemoteResource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.Tags = append(m.Tags, tag)
	if err := m.Errs[kind]; err != nil {
		return nil, err
	}
	return append([]models.RemoteResource(nil), m.Resources[kind]...), nil
}

// MockUploader is a test double for services.Uploader.
type MockUploader struct {
	Result *models.UploadResult
	Err    error
	Params []models.UploadParams
}

func (m *MockUploader) Upload(ctx context.Context, params models.UploadParams) (*models.UploadResult, error) {
	m.Params = append(m.Params, params)
	if params.OnProgress != nil {
		params.OnProgress(0)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if params.OnProgress != nil {
		params.OnProgress(100)
	}
	return m.Result, nil
}

// MockDownloader is a test double for services.Downloader that writes Content to the target path.
type MockDownloader struct {
	mu      sync.Mutex
	Content []byte
	Err     error
	URLs    []string
}

func (m *MockDownloader) Download(ctx context.Context, url, path string) (int64, error) {
	m.mu.Lock()
	m.URLs = append(m.URLs, url)
	m.mu.Unlock()

	if m.Err != nil {
		return 0, m.Err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, m.Content, 0644); err != nil {
		return 0, err
	}
	return int64(len(m.Content)), nil
}

// Downloaded returns a copy of the URLs seen so far.
func (m *MockDownloader) Downloaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.URLs...)
}

// FailingKV is a key-value store whose writes always fail.
type FailingKV struct {
	Values map[string]string
}

func (f *FailingKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok := f.Values[key]
	return v, ok, nil
}

func (f *FailingKV) Set(ctx context.Context, key, value string) error {
	return errors.New("disk full")
}

func (f *FailingKV) Delete(ctx context.Context, key string) error {
	return errors.New("disk full")
}

// FixedClock returns a clock function that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Resource builds a remote resource with the common fields set.
func Resource(id, format, resourceType, createdAt string) models.RemoteResource {
	return models.RemoteResource{
		PublicID:     id,
		Format:       format,
		ResourceType: resourceType,
		CreatedAt:    createdAt,
		Bytes:        1024,
	}
}

// Record builds a media record with the common fields set.
func Record(id string, kind models.Kind, year int, createdAt string) models.MediaRecord {
	return models.MediaRecord{
		ID:        id,
		Kind:      kind,
		SourceURL: fmt.Sprintf("https://res.cloudinary.com/demo/%s/upload/%s", kind, id),
		Title:     id,
		Year:      year,
		CreatedAt: createdAt,
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails once maxWrites writes have been made
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

var _ io.ReadCloser = (*FCloser)(nil)

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
