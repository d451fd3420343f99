// Cloudinary [Lister] and [Uploader] implementations
//
// Listing goes either through the gallery's own proxy (which holds the API secret) or
// straight to the Admin API when a key and secret are configured locally. Uploads use
// unsigned presets, so only the cloud name and preset are needed.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

const (
	defaultAPIBaseURL = "https://api.cloudinary.com"
	listMaxResults    = 100
)

// ProxyLister lists resources through the listing proxy's /api/cloudinary endpoint.
type ProxyLister struct {
	api *APIService
}

// NewProxyLister creates a [ProxyLister] over api.
func NewProxyLister(api *APIService) *ProxyLister {
	return &ProxyLister{api: api}
}

// ListResources implements [Lister].
func (p *ProxyLister) ListResources(ctx context.Context, kind models.Kind, tag string) ([]models.RemoteResource, error) {
	q := url.Values{}
	q.Set("type", string(kind))
	if tag != "" {
		q.Set("tag", tag)
	}

	var listing models.ListingResponse
	if err := p.api.GetJSON(ctx, "/api/cloudinary?"+q.Encode(), &listing); err != nil {
		return nil, fmt.Errorf("failed to list %s resources: %w", kind, err)
	}
	return listing.Resources, nil
}

// AdminLister lists resources directly from the Admin API using basic auth.
type AdminLister struct {
	baseURL    string
	cloudName  string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

// NewAdminLister creates an [AdminLister]. baseURL defaults to https://api.cloudinary.com.
func NewAdminLister(cfg shared.CloudinaryConfig, baseURL string, client *http.Client) (*AdminLister, error) {
	if !cfg.CanList() {
		return nil, fmt.Errorf("%w: cloud_name, api_key and api_secret are required for listing", shared.ErrMissingConfig)
	}
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &AdminLister{
		baseURL:    strings.TrimRight(baseURL, "/"),
		cloudName:  cfg.CloudName,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		httpClient: client,
	}, nil
}

// ListResources implements [Lister].
//
// A tag of "undefined" or "null" is treated as no tag.
func (a *AdminLister) ListResources(ctx context.Context, kind models.Kind, tag string) ([]models.RemoteResource, error) {
	endpoint := fmt.Sprintf("%s/v1_1/%s/resources/%s", a.baseURL, a.cloudName, kind)
	if tag = strings.TrimSpace(tag); tag != "" && tag != "undefined" && tag != "null" {
		endpoint += "/tags/" + url.PathEscape(tag)
	}

	q := url.Values{}
	q.Set("max_results", strconv.Itoa(listMaxResults))
	q.Set("context", "true")
	q.Set("tags", "true")
	q.Set("direction", "desc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(a.apiKey, a.apiSecret)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrAPIRequest, resp.StatusCode, remoteErrorMessage(resp.Body))
	}

	var listing models.ListingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("%w: failed to decode listing: %v", shared.ErrAPIRequest, err)
	}
	return listing.Resources, nil
}

// CloudinaryUploader performs unsigned multipart uploads.
type CloudinaryUploader struct {
	baseURL      string
	cloudName    string
	uploadPreset string
	httpClient   *http.Client
}

// NewCloudinaryUploader creates a [CloudinaryUploader]. Missing upload settings are reported by Upload.
func NewCloudinaryUploader(cfg shared.CloudinaryConfig, baseURL string, client *http.Client) *CloudinaryUploader {
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &CloudinaryUploader{
		baseURL:      strings.TrimRight(baseURL, "/"),
		cloudName:    cfg.CloudName,
		uploadPreset: cfg.UploadPreset,
		httpClient:   client,
	}
}

// Upload implements [Uploader].
//
// The body is streamed through a pipe, so params.OnProgress is called as the file is read by the transport.
func (u *CloudinaryUploader) Upload(ctx context.Context, params models.UploadParams) (*models.UploadResult, error) {
	if u.cloudName == "" || u.uploadPreset == "" {
		return nil, fmt.Errorf("%w: cloud_name and upload_preset are required for uploads", shared.ErrMissingConfig)
	}
	if params.File == nil {
		return nil, fmt.Errorf("%w: no file to upload", shared.ErrInvalidInput)
	}

	kind := models.KindFromMime(params.MimeType)
	endpoint := fmt.Sprintf("%s/v1_1/%s/%s/upload", u.baseURL, u.cloudName, kind)

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	progress := newProgressReader(params.File, params.Size, params.OnProgress)

	done := make(chan struct{})
	go func() {
		defer close(done)
		pw.CloseWithError(u.writeForm(mw, progress, kind, params))
	}()
	// The form writer reports progress, so it must be finished before Upload returns.
	wait := func() {
		pr.Close()
		<-done
	}
	defer wait()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, pr)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrUploadFailed, resp.StatusCode, remoteErrorMessage(resp.Body))
	}

	var result models.UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode upload response: %v", shared.ErrUploadFailed, err)
	}
	if result.Kind == "" {
		result.Kind = kind
	}
	if result.Kind == models.KindVideo {
		result.ThumbnailURL = VideoThumbnail(result.SecureURL)
	} else {
		result.ThumbnailURL = result.SecureURL
	}

	wait()
	progress.finish()
	return &result, nil
}

func (u *CloudinaryUploader) writeForm(mw *multipart.Writer, file io.Reader, kind models.Kind, params models.UploadParams) error {
	filename := params.Filename
	if filename == "" {
		filename = "upload"
	}

	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, file); err != nil {
		return err
	}

	fields := [][2]string{
		{"upload_preset", u.uploadPreset},
		{"context", UploadContext(params)},
		{"tags", strings.Join([]string{"year_" + strconv.Itoa(params.Year), string(kind), u.uploadPreset}, ",")},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}
	return mw.Close()
}

var contextEscaper = strings.NewReplacer(`=`, `\=`, `|`, `\|`)

// UploadContext encodes the custom metadata as "title=..|year=..|description=..|uploadedBy=..".
//
// Empty optional values are omitted.
func UploadContext(params models.UploadParams) string {
	pairs := []string{
		"title=" + contextEscaper.Replace(params.Title),
		"year=" + strconv.Itoa(params.Year),
	}
	if params.Description != "" {
		pairs = append(pairs, "description="+contextEscaper.Replace(params.Description))
	}
	if params.UploadedBy != "" {
		pairs = append(pairs, "uploadedBy="+contextEscaper.Replace(params.UploadedBy))
	}
	return strings.Join(pairs, "|")
}

// remoteErrorMessage extracts {"error":{"message":...}} from a failed response.
func remoteErrorMessage(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 64<<10))

	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &errResp) == nil && errResp.Error.Message != "" {
		return errResp.Error.Message
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return "no response body"
}

// progressReader reports read progress as 0-100, only when the percentage changes.
type progressReader struct {
	r      io.Reader
	total  int64
	read   int64
	last   int
	report func(int)
}

func newProgressReader(r io.Reader, total int64, report func(int)) *progressReader {
	p := &progressReader{r: r, total: total, last: -1, report: report}
	p.emit(0)
	return p
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.total > 0 {
		pct := int(p.read * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		p.emit(pct)
	}
	return n, err
}

func (p *progressReader) finish() { p.emit(100) }

func (p *progressReader) emit(pct int) {
	if p.report == nil || pct == p.last {
		return
	}
	p.last = pct
	p.report(pct)
}
