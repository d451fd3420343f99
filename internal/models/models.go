// package models defines the data model for the family gallery
package models

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// Kind distinguishes photos from videos.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// Kinds lists every [Kind] in listing order.
var Kinds = []Kind{KindImage, KindVideo}

// ParseKind accepts "image"/"photo" and "video" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "image", "photo", "images", "photos":
		return KindImage, nil
	case "video", "videos":
		return KindVideo, nil
	}
	return "", fmt.Errorf("unknown media kind %q", s)
}

func (k Kind) String() string { return string(k) }

// MediaRecord is a single photo or video in the local cache.
//
// The JSON layout is the persisted layout of the family_media_store key.
type MediaRecord struct {
	ID           string `json:"id"`
	Kind         Kind   `json:"kind"`
	SourceURL    string `json:"sourceUrl"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
	Title        string `json:"title"`
	Year         int    `json:"year"`
	Description  string `json:"description,omitempty"`
	UploadedBy   string `json:"uploadedBy,omitempty"`
	CreatedAt    string `json:"createdAt"`
	FileSize     int64  `json:"fileSize,omitempty"`
	MimeType     string `json:"mimeType,omitempty"`
	LikeCount    int    `json:"likeCount"`
}

// Created parses CreatedAt, returning the zero time when it is not RFC 3339.
func (m MediaRecord) Created() time.Time {
	t, err := time.Parse(time.RFC3339Nano, m.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Extension is the file extension used when the record is saved to disk:
// the subtype of MimeType, else mp4 for videos and jpg for images.
func (m MediaRecord) Extension() string {
	if _, sub, ok := strings.Cut(m.MimeType, "/"); ok && sub != "" {
		return sub
	}
	if m.Kind == KindVideo {
		return "mp4"
	}
	return "jpg"
}

// Filename is "{title}_{year}.{ext}" before sanitising.
func (m MediaRecord) Filename() string {
	return m.Title + "_" + strconv.Itoa(m.Year) + "." + m.Extension()
}

// DownloadPath is where the record is saved inside dir.
func (m MediaRecord) DownloadPath(dir string) string {
	return filepath.Join(dir, shared.SanitizeFilename(m.Filename()))
}

// MediaPatch holds the fields Update may change. Nil fields are left untouched.
type MediaPatch struct {
	Title        *string
	Description  *string
	Year         *int
	UploadedBy   *string
	ThumbnailURL *string
}

// Apply merges the set fields of p into m.
func (p MediaPatch) Apply(m *MediaRecord) {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Year != nil {
		m.Year = *p.Year
	}
	if p.UploadedBy != nil {
		m.UploadedBy = *p.UploadedBy
	}
	if p.ThumbnailURL != nil {
		m.ThumbnailURL = *p.ThumbnailURL
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p MediaPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Year == nil && p.UploadedBy == nil && p.ThumbnailURL == nil
}

// ResourceContext holds the custom metadata attached to a remote resource.
type ResourceContext struct {
	Custom map[string]string `json:"custom,omitempty"`
}

// RemoteResource is one entry of the media host's listing response.
type RemoteResource struct {
	PublicID     string          `json:"public_id"`
	Format       string          `json:"format"`
	ResourceType string          `json:"resource_type"`
	Bytes        int64           `json:"bytes"`
	CreatedAt    string          `json:"created_at"`
	Version      int64           `json:"version,omitempty"`
	Width        int             `json:"width,omitempty"`
	Height       int             `json:"height,omitempty"`
	SecureURL    string          `json:"secure_url,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Context      ResourceContext `json:"context,omitempty"`
}

// ContextValue returns a trimmed custom context value, or "" when absent.
func (r RemoteResource) ContextValue(key string) string {
	if r.Context.Custom == nil {
		return ""
	}
	return strings.TrimSpace(r.Context.Custom[key])
}

// ListingResponse is the body shape shared by the Admin API and the listing proxy.
type ListingResponse struct {
	Resources []RemoteResource `json:"resources"`
}

// UploadResult describes a successful upload.
type UploadResult struct {
	URL          string `json:"url"`
	SecureURL    string `json:"secure_url"`
	PublicID     string `json:"public_id"`
	Format       string `json:"format"`
	Kind         Kind   `json:"resource_type"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Bytes        int64  `json:"bytes,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// UploadParams is the input to creating a record from a local file.
type UploadParams struct {
	File        io.Reader
	Filename    string
	MimeType    string
	Size        int64
	Title       string
	Year        int
	Description string
	UploadedBy  string
	// OnProgress receives 0-100 as the file is sent. May be nil.
	OnProgress func(percent int)
}

// KindFromMime maps a MIME type to a [Kind]; anything not video/* is an image.
func KindFromMime(mime string) Kind {
	if strings.HasPrefix(strings.ToLower(mime), "video/") {
		return KindVideo
	}
	return KindImage
}

// SyncResult reports what one reconciliation pass changed.
type SyncResult struct {
	Fetched int
	Added   int
	Total   int
}

// TimeLayout is the layout of CreatedAt for records created locally.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// DownloadEntry records one completed download.
type DownloadEntry struct {
	MediaID      string
	Path         string
	Bytes        int64
	DownloadedAt time.Time
}

// DownloadItem is the outcome of downloading one record in a batch.
type DownloadItem struct {
	MediaID   string `json:"media_id"`
	Title     string `json:"title"`
	Year      int    `json:"year"`
	Path      string `json:"path,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Bytes     int64  `json:"bytes"`
	Skipped   bool   `json:"skipped,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// DownloadReport summarises a batch download.
type DownloadReport struct {
	Directory    string         `json:"directory"`
	Total        int            `json:"total"`
	Successful   int            `json:"successful"`
	Skipped      int            `json:"skipped"`
	Failed       int            `json:"failed"`
	Bytes        int64          `json:"bytes"`
	Items        []DownloadItem `json:"items"`
	ManifestPath string         `json:"-"`
}
