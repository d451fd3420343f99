// package services defines the remote collaborators of the gallery:
// listing, uploading and downloading media on Cloudinary.
package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// Lister returns the remote resources of one kind, optionally restricted to a tag.
type Lister interface {
	ListResources(ctx context.Context, kind models.Kind, tag string) ([]models.RemoteResource, error)
}

// Uploader sends a local file to the media host.
type Uploader interface {
	Upload(ctx context.Context, params models.UploadParams) (*models.UploadResult, error)
}

// Downloader fetches a URL to a local path and reports the number of bytes written.
type Downloader interface {
	Download(ctx context.Context, url, path string) (int64, error)
}

const deliveryHost = "https://res.cloudinary.com"

// URLBuilder derives delivery URLs for a cloud.
type URLBuilder struct {
	CloudName string
}

// DeliveryURL builds https://res.cloudinary.com/{cloud}/{kind}/upload/[v{version}/]{publicID}.
func (b URLBuilder) DeliveryURL(publicID string, kind models.Kind, version int64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s/%s/%s/upload/", deliveryHost, b.CloudName, kind)
	if version > 0 {
		fmt.Fprintf(&sb, "v%d/", version)
	}
	sb.WriteString(publicID)
	return sb.String()
}

var videoExt = regexp.MustCompile(`(?i)\.(mp4|mov|avi|webm|mkv)$`)

// VideoThumbnail returns the poster frame URL for a video delivery URL.
//
// A known video extension is replaced by .jpg; any other last path segment gets .jpg appended,
// since delivery URLs built from a public id carry no extension.
func VideoThumbnail(url string) string {
	if url == "" {
		return ""
	}
	if videoExt.MatchString(url) {
		return videoExt.ReplaceAllString(url, ".jpg")
	}

	last := url[strings.LastIndex(url, "/")+1:]
	if i := strings.LastIndex(last, "."); i > 0 {
		return url[:len(url)-len(last)+i] + ".jpg"
	}
	return url + ".jpg"
}

// DeleteRemote is the placeholder for deleting a resource on the media host.
//
// Deletion needs a signed Admin API call that the gallery does not make; local removal is
// handled by the repository.
func DeleteRemote(_ context.Context, publicID string) error {
	return fmt.Errorf("%w: %s", shared.ErrRemoteDeleteUnsupported, publicID)
}
