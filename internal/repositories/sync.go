package repositories

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/services"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// Defaults for resources without custom context.
const (
	DefaultTitle      = "Gia đình"
	DefaultUploadedBy = "Cloud"
)

var videoFormats = map[string]bool{"mp4": true, "mov": true, "avi": true, "webm": true, "mkv": true}

// TrySync merges the remote listing into the collection.
//
// Both kinds are listed concurrently; if either listing fails nothing is committed and the
// error wraps [shared.ErrSyncUnavailable]. Only ids not already present are inserted;
// existing records are never modified. The store is written only when something was added.
func (r *MediaRepository) TrySync(ctx context.Context) (models.SyncResult, error) {
	if r.lister == nil {
		return models.SyncResult{}, fmt.Errorf("%w: no lister configured", shared.ErrSyncUnavailable)
	}

	listings := make([][]models.RemoteResource, len(models.Kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range models.Kinds {
		g.Go(func() error {
			resources, err := r.lister.ListResources(gctx, kind, r.tag)
			if err != nil {
				return fmt.Errorf("%s listing: %w", kind, err)
			}
			listings[i] = resources
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.SyncResult{}, fmt.Errorf("%w: %v", shared.ErrSyncUnavailable, err)
	}

	var remote []models.RemoteResource
	for _, l := range listings {
		remote = append(remote, l...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reload(ctx); err != nil {
		return models.SyncResult{}, err
	}

	result := models.SyncResult{Fetched: len(remote)}

	known := make(map[string]bool, len(r.items))
	for _, m := range r.items {
		known[m.ID] = true
	}

	for _, res := range remote {
		if res.PublicID == "" || known[res.PublicID] {
			continue
		}
		known[res.PublicID] = true
		r.items = append(r.items, r.recordFromResource(res))
		result.Added++
	}

	if result.Added > 0 {
		sortNewestFirst(r.items)
		if err := r.persist(ctx); err != nil {
			return models.SyncResult{}, err
		}
	}

	result.Total = len(r.items)
	r.logger.Info("sync complete", "fetched", result.Fetched, "added", result.Added, "total", result.Total)
	return result, nil
}

// Sync runs [MediaRepository.TrySync], logging and discarding any error.
//
// On failure the returned result reports no change.
func (r *MediaRepository) Sync(ctx context.Context) models.SyncResult {
	result, err := r.TrySync(ctx)
	if err != nil {
		r.logger.Warn("sync failed, keeping local media", "err", err)
		return models.SyncResult{Total: len(r.snapshot(ctx))}
	}
	return result
}

func (r *MediaRepository) recordFromResource(res models.RemoteResource) models.MediaRecord {
	format := strings.ToLower(res.Format)
	kind := models.KindImage
	if videoFormats[format] || res.ResourceType == string(models.KindVideo) {
		kind = models.KindVideo
	}

	urlKind := kind
	if res.ResourceType != "" {
		urlKind = models.Kind(res.ResourceType)
	}

	source := r.urls.DeliveryURL(res.PublicID, urlKind, res.Version)
	if r.urls.CloudName == "" && res.SecureURL != "" {
		source = res.SecureURL
	}

	thumbnail := source
	if kind == models.KindVideo {
		thumbnail = services.VideoThumbnail(source)
	}

	title := res.ContextValue("title")
	if title == "" {
		title = DefaultTitle
	}
	uploadedBy := res.ContextValue("uploadedBy")
	if uploadedBy == "" {
		uploadedBy = DefaultUploadedBy
	}

	createdAt := res.CreatedAt
	if createdAt == "" {
		createdAt = r.now().UTC().Format(models.TimeLayout)
	}

	var mime string
	if res.ResourceType != "" && format != "" {
		mime = res.ResourceType + "/" + format
	}

	return models.MediaRecord{
		ID:           res.PublicID,
		Kind:         kind,
		SourceURL:    source,
		ThumbnailURL: thumbnail,
		Title:        title,
		Year:         r.resourceYear(res),
		Description:  res.ContextValue("description"),
		UploadedBy:   uploadedBy,
		CreatedAt:    createdAt,
		FileSize:     res.Bytes,
		MimeType:     mime,
	}
}

// resourceYear prefers the year in the custom context, then the created_at year, then the current year.
func (r *MediaRepository) resourceYear(res models.RemoteResource) int {
	if y, err := strconv.Atoi(res.ContextValue("year")); err == nil && y > 0 {
		return y
	}
	if t, err := time.Parse(time.RFC3339Nano, res.CreatedAt); err == nil {
		return t.Year()
	}
	return r.now().Year()
}
