package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/services"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// MediaRepository owns the media collection and the like ledger.
//
// The collection is reloaded from the store on every call. Mutations hold mu from reload
// through persist; remote calls (upload, download, listing) run without it.
type MediaRepository struct {
	mu sync.Mutex

	kv         KV
	lister     services.Lister
	uploader   services.Uploader
	downloader services.Downloader
	urls       services.URLBuilder
	tag        string
	logger     *log.Logger
	now        func() time.Time

	items []models.MediaRecord
}

// MediaRepositoryOpts holds the collaborators of a [MediaRepository].
// Lister, Uploader and Downloader may be nil; the operations needing them then fail.
type MediaRepositoryOpts struct {
	KV         KV
	Lister     services.Lister
	Uploader   services.Uploader
	Downloader services.Downloader
	CloudName  string
	Tag        string // restricts sync to one tag when set
	Logger     *log.Logger
	Clock      func() time.Time
}

// NewMediaRepository creates a repository. KV defaults to an empty [MemoryKV].
func NewMediaRepository(opts MediaRepositoryOpts) *MediaRepository {
	if opts.KV == nil {
		opts.KV = NewMemoryKV()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &MediaRepository{
		kv:         opts.KV,
		lister:     opts.Lister,
		uploader:   opts.Uploader,
		downloader: opts.Downloader,
		urls:       services.URLBuilder{CloudName: opts.CloudName},
		tag:        opts.Tag,
		logger:     shared.WithLogger(opts.Logger, "component", "media"),
		now:        opts.Clock,
	}
}

// List returns every record, or only those of kind when kind is non-nil, in stored order.
func (r *MediaRepository) List(ctx context.Context, kind *models.Kind) []models.MediaRecord {
	items := r.snapshot(ctx)
	if kind == nil {
		return items
	}
	return filter(items, func(m models.MediaRecord) bool { return m.Kind == *kind })
}

// ListByYear returns the records whose Year equals year, optionally of one kind.
func (r *MediaRepository) ListByYear(ctx context.Context, year int, kind *models.Kind) []models.MediaRecord {
	return filter(r.List(ctx, kind), func(m models.MediaRecord) bool { return m.Year == year })
}

// Get returns the record with id.
func (r *MediaRepository) Get(ctx context.Context, id string) (*models.MediaRecord, error) {
	for _, m := range r.snapshot(ctx) {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrMediaNotFound, id)
}

// Years returns the distinct years present in the collection, newest first.
func (r *MediaRepository) Years(ctx context.Context) []int {
	seen := make(map[int]bool)
	var years []int
	for _, m := range r.snapshot(ctx) {
		if !seen[m.Year] {
			seen[m.Year] = true
			years = append(years, m.Year)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// Create uploads params.File and inserts the resulting record.
//
// The collection is untouched when the upload fails. A record with the same id
// is replaced, keeping its like count.
func (r *MediaRepository) Create(ctx context.Context, params models.UploadParams) (*models.MediaRecord, error) {
	if r.uploader == nil {
		return nil, fmt.Errorf("%w: no uploader configured", shared.ErrMissingConfig)
	}

	result, err := r.uploader.Upload(ctx, params)
	if err != nil {
		if errors.Is(err, shared.ErrMissingConfig) || errors.Is(err, shared.ErrUploadFailed) || errors.Is(err, shared.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
	}

	record := r.recordFromUpload(params, result)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reload(ctx); err != nil {
		return nil, err
	}

	replaced := false
	for i := range r.items {
		if r.items[i].ID == record.ID {
			record.LikeCount = r.items[i].LikeCount
			r.items[i] = record
			replaced = true
			break
		}
	}
	if !replaced {
		r.items = append(r.items, record)
	}
	sortNewestFirst(r.items)

	if err := r.persist(ctx); err != nil {
		return nil, err
	}

	r.logger.Info("media created", "id", record.ID, "kind", record.Kind, "year", record.Year)
	return &record, nil
}

func (r *MediaRepository) recordFromUpload(params models.UploadParams, result *models.UploadResult) models.MediaRecord {
	kind := result.Kind
	if kind == "" {
		kind = models.KindFromMime(params.MimeType)
	}

	thumbnail := result.ThumbnailURL
	if thumbnail == "" {
		thumbnail = result.SecureURL
	}

	size := params.Size
	if size <= 0 {
		size = result.Bytes
	}

	return models.MediaRecord{
		ID:           result.PublicID,
		Kind:         kind,
		SourceURL:    result.SecureURL,
		ThumbnailURL: thumbnail,
		Title:        params.Title,
		Year:         params.Year,
		Description:  params.Description,
		UploadedBy:   params.UploadedBy,
		CreatedAt:    r.now().UTC().Format(models.TimeLayout),
		FileSize:     size,
		MimeType:     params.MimeType,
	}
}

// Update merges patch into the record with id. Title is not validated here.
func (r *MediaRepository) Update(ctx context.Context, id string, patch models.MediaPatch) (*models.MediaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reload(ctx); err != nil {
		return nil, err
	}

	for i := range r.items {
		if r.items[i].ID != id {
			continue
		}
		patch.Apply(&r.items[i])
		updated := r.items[i]
		if err := r.persist(ctx); err != nil {
			return nil, err
		}
		return &updated, nil
	}

	return nil, fmt.Errorf("%w: %s", shared.ErrMediaNotFound, id)
}

// Remove deletes the record with id from the local collection only.
// An absent id is a no-op.
func (r *MediaRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reload(ctx); err != nil {
		return err
	}

	kept := filter(r.items, func(m models.MediaRecord) bool { return m.ID != id })
	if len(kept) == len(r.items) {
		return nil
	}
	r.items = kept

	if err := r.persist(ctx); err != nil {
		return err
	}
	r.logger.Info("media removed locally", "id", id)
	return nil
}

// Download saves record's source into dir as "{title}_{year}.{ext}" and returns the path.
func (r *MediaRepository) Download(ctx context.Context, record models.MediaRecord, dir string) (string, int64, error) {
	if r.downloader == nil {
		return "", 0, fmt.Errorf("%w: no downloader configured", shared.ErrDownloadFailed)
	}
	if record.SourceURL == "" {
		return "", 0, fmt.Errorf("%w: %s has no source url", shared.ErrDownloadFailed, record.ID)
	}

	path := record.DownloadPath(dir)
	n, err := r.downloader.Download(ctx, record.SourceURL, path)
	if err != nil {
		if errors.Is(err, shared.ErrDownloadFailed) {
			return "", 0, err
		}
		return "", 0, fmt.Errorf("%w: %v", shared.ErrDownloadFailed, err)
	}
	return path, n, nil
}

// snapshot reloads and returns a copy of the collection. Store read errors are logged
// and the last loaded collection is returned.
func (r *MediaRepository) snapshot(ctx context.Context) []models.MediaRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reload(ctx); err != nil {
		r.logger.Warn("using last loaded media", "err", err)
	}
	return append([]models.MediaRecord(nil), r.items...)
}

// reload replaces r.items with the stored collection. Missing or corrupt data loads
// as an empty collection; only store I/O errors are returned. Callers hold mu.
func (r *MediaRepository) reload(ctx context.Context) error {
	raw, ok, err := r.kv.Get(ctx, MediaKey)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	if !ok || raw == "" {
		r.items = nil
		return nil
	}

	var items []models.MediaRecord
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		r.logger.Warn("resetting media store", "err", fmt.Errorf("%w: %v", shared.ErrPersistenceCorrupt, err))
		r.items = nil
		return nil
	}
	r.items = items
	return nil
}

// persist writes r.items to the store. Callers hold mu.
func (r *MediaRepository) persist(ctx context.Context) error {
	items := r.items
	if items == nil {
		items = []models.MediaRecord{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	if err := r.kv.Set(ctx, MediaKey, string(data)); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	return nil
}

// sortNewestFirst orders by createdAt descending; equal or unparseable times keep their relative order.
func sortNewestFirst(items []models.MediaRecord) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Created().After(items[j].Created())
	})
}

func filter(items []models.MediaRecord, keep func(models.MediaRecord) bool) []models.MediaRecord {
	out := make([]models.MediaRecord, 0, len(items))
	for _, m := range items {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
