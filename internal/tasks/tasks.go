// package tasks implements the user-facing gallery workflows on top of the media repository.
//
// Long-running operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// MediaStore is the part of repositories.MediaRepository the workflows drive.
type MediaStore interface {
	Get(ctx context.Context, id string) (*models.MediaRecord, error)
	Create(ctx context.Context, params models.UploadParams) (*models.MediaRecord, error)
	Update(ctx context.Context, id string, patch models.MediaPatch) (*models.MediaRecord, error)
	Download(ctx context.Context, record models.MediaRecord, dir string) (string, int64, error)
	TrySync(ctx context.Context) (models.SyncResult, error)
	ToggleLike(ctx context.Context, id string, currentlyLiked bool) (int, error)
	IsLiked(ctx context.Context, id string) bool
	SetLiked(ctx context.Context, id string, liked bool) error
}

// DownloadLog remembers completed downloads. Implemented by repositories.DownloadLogRepository.
type DownloadLog interface {
	Record(ctx context.Context, entry models.DownloadEntry) error
	Has(ctx context.Context, mediaID, path string) (bool, error)
}

// Workflows wraps a [MediaStore] with the validation and sequencing the UI layers need.
type Workflows struct {
	media     MediaStore
	downloads DownloadLog
	logger    *log.Logger
}

// NewWorkflows creates Workflows. downloads may be nil, which disables download bookkeeping.
func NewWorkflows(media MediaStore, downloads DownloadLog, logger *log.Logger) *Workflows {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Workflows{media: media, downloads: downloads, logger: logger}
}

// LikeResult is the state after a like toggle.
type LikeResult struct {
	ID    string
	Count int
	Liked bool
}

// EditDetails changes the title and description of id.
//
// Blank titles are rejected with [shared.ErrInvalidInput] before the repository is touched.
func (w *Workflows) EditDetails(ctx context.Context, id, title, description string) (*models.MediaRecord, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", shared.ErrInvalidInput)
	}
	description = strings.TrimSpace(description)

	return w.media.Update(ctx, id, models.MediaPatch{Title: &title, Description: &description})
}

// Like flips the local user's like on id: it reads the ledger, adjusts the count and
// then records the new ledger state.
//
// The count and ledger are two writes; if the second fails the count has already moved
// and the error is returned.
func (w *Workflows) Like(ctx context.Context, id string) (LikeResult, error) {
	if _, err := w.media.Get(ctx, id); err != nil {
		return LikeResult{ID: id}, err
	}

	liked := w.media.IsLiked(ctx, id)
	count, err := w.media.ToggleLike(ctx, id, liked)
	if err != nil {
		return LikeResult{ID: id, Liked: liked}, err
	}

	if err := w.media.SetLiked(ctx, id, !liked); err != nil {
		w.logger.Error("like count and ledger out of step", "id", id, "count", count, "err", err)
		return LikeResult{ID: id, Count: count, Liked: liked}, err
	}

	return LikeResult{ID: id, Count: count, Liked: !liked}, nil
}

// Upload creates a record from params, reporting upload percentage on progress.
func (w *Workflows) Upload(ctx context.Context, progress chan<- ProgressUpdate, params models.UploadParams) (*models.MediaRecord, error) {
	if strings.TrimSpace(params.Title) == "" {
		return nil, fmt.Errorf("%w: title cannot be empty", shared.ErrInvalidInput)
	}
	if params.Year <= 0 {
		return nil, fmt.Errorf("%w: year must be positive", shared.ErrInvalidInput)
	}

	callerProgress := params.OnProgress
	params.OnProgress = func(pct int) {
		if callerProgress != nil {
			callerProgress(pct)
		}
		sendProgress(progress, uploadUpdate(pct, params.Filename))
	}

	record, err := w.media.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, uploadedUpdate(record))
	return record, nil
}

// SyncNow runs a reconciliation on demand and reports its error, unlike the background sync.
func (w *Workflows) SyncNow(ctx context.Context, progress chan<- ProgressUpdate) (models.SyncResult, error) {
	sendProgress(progress, syncStartUpdate())

	result, err := w.media.TrySync(ctx)
	if err != nil {
		return result, err
	}

	sendProgress(progress, syncDoneUpdate(result))
	return result, nil
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
