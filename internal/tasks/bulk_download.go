package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/time/rate"

	"github.com/do-hu-so/GD-Ba-Than/internal/formatter"
	"github.com/do-hu-so/GD-Ba-Than/internal/models"
)

// BulkDownloadOpts contains configuration for batch downloads.
type BulkDownloadOpts struct {
	Dir            string  // Output directory (required)
	NumWorkers     int     // Concurrent downloads (default: 4, max: 10)
	RateLimit      float64 // Downloads started per second (default: 4)
	Thumbnails     bool    // Render JPEG thumbnails of downloaded photos into {Dir}/thumbs
	ThumbnailWidth int     // Thumbnail width in pixels (default: 320)
	SkipExisting   bool    // Skip records already in the download log whose file still exists
}

type downloadJob struct {
	index  int
	record models.MediaRecord
}

// BulkDownload downloads records concurrently with rate limiting and progress tracking,
// then writes download_manifest.json into opts.Dir.
//
// Individual failures are reported in the returned report, not as an error.
func (w *Workflows) BulkDownload(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	records []models.MediaRecord,
	opts BulkDownloadOpts,
) (*models.DownloadReport, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 4.0
	}
	if opts.ThumbnailWidth <= 0 {
		opts.ThumbnailWidth = 320
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	records = uniqueFilenames(records, opts.Dir)
	report := &models.DownloadReport{
		Directory: opts.Dir,
		Total:     len(records),
		Items:     make([]models.DownloadItem, len(records)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	jobs := make(chan downloadJob, len(records))
	results := make(chan downloadJob, len(records))
	items := report.Items

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				select {
				case <-ctx.Done():
					items[job.index] = failedItem(job.record, ctx.Err())
				default:
					items[job.index] = w.downloadOne(ctx, prog, job.record, opts)
				}
				results <- job
			}
		}()
	}

	go func() {
		sendProgress(prog, downloadStartUpdate(len(records)))
		defer close(jobs)
		for i, record := range records {
			if err := limiter.Wait(ctx); err != nil {
				for j := i; j < len(records); j++ {
					items[j] = failedItem(records[j], err)
					results <- downloadJob{index: j, record: records[j]}
				}
				return
			}
			jobs <- downloadJob{index: i, record: record}
		}
	}()

	for completed := 1; completed <= len(records); completed++ {
		job := <-results
		item := items[job.index]
		sendProgress(prog, downloadItemUpdate(completed, len(records), item))
	}
	wg.Wait()

	for _, item := range items {
		switch {
		case item.Skipped:
			report.Skipped++
		case item.Success:
			report.Successful++
			report.Bytes += item.Bytes
		default:
			report.Failed++
		}
	}

	manifestPath := filepath.Join(opts.Dir, "download_manifest.json")
	if err := formatter.WriteDownloadManifest(report, manifestPath); err != nil {
		return report, fmt.Errorf("downloads completed but failed to write manifest: %w", err)
	}
	report.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))

	return report, nil
}

// downloadOne fetches a single record, consulting and updating the download log.
func (w *Workflows) downloadOne(ctx context.Context, prog chan<- ProgressUpdate, record models.MediaRecord, opts BulkDownloadOpts) models.DownloadItem {
	item := models.DownloadItem{MediaID: record.ID, Title: record.Title, Year: record.Year}
	target := record.DownloadPath(opts.Dir)

	if opts.SkipExisting && w.downloads != nil {
		if done, err := w.downloads.Has(ctx, record.ID, target); err == nil && done {
			if info, err := os.Stat(target); err == nil {
				item.Path, item.Bytes, item.Skipped = target, info.Size(), true
				return item
			}
		}
	}

	path, n, err := w.media.Download(ctx, record, opts.Dir)
	if err != nil {
		item.Error = err.Error()
		w.logger.Warn("download failed", "id", record.ID, "err", err)
		return item
	}
	item.Path, item.Bytes, item.Success = path, n, true

	if w.downloads != nil {
		if err := w.downloads.Record(ctx, models.DownloadEntry{MediaID: record.ID, Path: path, Bytes: n}); err != nil {
			w.logger.Warn("failed to record download", "id", record.ID, "err", err)
		}
	}

	if opts.Thumbnails && record.Kind == models.KindImage {
		thumb, err := writeThumbnail(path, filepath.Join(opts.Dir, "thumbs"), opts.ThumbnailWidth)
		if err != nil {
			w.logger.Warn("thumbnail failed", "id", record.ID, "err", err)
		} else {
			item.Thumbnail = thumb
			sendProgress(prog, thumbnailUpdate(1, 1, thumb))
		}
	}

	return item
}

// writeThumbnail renders a JPEG of the given width (aspect preserved) for the image at src.
func writeThumbnail(src, dir string, width int) (string, error) {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", src, err)
	}

	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	dst := filepath.Join(dir, base+".jpg")
	if err := imaging.Save(img, dst, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to write thumbnail: %w", err)
	}
	return dst, nil
}

// uniqueFilenames suffixes titles that would collide on disk with " (2)", " (3)", ...
func uniqueFilenames(records []models.MediaRecord, dir string) []models.MediaRecord {
	out := make([]models.MediaRecord, len(records))
	seen := make(map[string]bool)
	for i, m := range records {
		title := m.Title
		for n := 2; seen[m.DownloadPath(dir)]; n++ {
			m.Title = fmt.Sprintf("%s (%d)", title, n)
		}
		seen[m.DownloadPath(dir)] = true
		out[i] = m
	}
	return out
}

func failedItem(record models.MediaRecord, err error) models.DownloadItem {
	return models.DownloadItem{MediaID: record.ID, Title: record.Title, Year: record.Year, Error: err.Error()}
}
