package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/do-hu-so/GD-Ba-Than/internal/formatter"
	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
	"github.com/do-hu-so/GD-Ba-Than/internal/tasks"
)

// Sync fetches new media from the remote listing and reports what was added.
//
// Unlike the startup sync, failures are returned.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	r.synced = true
	if err := r.ready(ctx, cmd); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	result, err := r.workflows.SyncNow(ctx, progress)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlain("Fetched: %d\nNew:     %d\nTotal:   %d\n", result.Fetched, result.Added, result.Total)
	return nil
}

// Download saves a single item as "{title}_{year}.{ext}" in the output directory.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.ready(ctx, cmd); err != nil {
		return err
	}

	record, err := r.media.Get(ctx, id)
	if err != nil {
		return err
	}

	dir := cmd.String("dir")
	path, n, err := r.media.Download(ctx, *record, dir)
	if err != nil {
		return err
	}

	if r.downloads != nil {
		if err := r.downloads.Record(ctx, models.DownloadEntry{MediaID: record.ID, Path: path, Bytes: n}); err != nil {
			r.logger.Warn("failed to record download", "id", record.ID, "err", err)
		}
	}

	return r.writePlain("✓ Saved %s (%s)\n", path, formatter.HumanSize(n))
}

// DownloadYear downloads every item of a year with the bulk downloader.
func (r *Runner) DownloadYear(ctx context.Context, cmd *cli.Command) error {
	year := cmd.IntArg("year")
	if year <= 0 {
		return fmt.Errorf("%w: year", shared.ErrMissingArgument)
	}
	kind, err := kindFilter(cmd)
	if err != nil {
		return err
	}
	if err := r.ready(ctx, cmd); err != nil {
		return err
	}

	records := r.media.ListByYear(ctx, year, kind)
	if len(records) == 0 {
		return r.writePlain("No media found for %d\n", year)
	}

	opts := tasks.BulkDownloadOpts{
		Dir:            cmd.String("dir"),
		NumWorkers:     cmd.Int("workers"),
		RateLimit:      r.config.Download.RateLimit,
		Thumbnails:     cmd.Bool("thumbnails"),
		ThumbnailWidth: r.config.Download.ThumbnailWidth,
		SkipExisting:   cmd.Bool("skip-existing"),
	}

	r.logger.Info("bulk download", "year", year, "items", len(records), "dir", opts.Dir)

	progress := make(chan tasks.ProgressUpdate, 2*len(records)+4)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	report, err := r.workflows.BulkDownload(ctx, progress, records, opts)
	close(progress)
	<-done

	if report != nil {
		r.writePlainln("")
		r.writePlainHeader(fmt.Sprintf("Download Complete: %d", year))
		r.writePlain("Directory:  %s\n", report.Directory)
		r.writePlain("Downloaded: %d/%d (%s)\n", report.Successful, report.Total, formatter.HumanSize(report.Bytes))
		r.writePlain("Skipped:    %d\n", report.Skipped)
		if report.Failed > 0 {
			r.writePlain("\nFailed to download %d items:\n", report.Failed)
			for _, item := range report.Items {
				if !item.Success && !item.Skipped {
					r.writePlain("  - %s (%s): %s\n", item.Title, item.MediaID, item.Error)
				}
			}
		}
		if report.ManifestPath != "" {
			r.writePlain("Manifest:   %s\n", report.ManifestPath)
		}
	}

	return err
}

// Export writes the listing as csv, markdown, txt or json to a file or stdout.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	kind, err := kindFilter(cmd)
	if err != nil {
		return err
	}
	if err := r.ready(ctx, cmd); err != nil {
		return err
	}

	var records []models.MediaRecord
	if year := cmd.Int("year"); year != 0 {
		records = r.media.ListByYear(ctx, year, kind)
	} else {
		records = r.media.List(ctx, kind)
	}

	format := cmd.String("format")
	if output := cmd.String("output"); output != "" {
		if err := formatter.WriteExport(records, format, output); err != nil {
			return err
		}
		r.logger.Info("export written", "path", output, "format", format, "items", len(records))
		return r.writePlain("✓ Exported %d items to %s\n", len(records), output)
	}

	data, err := formatter.Export(records, format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}
