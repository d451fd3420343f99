package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/do-hu-so/GD-Ba-Than/internal/formatter"
	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/services"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
	"github.com/do-hu-so/GD-Ba-Than/internal/tasks"
)

// List prints media newest first, optionally filtered by kind and year.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
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

	if cmd.Bool("json") {
		if records == nil {
			records = []models.MediaRecord{}
		}
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	if len(records) == 0 {
		return r.writePlain("No media found\n")
	}

	out, err := formatter.ExportToText(records)
	if err != nil {
		return err
	}
	_, err = r.output.Write(out)
	return err
}

// Show prints a single record.
func (r *Runner) Show(ctx context.Context, cmd *cli.Command) error {
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

	if cmd.Bool("json") {
		return r.writeJSON(record, true)
	}

	liked := ""
	if r.media.IsLiked(ctx, id) {
		liked = " (you liked this)"
	}

	r.writePlainHeader(record.Title)
	r.writePlain("ID:          %s\n", record.ID)
	r.writePlain("Kind:        %s\n", record.Kind)
	r.writePlain("Year:        %d\n", record.Year)
	r.writePlain("Likes:       %d%s\n", record.LikeCount, liked)
	r.writePlain("Uploaded by: %s\n", record.UploadedBy)
	r.writePlain("Created:     %s\n", record.CreatedAt)
	if record.Description != "" {
		r.writePlain("Description: %s\n", record.Description)
	}
	if record.FileSize > 0 {
		r.writePlain("Size:        %s\n", formatter.HumanSize(record.FileSize))
	}
	r.writePlain("Source:      %s\n", record.SourceURL)
	if record.ThumbnailURL != "" {
		r.writePlain("Thumbnail:   %s\n", record.ThumbnailURL)
	}
	return nil
}

// Years prints the years that have media, newest first, with item counts.
func (r *Runner) Years(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(ctx, cmd); err != nil {
		return err
	}

	years := r.media.Years(ctx)
	if len(years) == 0 {
		return r.writePlain("No media found\n")
	}
	for _, year := range years {
		r.writePlain("%d  %d items\n", year, len(r.media.ListByYear(ctx, year, nil)))
	}
	return nil
}

// Upload sends a local file to Cloudinary and adds it to the gallery.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "file")
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	mimeType, err := detectMime(f, path)
	if err != nil {
		return err
	}

	if err := r.ready(ctx, cmd); err != nil {
		return err
	}

	params := models.UploadParams{
		File:        f,
		Filename:    filepath.Base(path),
		MimeType:    mimeType,
		Size:        info.Size(),
		Title:       cmd.String("title"),
		Year:        cmd.Int("year"),
		Description: cmd.String("description"),
		UploadedBy:  cmd.String("by"),
	}

	r.logger.Info("uploading", "file", params.Filename, "mime", mimeType, "size", info.Size())

	progress := make(chan tasks.ProgressUpdate, 110)
	done := make(chan struct{})
	go r.printProgress(progress, done)

	record, err := r.workflows.Upload(ctx, progress, params)
	close(progress)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("✓ Added '%s' (%d) as %s", record.Title, record.Year, record.ID)
	return nil
}

// detectMime uses the file extension, falling back to sniffing the first 512 bytes.
func detectMime(f *os.File, path string) (string, error) {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t, nil
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind %s: %w", path, err)
	}
	return http.DetectContentType(head[:n]), nil
}

// Edit changes the title and, when given, the description of an item.
func (r *Runner) Edit(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.ready(ctx, cmd); err != nil {
		return err
	}

	description := cmd.String("description")
	if !cmd.IsSet("description") {
		current, err := r.media.Get(ctx, id)
		if err != nil {
			return err
		}
		description = current.Description
	}

	record, err := r.workflows.EditDetails(ctx, id, cmd.String("title"), description)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Updated %s: %s\n", record.ID, record.Title)
}

// Remove drops an item from the local gallery. With --remote the remote copy is also
// requested to be deleted, which is not supported.
func (r *Runner) Remove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.ready(ctx, cmd); err != nil {
		return err
	}

	if err := r.media.Remove(ctx, id); err != nil {
		return err
	}
	r.writePlain("✓ Removed %s from the local gallery\n", id)

	if cmd.Bool("remote") {
		if err := services.DeleteRemote(ctx, id); err != nil {
			return fmt.Errorf("remote copy kept: %w", err)
		}
	}
	return nil
}

// Like toggles the current user's like on an item.
func (r *Runner) Like(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.ready(ctx, cmd); err != nil {
		return err
	}

	result, err := r.workflows.Like(ctx, id)
	if err != nil {
		return err
	}

	if result.Liked {
		return r.writePlain("♥ Liked %s (%d likes)\n", id, result.Count)
	}
	return r.writePlain("♡ Unliked %s (%d likes)\n", id, result.Count)
}

// Likes prints the like count of one item, or every item the current user liked.
func (r *Runner) Likes(ctx context.Context, cmd *cli.Command) error {
	if err := r.ready(ctx, cmd); err != nil {
		return err
	}

	if id := cmd.StringArg("id"); id != "" {
		liked := "no"
		if r.media.IsLiked(ctx, id) {
			liked = "yes"
		}
		return r.writePlain("%s: %d likes (liked by you: %s)\n", id, r.media.Likes(ctx, id), liked)
	}

	ids := r.media.LikedIDs(ctx)
	if len(ids) == 0 {
		return r.writePlain("You haven't liked anything yet\n")
	}
	for _, id := range ids {
		record, err := r.media.Get(ctx, id)
		if errors.Is(err, shared.ErrMediaNotFound) {
			r.writePlain("♥ %s (no longer in the gallery)\n", id)
			continue
		} else if err != nil {
			return err
		}
		r.writePlain("♥ %s (%d) - %s\n", record.Title, record.Year, record.ID)
	}
	return nil
}

// Open shows an item in the system browser.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
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

	url := record.SourceURL
	if cmd.Bool("thumbnail") && record.ThumbnailURL != "" {
		url = record.ThumbnailURL
	}

	r.logger.Info("opening", "url", url)
	return r.browser(url)
}
