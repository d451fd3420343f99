package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
)

// DownloadLogRepository records completed downloads in the download_log table.
type DownloadLogRepository struct {
	db *sql.DB
}

// NewDownloadLogRepository creates a new DownloadLogRepository with the given database connection
func NewDownloadLogRepository(db *sql.DB) *DownloadLogRepository {
	return &DownloadLogRepository{db: db}
}

// Record upserts entry. A zero DownloadedAt is set to now.
func (r *DownloadLogRepository) Record(ctx context.Context, entry models.DownloadEntry) error {
	if entry.DownloadedAt.IsZero() {
		entry.DownloadedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO download_log (media_id, path, bytes, downloaded_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(media_id, path) DO UPDATE SET bytes = excluded.bytes, downloaded_at = excluded.downloaded_at
	`
	if _, err := r.db.ExecContext(ctx, query, entry.MediaID, entry.Path, entry.Bytes, entry.DownloadedAt); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

// Has reports whether mediaID was already downloaded to path.
func (r *DownloadLogRepository) Has(ctx context.Context, mediaID, path string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM download_log WHERE media_id = ? AND path = ?)", mediaID, path,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to query download log: %w", err)
	}
	return exists, nil
}

// List returns the downloads of mediaID, newest first. An empty mediaID lists everything.
func (r *DownloadLogRepository) List(ctx context.Context, mediaID string) ([]models.DownloadEntry, error) {
	query := "SELECT media_id, path, bytes, downloaded_at FROM download_log"
	args := []any{}
	if mediaID != "" {
		query += " WHERE media_id = ?"
		args = append(args, mediaID)
	}
	query += " ORDER BY downloaded_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query download log: %w", err)
	}
	defer rows.Close()

	var entries []models.DownloadEntry
	for rows.Next() {
		var e models.DownloadEntry
		if err := rows.Scan(&e.MediaID, &e.Path, &e.Bytes, &e.DownloadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan download: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
