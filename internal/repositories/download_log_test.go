package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
)

func TestDownloadLogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewDownloadLogRepository(setupTestDB(t))

	has, err := repo.Has(ctx, "abc123", "/tmp/Tết_2022.jpg")
	if err != nil || has {
		t.Fatalf("Has() = %v, %v; want false", has, err)
	}

	older := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []models.DownloadEntry{
		{MediaID: "abc123", Path: "/tmp/Tết_2022.jpg", Bytes: 10, DownloadedAt: older},
		{MediaID: "abc123", Path: "/tmp/copy/Tết_2022.jpg", Bytes: 10, DownloadedAt: older.Add(time.Hour)},
		{MediaID: "other", Path: "/tmp/x.jpg", Bytes: 1},
	}
	for _, e := range entries {
		if err := repo.Record(ctx, e); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	if has, _ := repo.Has(ctx, "abc123", "/tmp/Tết_2022.jpg"); !has {
		t.Error("expected recorded download to be found")
	}

	list, err := repo.List(ctx, "abc123")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].Path != "/tmp/copy/Tết_2022.jpg" {
		t.Errorf("unexpected list %+v", list)
	}

	if err := repo.Record(ctx, models.DownloadEntry{MediaID: "abc123", Path: "/tmp/Tết_2022.jpg", Bytes: 20, DownloadedAt: older}); err != nil {
		t.Fatalf("Record() upsert error = %v", err)
	}
	all, _ := repo.List(ctx, "")
	if len(all) != 3 {
		t.Errorf("expected upsert to keep 3 rows, got %d", len(all))
	}
}
