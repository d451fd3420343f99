package repositories

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
	tu "github.com/do-hu-so/GD-Ba-Than/internal/testing"
)

func TestTrySync(t *testing.T) {
	ctx := context.Background()

	t.Run("Tet Scenario", func(t *testing.T) {
		kv := NewMemoryKV()
		res := tu.Resource("abc123", "jpg", "image", "2023-01-01T00:00:00Z")
		res.Context.Custom = map[string]string{"title": "Tết", "year": "2022"}
		lister := &tu.MockLister{Resources: map[models.Kind][]models.RemoteResource{models.KindImage: {res}}}
		repo := newTestRepo(t, kv, MediaRepositoryOpts{Lister: lister})

		result, err := repo.TrySync(ctx)
		if err != nil {
			t.Fatalf("TrySync() error = %v", err)
		}
		if result.Added != 1 || result.Total != 1 || result.Fetched != 1 {
			t.Errorf("unexpected result %+v", result)
		}

		fresh := newTestRepo(t, kv, MediaRepositoryOpts{})
		list := fresh.List(ctx, nil)
		if len(list) != 1 {
			t.Fatalf("expected exactly one persisted record, got %d", len(list))
		}
		m := list[0]
		if m.ID != "abc123" || m.Kind != models.KindImage || m.Title != "Tết" || m.Year != 2022 || m.LikeCount != 0 {
			t.Errorf("unexpected record %+v", m)
		}
		if m.SourceURL != "https://res.cloudinary.com/family/image/upload/abc123" {
			t.Errorf("unexpected source url %s", m.SourceURL)
		}
		if m.MimeType != "image/jpg" || m.UploadedBy != DefaultUploadedBy || m.FileSize != 1024 {
			t.Errorf("unexpected derived fields %+v", m)
		}
	})

	t.Run("Defaults Without Context", func(t *testing.T) {
		res := tu.Resource("clip", "mov", "video", "2021-06-01T10:00:00Z")
		res.Version = 42
		lister := &tu.MockLister{Resources: map[models.Kind][]models.RemoteResource{models.KindVideo: {res}}}
		repo := newTestRepo(t, NewMemoryKV(), MediaRepositoryOpts{Lister: lister})

		if _, err := repo.TrySync(ctx); err != nil {
			t.Fatalf("TrySync() error = %v", err)
		}
		m, err := repo.Get(ctx, "clip")
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if m.Title != DefaultTitle || m.Year != 2021 || m.Kind != models.KindVideo {
			t.Errorf("unexpected defaults %+v", m)
		}
		if m.SourceURL != "https://res.cloudinary.com/family/video/upload/v42/clip" {
			t.Errorf("unexpected source url %s", m.SourceURL)
		}
		if m.ThumbnailURL != "https://res.cloudinary.com/family/video/upload/v42/clip.jpg" {
			t.Errorf("unexpected thumbnail %s", m.ThumbnailURL)
		}
	})

	t.Run("Video Format Listed As Image", func(t *testing.T) {
		res := tu.Resource("odd", "webm", "", "2021-06-01T10:00:00Z")
		lister := &tu.MockLister{Resources: map[models.Kind][]models.RemoteResource{models.KindImage: {res}}}
		repo := newTestRepo(t, NewMemoryKV(), MediaRepositoryOpts{Lister: lister})

		repo.TrySync(ctx)
		if m, _ := repo.Get(ctx, "odd"); m == nil || m.Kind != models.KindVideo {
			t.Errorf("expected webm resource to be a video, got %+v", m)
		}
	})

	t.Run("Insert Only", func(t *testing.T) {
		existing := tu.Record("keep", models.KindImage, 2010, "2020-01-01T00:00:00Z")
		existing.Title = "Local Title"
		existing.LikeCount = 3

		remote := tu.Resource("keep", "jpg", "image", "2024-01-01T00:00:00Z")
		remote.Context.Custom = map[string]string{"title": "Remote Title", "year": "2024"}
		lister := &tu.MockLister{Resources: map[models.Kind][]models.RemoteResource{models.KindImage: {remote}}}
		repo := newTestRepo(t, NewMemoryKV(), MediaRepositoryOpts{Lister: lister})
		seed(t, repo, existing)

		result, err := repo.TrySync(ctx)
		if err != nil {
			t.Fatalf("TrySync() error = %v", err)
		}
		if result.Added != 0 {
			t.Errorf("expected nothing added, got %d", result.Added)
		}
		got, _ := repo.Get(ctx, "keep")
		if *got != existing {
			t.Errorf("existing record was modified: %+v", got)
		}
	})

	t.Run("Unique Ids Across Listings", func(t *testing.T) {
		dup := tu.Resource("same", "jpg", "image", "2024-01-01T00:00:00Z")
		lister := &tu.MockLister{Resources: map[models.Kind][]models.RemoteResource{
			models.KindImage: {dup, dup},
			models.KindVideo: {tu.Resource("same", "mp4", "video", "2024-01-01T00:00:00Z")},
		}}
		repo := newTestRepo(t, NewMemoryKV(), MediaRepositoryOpts{Lister: lister})

		result, _ := repo.TrySync(ctx)
		if result.Added != 1 || len(repo.List(ctx, nil)) != 1 {
			t.Errorf("expected a single record for a repeated id, got %+v", result)
		}
	})

	t.Run("Sorted Newest First", func(t *testing.T) {
		lister := &tu.MockLister{Resources: map[models.Kind][]models.RemoteResource{
			models.KindImage: {
				tu.Resource("mid", "jpg", "image", "2022-05-01T00:00:00Z"),
				tu.Resource("newest", "png", "image", "2024-05-01T00:00:00Z"),
			},
			models.KindVideo: {tu.Resource("oldest", "mp4", "video", "2019-05-01T00:00:00Z")},
		}}
		repo := newTestRepo(t, NewMemoryKV(), MediaRepositoryOpts{Lister: lister})
		seed(t, repo, tu.Record("local", models.KindImage, 2023, "2023-05-01T00:00:00Z"))

		if _, err := repo.TrySync(ctx); err != nil {
			t.Fatalf("TrySync() error = %v", err)
		}

		var ids []string
		for _, m := range repo.List(ctx, nil) {
			ids = append(ids, m.ID)
		}
		if strings.Join(ids, ",") != "newest,local,mid,oldest" {
			t.Errorf("unexpected order %v", ids)
		}
	})

	t.Run("Empty Listing Writes Nothing", func(t *testing.T) {
		kv := NewMemoryKV()
		repo := newTestRepo(t, kv, MediaRepositoryOpts{Lister: &tu.MockLister{}})

		result, err := repo.TrySync(ctx)
		if err != nil {
			t.Fatalf("TrySync() error = %v", err)
		}
		if result.Added != 0 {
			t.Errorf("expected no additions, got %d", result.Added)
		}
		if _, ok, _ := kv.Get(ctx, MediaKey); ok {
			t.Error("expected store to stay unwritten")
		}
	})

	t.Run("Partial Failure Commits Nothing", func(t *testing.T) {
		kv := NewMemoryKV()
		lister := &tu.MockLister{
			Resources: map[models.Kind][]models.RemoteResource{models.KindImage: {tu.Resource("img", "jpg", "image", "2024-01-01T00:00:00Z")}},
			Errs:      map[models.Kind]error{models.KindVideo: errors.New("502 bad gateway")},
		}
		repo := newTestRepo(t, kv, MediaRepositoryOpts{Lister: lister})

		_, err := repo.TrySync(ctx)
		if !errors.Is(err, shared.ErrSyncUnavailable) {
			t.Fatalf("expected ErrSyncUnavailable, got %v", err)
		}
		if _, ok, _ := kv.Get(ctx, MediaKey); ok {
			t.Error("expected nothing committed after a failed listing")
		}
	})

	t.Run("No Lister", func(t *testing.T) {
		repo := newTestRepo(t, NewMemoryKV(), MediaRepositoryOpts{})
		if _, err := repo.TrySync(ctx); !errors.Is(err, shared.ErrSyncUnavailable) {
			t.Errorf("expected ErrSyncUnavailable, got %v", err)
		}
	})

	t.Run("Tag Is Forwarded", func(t *testing.T) {
		lister := &tu.MockLister{}
		repo := newTestRepo(t, NewMemoryKV(), MediaRepositoryOpts{Lister: lister, Tag: "family"})

		repo.TrySync(ctx)
		for _, tag := range lister.Tags {
			if tag != "family" {
				t.Errorf("expected tag family, got %q", tag)
			}
		}
	})
}

func TestSync(t *testing.T) {
	ctx := context.Background()

	var logs bytes.Buffer
	lister := &tu.MockLister{Errs: map[models.Kind]error{models.KindImage: errors.New("offline")}}
	repo := NewMediaRepository(MediaRepositoryOpts{KV: NewMemoryKV(), Lister: lister, Logger: shared.NewLogger(&logs)})
	seed(t, repo, tu.Record("a", models.KindImage, 2020, "2024-01-01T00:00:00Z"))

	result := repo.Sync(ctx)
	if result.Added != 0 || result.Total != 1 {
		t.Errorf("expected zero-change result, got %+v", result)
	}
	if !strings.Contains(logs.String(), "sync failed") {
		t.Errorf("expected failure to be logged, got %q", logs.String())
	}
}
