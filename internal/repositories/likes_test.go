package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
	tu "github.com/do-hu-so/GD-Ba-Than/internal/testing"
)

func TestToggleLike(t *testing.T) {
	ctx := context.Background()

	t.Run("Like Then Unlike", func(t *testing.T) {
		repo := newTestRepo(t, NewMemoryKV(), MediaRepositoryOpts{})
		seed(t, repo, tu.Record("abc123", models.KindImage, 2022, "2023-01-01T00:00:00Z"))

		if n, err := repo.ToggleLike(ctx, "abc123", false); err != nil || n != 1 {
			t.Fatalf("ToggleLike(false) = %d, %v; want 1", n, err)
		}
		if n, err := repo.ToggleLike(ctx, "abc123", true); err != nil || n != 0 {
			t.Fatalf("ToggleLike(true) = %d, %v; want 0", n, err)
		}
	})

	t.Run("Never Negative", func(t *testing.T) {
		repo := newTestRepo(t, NewMemoryKV(), MediaRepositoryOpts{})
		seed(t, repo, tu.Record("a", models.KindImage, 2022, ""))

		for i := 0; i < 3; i++ {
			if n, _ := repo.ToggleLike(ctx, "a", true); n != 0 {
				t.Fatalf("iteration %d: expected 0, got %d", i, n)
			}
		}
		if repo.Likes(ctx, "a") != 0 {
			t.Errorf("expected stored count 0, got %d", repo.Likes(ctx, "a"))
		}
	})

	t.Run("Unknown Id", func(t *testing.T) {
		kv := NewMemoryKV()
		repo := newTestRepo(t, kv, MediaRepositoryOpts{})

		if n, err := repo.ToggleLike(ctx, "ghost", false); err != nil || n != 0 {
			t.Errorf("ToggleLike(unknown) = %d, %v; want 0, nil", n, err)
		}
		if _, ok, _ := kv.Get(ctx, MediaKey); ok {
			t.Error("expected no write for an unknown id")
		}
	})

	t.Run("Persisted", func(t *testing.T) {
		kv := NewMemoryKV()
		repo := newTestRepo(t, kv, MediaRepositoryOpts{})
		seed(t, repo, tu.Record("a", models.KindImage, 2022, ""))
		repo.ToggleLike(ctx, "a", false)
		repo.ToggleLike(ctx, "a", false)

		fresh := newTestRepo(t, kv, MediaRepositoryOpts{})
		if got := fresh.Likes(ctx, "a"); got != 2 {
			t.Errorf("expected 2 likes after reload, got %d", got)
		}
		if got := fresh.Likes(ctx, "missing"); got != 0 {
			t.Errorf("expected 0 likes for unknown id, got %d", got)
		}
	})
}

func TestLikeLedger(t *testing.T) {
	ctx := context.Background()

	t.Run("Set And Clear", func(t *testing.T) {
		repo := newTestRepo(t, NewMemoryKV(), MediaRepositoryOpts{})

		if repo.IsLiked(ctx, "a") {
			t.Error("expected empty ledger")
		}
		if err := repo.SetLiked(ctx, "a", true); err != nil {
			t.Fatalf("SetLiked() error = %v", err)
		}
		if err := repo.SetLiked(ctx, "a", true); err != nil {
			t.Fatalf("SetLiked() error = %v", err)
		}
		if ids := repo.LikedIDs(ctx); len(ids) != 1 {
			t.Errorf("expected idempotent add, got %v", ids)
		}
		if !repo.IsLiked(ctx, "a") {
			t.Error("expected a to be liked")
		}

		if err := repo.SetLiked(ctx, "a", false); err != nil {
			t.Fatalf("SetLiked() error = %v", err)
		}
		if err := repo.SetLiked(ctx, "a", false); err != nil {
			t.Fatalf("SetLiked() error = %v", err)
		}
		if repo.IsLiked(ctx, "a") {
			t.Error("expected a to be unliked")
		}
	})

	t.Run("Corrupt Ledger", func(t *testing.T) {
		kv := NewMemoryKV()
		kv.Set(ctx, LikesKey, "not-json")
		repo := newTestRepo(t, kv, MediaRepositoryOpts{})

		if repo.IsLiked(ctx, "a") {
			t.Error("corrupt ledger should read as not liked")
		}
		if err := repo.SetLiked(ctx, "a", true); err != nil {
			t.Fatalf("SetLiked() should overwrite a corrupt ledger, got %v", err)
		}
		if raw, _, _ := kv.Get(ctx, LikesKey); raw != `["a"]` {
			t.Errorf("expected healed ledger, got %q", raw)
		}
	})

	t.Run("Write Failure", func(t *testing.T) {
		repo := newTestRepo(t, &tu.FailingKV{}, MediaRepositoryOpts{})
		if err := repo.SetLiked(ctx, "a", true); !errors.Is(err, shared.ErrPersistence) {
			t.Errorf("expected ErrPersistence, got %v", err)
		}
	})
}
