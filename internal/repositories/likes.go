package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// ToggleLike adjusts the like count of id and returns the new count.
//
// currentlyLiked is whether the local user liked the item before this call: true
// decrements (never below zero), false increments. Unknown ids return 0 without mutating.
// Callers keep the ledger in step with [MediaRepository.SetLiked].
func (r *MediaRepository) ToggleLike(ctx context.Context, id string, currentlyLiked bool) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.reload(ctx); err != nil {
		return 0, err
	}

	for i := range r.items {
		if r.items[i].ID != id {
			continue
		}
		if currentlyLiked {
			r.items[i].LikeCount = max(0, r.items[i].LikeCount-1)
		} else {
			r.items[i].LikeCount++
		}
		count := r.items[i].LikeCount
		if err := r.persist(ctx); err != nil {
			return 0, err
		}
		return count, nil
	}
	return 0, nil
}

// Likes returns the current like count of id, or 0 when unknown.
func (r *MediaRepository) Likes(ctx context.Context, id string) int {
	for _, m := range r.snapshot(ctx) {
		if m.ID == id {
			return m.LikeCount
		}
	}
	return 0
}

// IsLiked reports whether the local user liked id. Missing or unreadable ledgers read as not liked.
func (r *MediaRepository) IsLiked(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.loadLikes(ctx)
	if err != nil {
		r.logger.Warn("reading like ledger", "err", err)
		return false
	}
	return slices.Contains(ids, id)
}

// LikedIDs returns every id the local user liked.
func (r *MediaRepository) LikedIDs(ctx context.Context) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.loadLikes(ctx)
	if err != nil {
		r.logger.Warn("reading like ledger", "err", err)
		return nil
	}
	return ids
}

// SetLiked adds or removes id in the like ledger. It is idempotent, and a corrupt
// ledger is overwritten.
func (r *MediaRepository) SetLiked(ctx context.Context, id string, liked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.loadLikes(ctx)
	if err != nil {
		return err
	}

	has := slices.Contains(ids, id)
	switch {
	case liked && !has:
		ids = append(ids, id)
	case !liked && has:
		ids = slices.DeleteFunc(ids, func(v string) bool { return v == id })
	}

	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	if err := r.kv.Set(ctx, LikesKey, string(data)); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	return nil
}

// loadLikes reads the like ledger; corrupt data loads as empty. Callers hold mu.
func (r *MediaRepository) loadLikes(ctx context.Context) ([]string, error) {
	raw, ok, err := r.kv.Get(ctx, LikesKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		r.logger.Warn("resetting like ledger", "err", fmt.Errorf("%w: %v", shared.ErrPersistenceCorrupt, err))
		return nil, nil
	}
	return ids, nil
}
