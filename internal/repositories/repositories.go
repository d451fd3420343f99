// package repositories provides the persistence layer of the gallery: a small key-value
// abstraction with SQLite, Redis and in-memory backends, and the media repository on top of it.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// Keys used in the key-value store.
const (
	MediaKey = "family_media_store"
	LikesKey = "user_likes"
)

// KV is a string key-value store. Get reports whether the key exists.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store bundles the configured [KV] with the SQL handle backing it, when there is one.
type Store struct {
	KV KV
	DB *sql.DB // nil unless the driver is sqlite

	close func() error
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// OpenStore opens the backend selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg shared.StoreConfig) (*Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		db, err := shared.OpenStore(cfg)
		if err != nil {
			return nil, err
		}
		return &Store{KV: NewSQLiteKV(db), DB: db, close: db.Close}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: redis at %s: %v", shared.ErrPersistence, cfg.RedisAddr, err)
		}
		return &Store{KV: NewRedisKV(client, ""), close: client.Close}, nil
	case "memory":
		return &Store{KV: NewMemoryKV()}, nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", shared.ErrInvalidConfig, cfg.Driver)
	}
}

// SQLiteKV implements [KV] on the kv_store table.
type SQLiteKV struct {
	db *sql.DB
}

// NewSQLiteKV creates a new SQLiteKV with the given database connection. Migrations must already be applied.
func NewSQLiteKV(db *sql.DB) *SQLiteKV {
	return &SQLiteKV{db: db}
}

func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_store WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteKV) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// RedisKV implements [KV] on plain Redis strings, namespaced by a key prefix.
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV wraps client. prefix defaults to "gallery:".
func NewRedisKV(client *redis.Client, prefix string) *RedisKV {
	if prefix == "" {
		prefix = "gallery:"
	}
	return &RedisKV{client: client, prefix: prefix}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// MemoryKV is a process-local [KV], used by tests and the memory driver.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
