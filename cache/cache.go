// Package cache keeps previously parsed exchange data in SQLite so that a
// ladder can be computed for a symbol without re-reading the source payload.
//
// Entries expire after a TTL and are also invalidated when the cache token
// changes, which lets a release drop data written in an older shape.
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/dca/metrics"
)

const (
	// Token is bumped whenever the shape of cached data changes.
	Token = 1

	DefaultTTL = 24 * time.Hour
)

type Cache struct {
	db    *sql.DB
	token int
	now   func() time.Time
}

// Open opens (or creates) the cache database at path. Entries written with a
// token other than token are treated as misses.
func Open(path string, token int) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}

	return &Cache{db: db, token: token, now: time.Now}, nil
}

// Put stores v under key, replacing any previous entry.
func (c *Cache) Put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO cache (key, token, stored_at, data)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			token = excluded.token,
			stored_at = excluded.stored_at,
			data = excluded.data`,
		key, c.token, c.now().UnixMilli(), data,
	)
	return err
}

// Get decodes the entry under key into v. It reports false when there is no
// entry, the entry is older than ttl, or it was written with another token.
func (c *Cache) Get(ctx context.Context, key string, ttl time.Duration, v any) (bool, error) {
	var (
		token    int
		storedAt int64
		data     []byte
	)

	err := c.db.QueryRowContext(ctx,
		`SELECT token, stored_at, data FROM cache WHERE key = ?`, key,
	).Scan(&token, &storedAt, &data)
	if err == sql.ErrNoRows {
		metrics.RulesCache.WithLabelValues("miss").Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}

	age := c.now().Sub(time.UnixMilli(storedAt))
	if token != c.token || age >= ttl {
		metrics.RulesCache.WithLabelValues("stale").Inc()
		return false, nil
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	metrics.RulesCache.WithLabelValues("hit").Inc()
	return true, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM cache WHERE key = ?`, key)
	return err
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Cached returns the fresh entry under key, or runs fn, stores its result
// and returns it.
func Cached[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var v T
	ok, err := c.Get(ctx, key, ttl, &v)
	if err != nil {
		return v, err
	}
	if ok {
		return v, nil
	}

	v, err = fn(ctx)
	if err != nil {
		return v, err
	}
	if err := c.Put(ctx, key, v); err != nil {
		return v, fmt.Errorf("store %s: %w", key, err)
	}
	return v, nil
}
