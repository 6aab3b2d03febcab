// Package cache stores rendered artifacts between runs.
//
// Rendering a page is the expensive step of a batch; re-running render over
// an unchanged metadata directory should not redo it. Entries are keyed by
// the hash of the page document and the render options (see [Keyer]), so a
// changed layout or setting is a miss by construction and entries never
// need invalidation.
//
// Backends:
//   - [FileCache]: files under the user cache directory, the CLI default
//   - [RedisCache]: a shared redis, for many machines rendering one dataset
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTTL is how long rendered pages are kept.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte store with expiring entries. Implementations are safe
// for concurrent use.
type Cache interface {
	// Get returns the entry for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DefaultDir returns the file cache directory under the user cache
// directory ($XDG_CACHE_HOME on Linux).
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "mangaforge"), nil
}

// Open returns the cache for url. A redis:// or rediss:// URL selects
// [RedisCache]; "none" selects [NullCache]; anything else is a directory
// for [FileCache], with "" meaning [DefaultDir].
func Open(ctx context.Context, url string) (Cache, error) {
	switch {
	case url == "none":
		return NewNullCache(), nil
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		c, err := NewRedisCache(ctx, url)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	dir := url
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return nil, err
		}
	}
	c, err := NewFileCache(dir)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NullCache stores nothing, so every render runs. Open("none") and the
// --no-cache flag select it.
type NullCache struct{}

// NewNullCache returns a NullCache.
func NewNullCache() *NullCache { return &NullCache{} }

func (*NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (*NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (*NullCache) Delete(context.Context, string) error { return nil }
func (*NullCache) Close() error { return nil }

var _ Cache = (*NullCache)(nil)
