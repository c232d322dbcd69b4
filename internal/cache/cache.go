// Package cache stores fetched inputs (page bodies, caption tracks) so
// repeated runs over the same source do not refetch it. Results are never
// cached.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/factlight/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a cache key for a fetched input of the given kind ("page",
// "transcript") identified by id (usually a URL)
func Key(kind, id string) string {
	hash := sha256.Sum256([]byte(id))
	return "factlight:v1:" + kind + ":" + hex.EncodeToString(hash[:])
}

// New creates the cache described by cfg: memory in front of disk, or a
// no-op cache when caching is disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return NopCache{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Load errors are returned as is and nothing is cached.
func GetOrLoad(ctx context.Context, c Cache, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, bool, error) {
	if c == nil {
		c = NopCache{}
	}
	if val, found := c.Get(key); found {
		return val, true, nil
	}

	val, err := load(ctx)
	if err != nil {
		return nil, false, err
	}

	// A failed write only costs a refetch next time
	_ = c.Set(key, val, ttl)
	return val, false, nil
}

// NopCache never stores anything
type NopCache struct{}

func (NopCache) Get(string) ([]byte, bool)               { return nil, false }
func (NopCache) Set(string, []byte, time.Duration) error { return nil }
func (NopCache) Delete(string) error                     { return nil }
func (NopCache) Clear() error                            { return nil }
