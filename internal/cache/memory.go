package cache

import (
	"bytes"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// minSweep bounds how often expired inputs are swept out of memory
const minSweep = time.Minute

// MemoryCache keeps fetched inputs for the life of the process. Values are
// copied on the way in and out, so a caller editing a returned page body
// cannot change what the next run reads.
type MemoryCache struct {
	items *gocache.Cache
}

// NewMemoryCache creates a memory tier whose entries live for ttl unless Set
// gives another lifetime. Expired entries are swept every ttl/2, at most
// once a minute.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	sweep := ttl / 2
	if sweep < minSweep {
		sweep = minSweep
	}
	return &MemoryCache{items: gocache.New(ttl, sweep)}
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	v, found := c.items.Get(key)
	if !found {
		return nil, false
	}
	body, ok := v.([]byte)
	if !ok {
		return nil, false
	}
	return bytes.Clone(body), true
}

// Set stores value; ttl 0 means the tier's default lifetime
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = gocache.DefaultExpiration
	}
	c.items.Set(key, bytes.Clone(value), ttl)
	return nil
}

func (c *MemoryCache) Delete(key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) Clear() error {
	c.items.Flush()
	return nil
}

// Len reports how many entries are held, expired ones included until swept
func (c *MemoryCache) Len() int {
	return c.items.ItemCount()
}
