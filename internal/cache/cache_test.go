package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factlight/internal/model"
)

func TestKey(t *testing.T) {
	a := Key("page", "https://example.com/a")
	b := Key("page", "https://example.com/b")
	c := Key("transcript", "https://example.com/a")

	assert.True(t, strings.HasPrefix(a, "factlight:v1:page:"))
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, a, Key("page", "https://example.com/a"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	_, found := c.Get("k")
	assert.False(t, found)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	val, found := c.Get("k")
	assert.True(t, found)
	assert.Equal(t, []byte("v"), val)

	require.NoError(t, c.Set("short", []byte("x"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)
	_, found = c.Get("short")
	assert.False(t, found, "entry should expire")

	require.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)

	require.NoError(t, c.Set("a", []byte("1"), 0))
	require.NoError(t, c.Clear())
	_, found = c.Get("a")
	assert.False(t, found)
}

func TestMemoryCache_CopiesValues(t *testing.T) {
	c := NewMemoryCache(time.Minute)

	body := []byte("page body")
	require.NoError(t, c.Set("k", body, 0))
	body[0] = 'X'

	got, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "page body", string(got))

	got[0] = 'Y'
	again, _ := c.Get("k")
	assert.Equal(t, "page body", string(again))
	assert.Equal(t, 1, c.Len())
}

func TestDiskCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir, time.Hour)
	key := Key("page", "https://example.com")

	_, found := c.Get(key)
	assert.False(t, found)

	require.NoError(t, c.Set(key, []byte("<html>body</html>"), 0))
	val, found := c.Get(key)
	require.True(t, found)
	assert.Equal(t, "<html>body</html>", string(val))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.NotContains(t, entries[0].Name(), ":")

	require.NoError(t, c.Delete(key))
	_, found = c.Get(key)
	assert.False(t, found)
	assert.NoError(t, c.Delete(key), "deleting a missing entry is not an error")
}

func TestDiskCache_Expired(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	require.NoError(t, c.Set("old", []byte("stale"), -time.Minute))
	_, found := c.Get("old")
	assert.False(t, found)

	_, err := os.Stat(c.path("old"))
	assert.True(t, os.IsNotExist(err), "expired entry should be removed")
}

func TestDiskCache_Corrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	require.NoError(t, os.WriteFile(c.path("bad"), []byte("not json"), 0o644))
	_, found := c.Get("bad")
	assert.False(t, found)
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	disk := NewDiskCache(dir, time.Hour)
	require.NoError(t, disk.Set("k", []byte("from disk"), 0))

	c := NewLayeredCache(time.Minute, dir, time.Hour)

	val, found := c.Get("k")
	require.True(t, found)
	assert.Equal(t, "from disk", string(val))

	val, found = c.memory.Get("k")
	assert.True(t, found, "disk hit should be promoted")
	assert.Equal(t, "from disk", string(val))

	require.NoError(t, c.Delete("k"))
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestLayeredCache_SetAndClear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "layered")
	c := NewLayeredCache(time.Minute, dir, time.Hour)

	require.NoError(t, c.Set("k", []byte("v"), 0))
	_, found := c.disk.Get("k")
	assert.True(t, found)

	require.NoError(t, c.Clear())
	_, found = c.Get("k")
	assert.False(t, found)
}

func TestNew(t *testing.T) {
	assert.IsType(t, NopCache{}, New(model.CacheConfig{Enabled: false}))
	assert.IsType(t, &MemoryCache{}, New(model.CacheConfig{Enabled: true, MemoryTTL: time.Minute}))
	assert.IsType(t, &LayeredCache{}, New(model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute, DiskTTL: time.Hour}))
}

func TestGetOrLoad(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	calls := 0
	load := func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("fetched"), nil
	}

	val, hit, err := GetOrLoad(context.Background(), c, "k", 0, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fetched", string(val))

	val, hit, err = GetOrLoad(context.Background(), c, "k", 0, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "fetched", string(val))
	assert.Equal(t, 1, calls)
}

func TestGetOrLoad_ErrorNotCached(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	boom := errors.New("fetch failed")

	_, _, err := GetOrLoad(context.Background(), c, "k", 0, func(context.Context) ([]byte, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	_, found := c.Get("k")
	assert.False(t, found)
}

func TestGetOrLoad_NilCache(t *testing.T) {
	val, hit, err := GetOrLoad(context.Background(), nil, "k", 0, func(context.Context) ([]byte, error) {
		return []byte("v"), nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "v", string(val))
}
