package kvcache

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCacheMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")
	c, err := NewFileCache(path)
	require.NoError(t, err)

	_, ok, err := c.Get(context.Background(), "auth_token")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file is created on first write only")
}

func TestFileCacheMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileCache(path)
	assert.Error(t, err)
}

func TestFileCacheSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	c, err := NewFileCache(path)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "app_language", "en"))
	require.NoError(t, c.Close())

	c, err = NewFileCache(path)
	require.NoError(t, err)
	v, ok, err := c.Get(ctx, "app_language")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "en", v)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileCacheReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	a, err := NewFileCache(path)
	require.NoError(t, err)
	b, err := NewFileCache(path)
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, "app_theme", "dark"))
	require.NoError(t, a.Set(ctx, "app_language", "de"))

	changed, err := b.Reload()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app_theme", "app_language"}, changed)

	require.NoError(t, a.Remove(ctx, "app_theme"))
	changed, err = b.Reload()
	require.NoError(t, err)
	assert.Equal(t, []string{"app_theme"}, changed)
}

func TestFileCacheWatchSeesOtherWriter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	path := filepath.Join(t.TempDir(), "cache.json")

	writer, err := NewFileCache(path)
	require.NoError(t, err)
	reader, err := NewFileCache(path)
	require.NoError(t, err)

	var mu sync.Mutex
	seen := map[string]bool{}
	require.NoError(t, reader.Watch(ctx, func(key string) {
		mu.Lock()
		seen[key] = true
		mu.Unlock()
	}))

	require.NoError(t, writer.Set(ctx, "app_theme", "dark"))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["app_theme"]
	}, 2*time.Second, 10*time.Millisecond)

	v, ok, err := reader.Get(ctx, "app_theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}
