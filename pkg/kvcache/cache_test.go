package kvcache

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// testCacheContract checks the behavior every backend shares.
func testCacheContract(t *testing.T, c Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok, "missing key should report ok=false")

	require.NoError(t, c.Set(ctx, "app_theme", "dark"))
	v, ok, err := c.Get(ctx, "app_theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	require.NoError(t, c.Set(ctx, "app_theme", "light"))
	v, _, err = c.Get(ctx, "app_theme")
	require.NoError(t, err)
	assert.Equal(t, "light", v, "last write wins")

	require.NoError(t, c.Set(ctx, "empty", ""))
	v, ok, err = c.Get(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, ok, "empty value is still present")
	assert.Equal(t, "", v)

	require.NoError(t, c.Remove(ctx, "app_theme"))
	_, ok, err = c.Get(ctx, "app_theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Remove(ctx, "never-set"), "removing a missing key is not an error")

	require.NoError(t, c.Close())
	_, _, err = c.Get(ctx, "empty")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, c.Set(ctx, "k", "v"), ErrClosed)
	assert.ErrorIs(t, c.Remove(ctx, "k"), ErrClosed)
}

func TestMemoryCache(t *testing.T) {
	testCacheContract(t, NewMemoryCache())
}

func TestFileCacheContract(t *testing.T) {
	c, err := NewFileCache(t.TempDir() + "/cache.json")
	require.NoError(t, err)
	testCacheContract(t, c)
}

func TestBadgerCacheContract(t *testing.T) {
	c, err := OpenBadger(BadgerConfig{InMemory: true})
	require.NoError(t, err)
	testCacheContract(t, c)
}

func TestBadgerCacheRequiresPath(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err)
}

func TestBadgerCachePersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	c, err := OpenBadger(BadgerConfig{Path: dir, SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "auth_token", "tok"))
	require.NoError(t, c.Close())

	c, err = OpenBadger(BadgerConfig{Path: dir})
	require.NoError(t, err)
	defer c.Close()

	v, ok, err := c.Get(ctx, "auth_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", v)
}

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// A :memory: database is per connection.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLCacheContract(t *testing.T) {
	c, err := NewSQLCache(context.Background(), openSQLite(t))
	require.NoError(t, err)
	testCacheContract(t, c)
}

func TestSQLCacheSharedTable(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)

	a, err := NewSQLCache(ctx, db, WithSQLTable("settings_cache"))
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, "app_language", "de"))

	b, err := NewSQLCache(ctx, db, WithSQLTable("settings_cache"), WithSQLDialect(DialectSQLite))
	require.NoError(t, err)
	v, ok, err := b.Get(ctx, "app_language")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "de", v)
}

func TestSQLCacheRejectsBadTableName(t *testing.T) {
	_, err := NewSQLCache(context.Background(), openSQLite(t), WithSQLTable("x; DROP TABLE y"))
	assert.Error(t, err)
}

func TestSQLDialectPlaceholders(t *testing.T) {
	pg := &SQLCache{dialect: DialectPostgreSQL}
	lite := &SQLCache{dialect: DialectSQLite}

	assert.Equal(t, "$2", pg.placeholder(2))
	assert.Equal(t, "?", lite.placeholder(2))
	assert.Equal(t, "postgres", DialectPostgreSQL.String())
	assert.Equal(t, "sqlite", DialectSQLite.String())
}

func TestPrefixed(t *testing.T) {
	ctx := context.Background()
	base := NewMemoryCache()
	c := Prefixed(base, "tab1:")

	require.NoError(t, c.Set(ctx, "app_theme", "dark"))

	_, ok, err := base.Get(ctx, "app_theme")
	require.NoError(t, err)
	assert.False(t, ok, "unprefixed key must not be written")

	v, ok, err := base.Get(ctx, "tab1:app_theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	assert.Same(t, base, Prefixed(base, ""), "empty prefix returns the cache itself")
}

func TestPrefixedContract(t *testing.T) {
	testCacheContract(t, Prefixed(NewMemoryCache(), "ns/"))
}

func TestPrefixedWatchStripsPrefix(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base := NewMemoryCache()
	c := Prefixed(base, "ns/")

	var seen []string
	require.NoError(t, c.(Watcher).Watch(ctx, func(key string) {
		seen = append(seen, key)
	}))

	require.NoError(t, base.Set(ctx, "other", "x"))
	require.NoError(t, c.Set(ctx, "app_theme", "dark"))

	assert.Equal(t, []string{"app_theme"}, seen)
}

func TestMemoryCacheWatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := NewMemoryCache()

	var seen []string
	require.NoError(t, c.Watch(ctx, func(key string) {
		seen = append(seen, key)
	}))

	require.NoError(t, c.Set(ctx, "a", "1"))
	require.NoError(t, c.Remove(ctx, "a"))
	require.NoError(t, c.Remove(ctx, "a"))
	assert.Equal(t, []string{"a", "a"}, seen, "removing a missing key does not notify")

	cancel()
	assert.Eventually(t, func() bool {
		c.mu.RLock()
		defer c.mu.RUnlock()
		return len(c.watchers) == 0
	}, time.Second, 5*time.Millisecond)
}
