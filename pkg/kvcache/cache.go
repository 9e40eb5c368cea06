package kvcache

import (
	"context"
	"errors"
	"sync"
)

// Cache is a string-to-string key-value store.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value stored under key.
	// ok is false when the key does not exist.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Watcher is implemented by caches that report changed keys.
// Watch calls fn with the key of every changed entry until ctx is done.
type Watcher interface {
	Watch(ctx context.Context, fn func(key string)) error
}

// ErrClosed is returned when operations are attempted on a closed cache.
var ErrClosed = errors.New("kvcache: cache is closed")

// MemoryCache is an in-memory cache.
// It is the default cache and the one used in tests.
type MemoryCache struct {
	mu       sync.RWMutex
	data     map[string]string
	closed   bool
	watchers map[int]func(string)
	nextW    int
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data:     make(map[string]string),
		watchers: make(map[int]func(string)),
	}
}

// Get returns the value stored under key.
func (m *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return "", false, ErrClosed
	}

	v, ok := m.data[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *MemoryCache) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.data[key] = value
	watchers := m.snapshotWatchers()
	m.mu.Unlock()

	for _, fn := range watchers {
		fn(key)
	}
	return nil
}

// Remove deletes key.
func (m *MemoryCache) Remove(ctx context.Context, key string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	_, existed := m.data[key]
	delete(m.data, key)
	watchers := m.snapshotWatchers()
	m.mu.Unlock()

	if existed {
		for _, fn := range watchers {
			fn(key)
		}
	}
	return nil
}

// Watch registers fn for every Set and every Remove of an existing key
// until ctx is done.
func (m *MemoryCache) Watch(ctx context.Context, fn func(key string)) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	id := m.nextW
	m.nextW++
	m.watchers[id] = fn
	m.mu.Unlock()

	context.AfterFunc(ctx, func() {
		m.mu.Lock()
		delete(m.watchers, id)
		m.mu.Unlock()
	})
	return nil
}

// Len returns the number of stored keys.
// This is for monitoring/testing purposes.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Close shuts down the cache and drops its contents.
func (m *MemoryCache) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.data = nil
	m.watchers = nil
	return nil
}

// snapshotWatchers copies the watcher set. Caller holds m.mu.
func (m *MemoryCache) snapshotWatchers() []func(string) {
	out := make([]func(string), 0, len(m.watchers))
	for _, fn := range m.watchers {
		out = append(out, fn)
	}
	return out
}

var (
	_ Cache   = (*MemoryCache)(nil)
	_ Watcher = (*MemoryCache)(nil)
)
