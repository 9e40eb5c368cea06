// Package storetest provides a test harness for stores.
//
// A Harness owns a registry backed by an in-memory cache and document,
// with every simulated delay set to zero. The registry is closed when the
// test ends.
//
//	func TestCart(t *testing.T) {
//	    h := storetest.New(t)
//	    cart := stores.Cart.Use(h.Registry())
//	    cart.AddToCart(1, 2)
//	    assert.Equal(t, 2, cart.ItemCount())
//	}
//
// SimulateReload starts a new registry over the same cache and document,
// which is how a page reload looks to persisted stores.
package storetest

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/vango-dev/statekit/pkg/auth"
	"github.com/vango-dev/statekit/pkg/document"
	"github.com/vango-dev/statekit/pkg/kvcache"
	"github.com/vango-dev/statekit/pkg/store"
	"github.com/vango-dev/statekit/pkg/stores"
)

// Harness is a registry with in-memory collaborators.
type Harness struct {
	t        testing.TB
	cache    kvcache.Cache
	memCache *kvcache.MemoryCache
	doc      *document.Memory
	logs     *syncBuffer
	opts     []store.Option

	mu       sync.Mutex
	registry *store.Registry
}

// Config configures a Harness.
type Config struct {
	// Cache replaces the in-memory cache, for failure tests.
	Cache kvcache.Cache

	// Options are appended to the harness defaults.
	Options []store.Option
}

// Option configures a Harness.
type Option func(*Config)

// WithCache replaces the in-memory cache.
func WithCache(c kvcache.Cache) Option {
	return func(cfg *Config) {
		cfg.Cache = c
	}
}

// WithOptions adds registry options, such as stores.WithDismissAfter.
func WithOptions(opts ...store.Option) Option {
	return func(cfg *Config) {
		cfg.Options = append(cfg.Options, opts...)
	}
}

// New creates a harness and registers its cleanup with t.
func New(t testing.TB, opts ...Option) *Harness {
	t.Helper()

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Harness{
		t:    t,
		doc:  document.NewMemory(),
		logs: &syncBuffer{},
	}
	if cfg.Cache != nil {
		h.cache = cfg.Cache
	} else {
		h.memCache = kvcache.NewMemoryCache()
		h.cache = h.memCache
	}

	logger := slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h.opts = append([]store.Option{
		store.WithCache(shared(h.cache)),
		store.WithDocument(h.doc),
		store.WithLogger(logger),
		stores.WithAuthenticator(auth.NewMock(auth.WithLatency(0))),
		stores.WithFetchDelay(0),
		stores.WithDismissAfter(0),
	}, cfg.Options...)

	h.registry = store.NewRegistry(h.opts...)

	t.Cleanup(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.registry.Close()
		h.cache.Close()
	})
	return h
}

// Registry returns the current registry.
func (h *Harness) Registry() *store.Registry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry
}

// Cache returns the harness cache.
func (h *Harness) Cache() kvcache.Cache { return h.cache }

// MemoryCache returns the in-memory cache, or nil if WithCache was used.
func (h *Harness) MemoryCache() *kvcache.MemoryCache { return h.memCache }

// Document returns the harness document.
func (h *Harness) Document() *document.Memory { return h.doc }

// Logs returns everything logged so far.
func (h *Harness) Logs() string { return h.logs.String() }

// SimulateReload closes the current registry and starts a new one over
// the same cache and document. It returns the new registry.
func (h *Harness) SimulateReload() *store.Registry {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.registry.Close()
	h.registry = store.NewRegistry(h.opts...)
	return h.registry
}

// shared keeps the cache open when a registry closes, so the next
// registry sees the same data.
func shared(c kvcache.Cache) kvcache.Cache {
	if w, ok := c.(kvcache.Watcher); ok {
		return sharedWatcher{sharedCache{c}, w}
	}
	return sharedCache{c}
}

type sharedCache struct {
	kvcache.Cache
}

func (sharedCache) Close() error { return nil }

type sharedWatcher struct {
	sharedCache
	w kvcache.Watcher
}

func (s sharedWatcher) Watch(ctx context.Context, fn func(key string)) error {
	return s.w.Watch(ctx, fn)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
