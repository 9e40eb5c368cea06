package persist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vango-dev/statekit/pkg/kvcache"
	"github.com/vango-dev/statekit/pkg/reactive"
)

// Option configures a Field or Bundle.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report cache failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

func newConfig(opts []Option) config {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Field is a signal mirrored into the cache under a single key.
type Field[T any] struct {
	key      string
	defaults T
	signal   *reactive.Signal[T]
	codec    Codec[T]
	cache    kvcache.Cache
	logger   *slog.Logger
}

// NewField creates a field holding defaultValue. Nothing is read from the
// cache until Load is called.
func NewField[T any](cache kvcache.Cache, key string, defaultValue T, codec Codec[T], opts ...Option) *Field[T] {
	cfg := newConfig(opts)
	return &Field[T]{
		key:      key,
		defaults: defaultValue,
		signal:   reactive.NewSignal(defaultValue),
		codec:    codec,
		cache:    cache,
		logger:   cfg.logger.With("key", key),
	}
}

// Key returns the cache key.
func (f *Field[T]) Key() string {
	return f.key
}

// Signal returns the underlying signal, for use as a dependency.
func (f *Field[T]) Signal() *reactive.Signal[T] {
	return f.signal
}

// Get returns the in-memory value.
func (f *Field[T]) Get() T {
	return f.signal.Get()
}

// Default returns the value the field was created with.
func (f *Field[T]) Default() T {
	return f.defaults
}

// Set writes v to the signal and then to the cache.
func (f *Field[T]) Set(ctx context.Context, v T) error {
	encoded, err := f.codec.Encode(v)
	if err != nil {
		return err
	}

	f.signal.Set(v)

	if err := f.cache.Set(ctx, f.key, encoded); err != nil {
		f.logger.Warn("persist: write failed, value kept in memory", "error", err)
		return fmt.Errorf("persist: write %s: %w", f.key, err)
	}
	return nil
}

// Load adopts the cached value if present and valid, and reports whether
// it did. Otherwise the in-memory value is left untouched.
func (f *Field[T]) Load(ctx context.Context) bool {
	v, ok := f.read(ctx)
	if !ok {
		return false
	}
	f.signal.Set(v)
	return true
}

// Stored returns the cached value without adopting it.
func (f *Field[T]) Stored(ctx context.Context) (T, bool) {
	return f.read(ctx)
}

// Reset re-applies the default through Set.
func (f *Field[T]) Reset(ctx context.Context) error {
	return f.Set(ctx, f.defaults)
}

// Clear sets the default in memory and removes the key from the cache.
func (f *Field[T]) Clear(ctx context.Context) error {
	f.signal.Set(f.defaults)

	if err := f.cache.Remove(ctx, f.key); err != nil {
		f.logger.Warn("persist: remove failed", "error", err)
		return fmt.Errorf("persist: remove %s: %w", f.key, err)
	}
	return nil
}

func (f *Field[T]) read(ctx context.Context) (T, bool) {
	var zero T

	raw, ok, err := f.cache.Get(ctx, f.key)
	if err != nil {
		f.logger.Warn("persist: read failed, keeping current value", "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}

	v, err := f.codec.Decode(raw)
	if err != nil {
		f.logger.Warn("persist: ignoring stored value", "error", err)
		return zero, false
	}
	return v, true
}
