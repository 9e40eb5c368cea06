package persist

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vango-dev/statekit/pkg/kvcache"
	"github.com/vango-dev/statekit/pkg/reactive"
)

// Bundle persists a snapshot of several signals as one JSON value.
type Bundle[T any] struct {
	key      string
	cache    kvcache.Cache
	codec    Codec[T]
	snapshot func() T
	logger   *slog.Logger
}

// NewBundle creates a bundle stored under key. snapshot builds the value
// to persist from the current state.
func NewBundle[T any](cache kvcache.Cache, key string, snapshot func() T, opts ...Option) *Bundle[T] {
	cfg := newConfig(opts)
	return &Bundle[T]{
		key:      key,
		cache:    cache,
		codec:    JSONCodec[T](),
		snapshot: snapshot,
		logger:   cfg.logger.With("key", key),
	}
}

// Key returns the cache key.
func (b *Bundle[T]) Key() string {
	return b.key
}

// Load returns the stored snapshot if present and valid.
func (b *Bundle[T]) Load(ctx context.Context) (T, bool) {
	var zero T

	raw, ok, err := b.cache.Get(ctx, b.key)
	if err != nil {
		b.logger.Warn("persist: read failed, keeping defaults", "error", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}

	v, err := b.codec.Decode(raw)
	if err != nil {
		b.logger.Warn("persist: ignoring stored bundle", "error", err)
		return zero, false
	}
	return v, true
}

// Save writes the current snapshot.
func (b *Bundle[T]) Save(ctx context.Context) error {
	encoded, err := b.codec.Encode(b.snapshot())
	if err != nil {
		return err
	}
	if err := b.cache.Set(ctx, b.key, encoded); err != nil {
		b.logger.Warn("persist: bundle write failed", "error", err)
		return fmt.Errorf("persist: write %s: %w", b.key, err)
	}
	return nil
}

// Bind saves the bundle from an effect owned by owner each time any of
// sources changes. The initial effect run does not write.
func (b *Bundle[T]) Bind(owner *reactive.Owner, sources ...reactive.Source) *reactive.Effect {
	first := true
	return reactive.NewEffect(owner, func() reactive.Cleanup {
		if first {
			first = false
			return nil
		}
		// Failures are already logged by Save.
		_ = b.Save(owner.Context())
		return nil
	}, sources...)
}
