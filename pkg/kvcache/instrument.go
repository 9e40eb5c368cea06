package kvcache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vango-dev/statekit/pkg/metrics"
)

// Instrument wraps cache so that every failed operation is counted in m
// and logged. A missing key is not a failure. Either m or logger may be nil.
func Instrument(cache Cache, m *metrics.Metrics, logger *slog.Logger) Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &instrumentedCache{next: cache, metrics: m, logger: logger}
}

type instrumentedCache struct {
	next    Cache
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func (c *instrumentedCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := c.next.Get(ctx, key)
	if err != nil {
		c.fail("get", key, err)
	}
	return v, ok, err
}

func (c *instrumentedCache) Set(ctx context.Context, key, value string) error {
	err := c.next.Set(ctx, key, value)
	if err != nil {
		c.fail("set", key, err)
	}
	return err
}

func (c *instrumentedCache) Remove(ctx context.Context, key string) error {
	err := c.next.Remove(ctx, key)
	if err != nil {
		c.fail("remove", key, err)
	}
	return err
}

func (c *instrumentedCache) Close() error {
	err := c.next.Close()
	if err != nil {
		c.fail("close", "", err)
	}
	return err
}

func (c *instrumentedCache) Watch(ctx context.Context, fn func(key string)) error {
	w, ok := c.next.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, fn)
}

func (c *instrumentedCache) fail(op, key string, err error) {
	c.metrics.CacheError(op)
	level := slog.LevelWarn
	if errors.Is(err, ErrClosed) {
		level = slog.LevelDebug
	}
	c.logger.Log(context.Background(), level, "kvcache operation failed", "op", op, "key", key, "error", err)
}
