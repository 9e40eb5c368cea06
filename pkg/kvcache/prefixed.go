package kvcache

import (
	"context"
	"strings"
)

// Prefixed returns a cache that namespaces every key under prefix.
// Closing it closes the wrapped cache.
func Prefixed(cache Cache, prefix string) Cache {
	if prefix == "" {
		return cache
	}
	return &prefixedCache{next: cache, prefix: prefix}
}

type prefixedCache struct {
	next   Cache
	prefix string
}

func (p *prefixedCache) Get(ctx context.Context, key string) (string, bool, error) {
	return p.next.Get(ctx, p.prefix+key)
}

func (p *prefixedCache) Set(ctx context.Context, key, value string) error {
	return p.next.Set(ctx, p.prefix+key, value)
}

func (p *prefixedCache) Remove(ctx context.Context, key string) error {
	return p.next.Remove(ctx, p.prefix+key)
}

func (p *prefixedCache) Close() error {
	return p.next.Close()
}

// Watch forwards changes under the prefix, with the prefix stripped.
func (p *prefixedCache) Watch(ctx context.Context, fn func(key string)) error {
	w, ok := p.next.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, func(key string) {
		if rest, ok := strings.CutPrefix(key, p.prefix); ok {
			fn(rest)
		}
	})
}
