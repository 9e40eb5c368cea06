// Package kvcache provides the string-to-string key-value cache that stores
// persist into across sessions.
//
// The Cache interface is deliberately small and fallible: every operation
// takes a context and may fail, so callers can decide on a fallback.
//
//	cache := kvcache.NewMemoryCache()
//	// or
//	cache, err := kvcache.NewFileCache("state.json")
//	// or
//	cache, err := kvcache.OpenBadger(kvcache.BadgerConfig{Path: "state.db"})
//	// or
//	cache, err := kvcache.NewSQLCache(ctx, db, kvcache.WithSQLDialect(kvcache.DialectSQLite))
//	// or
//	cache := kvcache.NewS3Cache(s3Client, "bucket", kvcache.WithS3Prefix("statekit/"))
//
// # Change notifications
//
// Backends that can observe writes made by other processes or other handles
// implement Watcher. This mirrors the browser "storage" event: a FileCache
// watched in one process reports keys written by another.
package kvcache
