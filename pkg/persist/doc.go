// Package persist mirrors reactive signals into a kvcache.Cache.
//
// A Field is a single signal stored under one key:
//
//	theme := persist.NewField(cache, "app_theme", Light, persist.StringCodec(Light, Dark, Auto))
//	theme.Load(ctx)            // adopt the stored value if it is valid
//	err := theme.Set(ctx, Dark) // memory first, then the cache
//
// A Bundle stores a snapshot of several signals under one key and rewrites
// it from an effect whenever any of them changes:
//
//	b := persist.NewBundle(cache, "user", snapshot)
//	b.Bind(owner, username, loggedIn, favorite)
//
// # Failure policy
//
// Reading is best effort. A missing key, a cache error, a value that does
// not decode, or a value outside the allowed domain all leave the in-memory
// default in place; everything except a missing key is logged.
//
// Writing updates memory first and then the cache. A cache write failure is
// logged and returned, and the in-memory value stays written.
package persist
