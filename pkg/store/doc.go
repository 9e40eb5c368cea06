// Package store provides session-scoped state containers.
//
// A store is declared once with Define and looked up with Use. The first
// lookup in a Registry runs the setup function; later lookups return the
// same instance until the registry is reset.
//
//	var Counter = store.Define("counter", func(s *store.Scope) *CounterStore {
//	    c := &CounterStore{Base: store.NewBase(s), count: reactive.NewSignal(0)}
//	    c.Handle("increment", store.NoPayload(c.Increment))
//	    return c
//	})
//
//	r := store.NewRegistry(store.WithCache(cache))
//	defer r.Close()
//	Counter.Use(r).Increment()
//
// # Cross-store lookups
//
// A setup function may look up other stores through its Scope:
//
//	products := Products.Use(s)
//
// A store that looks itself up, directly or through another store's setup,
// panics with the lookup chain.
//
// # Actions
//
// Every mutation runs through Base.Act (or Base.Async for blocking work).
// Act holds the store's mutex while the action runs, then records metrics,
// flushes effects and notifies OnChange listeners after releasing it.
package store
