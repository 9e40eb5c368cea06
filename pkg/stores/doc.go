// Package stores defines the application's state stores: counter, user,
// auth, products, cart, notifications and settings.
//
// Each store is a store.Definition; look it up in a registry with Use:
//
//	r := store.NewRegistry(
//		store.WithCache(cache),
//		stores.WithAuthenticator(auth.NewMock()),
//	)
//	stores.Cart.Use(r).AddToCart(1, 2)
//	total := stores.Cart.Use(r).TotalPrice()
//
// The cart reads products and the user reads the counter through the
// registry. Neither store holds the other by construction, so the lock
// order is always cart before products and user before counter.
package stores
