package store

import "fmt"

// Key is a typed slot for a dependency provided to a Registry, such as the
// authenticator used by the auth store.
//
//	var AuthenticatorKey = store.NewKey[auth.Authenticator]("authenticator")
//	r := store.NewRegistry(store.Provide(AuthenticatorKey, auth.NewMock()))
//	a, ok := AuthenticatorKey.From(s)
type Key[T any] struct {
	name string
}

// NewKey creates a key. The name is used in error messages only.
func NewKey[T any](name string) *Key[T] {
	return &Key[T]{name: name}
}

// Name returns the key name.
func (k *Key[T]) Name() string {
	return k.name
}

// Provide returns a registry option storing v under k.
func Provide[T any](k *Key[T], v T) Option {
	return func(c *registryConfig) {
		c.values[k] = v
	}
}

// From returns the value provided for k.
func (k *Key[T]) From(s Services) (T, bool) {
	v, ok := s.value(k)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// MustFrom returns the value provided for k, or panics.
func (k *Key[T]) MustFrom(s Services) T {
	v, ok := k.From(s)
	if !ok {
		panic(fmt.Sprintf("store: no value provided for %q", k.name))
	}
	return v
}

// Or returns the value provided for k, or def.
func (k *Key[T]) Or(s Services, def T) T {
	if v, ok := k.From(s); ok {
		return v
	}
	return def
}
