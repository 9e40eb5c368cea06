package stores

import (
	"time"

	"github.com/vango-dev/statekit/pkg/auth"
	"github.com/vango-dev/statekit/pkg/store"
)

// Cache keys.
const (
	KeyAuthToken = "auth_token"
	KeyTheme     = "app_theme"
	KeyLanguage  = "app_language"
	KeyUser      = "user"
)

// Default delays.
const (
	DefaultFetchDelay   = 500 * time.Millisecond
	DefaultDismissAfter = 5 * time.Second
)

var (
	// AuthenticatorKey provides the auth store's backend.
	// Default: auth.NewMock().
	AuthenticatorKey = store.NewKey[auth.Authenticator]("authenticator")

	// FetchDelayKey provides the simulated products fetch delay.
	FetchDelayKey = store.NewKey[time.Duration]("fetch-delay")

	// DismissAfterKey provides the notification auto-dismiss delay.
	DismissAfterKey = store.NewKey[time.Duration]("dismiss-after")

	// ClockKey provides the time source for timestamps and IDs.
	ClockKey = store.NewKey[func() time.Time]("clock")
)

// WithAuthenticator sets the auth store's backend.
func WithAuthenticator(a auth.Authenticator) store.Option {
	return store.Provide(AuthenticatorKey, a)
}

// WithFetchDelay sets the products fetch delay.
func WithFetchDelay(d time.Duration) store.Option {
	return store.Provide(FetchDelayKey, d)
}

// WithDismissAfter sets the notification auto-dismiss delay.
func WithDismissAfter(d time.Duration) store.Option {
	return store.Provide(DismissAfterKey, d)
}

// WithClock sets the time source.
func WithClock(now func() time.Time) store.Option {
	return store.Provide(ClockKey, now)
}
