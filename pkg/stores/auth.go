package stores

import (
	"context"

	"github.com/vango-dev/statekit/pkg/auth"
	"github.com/vango-dev/statekit/pkg/persist"
	"github.com/vango-dev/statekit/pkg/reactive"
	"github.com/vango-dev/statekit/pkg/store"
)

// AuthStore tracks the login state of the session.
type AuthStore struct {
	*store.Base

	authenticator auth.Authenticator

	isAuthenticated *reactive.Signal[bool]
	// token is empty when absent.
	token   *persist.Field[string]
	loading *reactive.Signal[bool]
	err     *reactive.Signal[*auth.Error]

	isLoggedIn *reactive.Memo[bool]
}

// Auth is the auth store definition.
var Auth = store.Define("auth", newAuth)

func newAuth(s *store.Scope) *AuthStore {
	a := &AuthStore{
		Base:            store.NewBase(s),
		authenticator:   AuthenticatorKey.Or(s, nil),
		isAuthenticated: reactive.NewSignal(false),
		token:           persist.NewField(s.Cache(), KeyAuthToken, "", persist.StringCodec[string](), persist.WithLogger(s.Logger())),
		loading:         reactive.NewSignal(false),
		err:             reactive.NewSignal[*auth.Error](nil),
	}
	if a.authenticator == nil {
		a.authenticator = auth.NewMock()
	}

	a.isLoggedIn = reactive.NewMemo(func() bool {
		return a.isAuthenticated.Get() && a.token.Get() != ""
	}, a.isAuthenticated, a.token.Signal())

	a.Handle("login", store.Payload(a.Login))
	a.Handle("logout", store.NoPayload(a.Logout))
	a.Handle("restoreAuth", store.NoPayloadErr(func(ctx context.Context) error {
		a.RestoreAuth(ctx)
		return nil
	}))
	a.Handle("clearError", store.NoPayload(a.ClearError))

	return a
}

// IsAuthenticated reports whether the last login succeeded.
func (a *AuthStore) IsAuthenticated() bool { return a.isAuthenticated.Get() }

// IsLoggedIn reports whether the session is authenticated and has a token.
func (a *AuthStore) IsLoggedIn() bool { return a.isLoggedIn.Get() }

// Token returns the current token, if any.
func (a *AuthStore) Token() (string, bool) {
	t := a.token.Get()
	return t, t != ""
}

// IsLoading reports whether a login is in progress.
func (a *AuthStore) IsLoading() bool { return a.loading.Get() }

// CurrentError returns the last login error, or nil.
func (a *AuthStore) CurrentError() *auth.Error { return a.err.Get() }

// Login authenticates creds. On failure the error is recorded in the
// store and the same *auth.Error is returned. Empty credentials fail
// without contacting the backend. The login is cancelled if ctx is done
// or the registry is reset.
func (a *AuthStore) Login(ctx context.Context, creds auth.Credentials) error {
	return a.Async(ctx, "login", func(ctx context.Context) error {
		a.Step("login", func() {
			a.err.Set(nil)
			a.loading.Set(true)
		})
		defer a.Step("login", func() { a.loading.Set(false) })

		if err := creds.Validate(); err != nil {
			return a.fail(err)
		}

		token, err := a.authenticator.Authenticate(ctx, creds)
		if err != nil {
			return a.fail(err)
		}

		a.Step("login", func() {
			// A cache failure is logged by the field; the session stays logged in.
			_ = a.token.Set(ctx, token)
			a.isAuthenticated.Set(true)
		})
		return nil
	})
}

func (a *AuthStore) fail(err error) *auth.Error {
	ae := auth.AsError(err)
	a.Step("login", func() {
		a.err.Set(ae)
		a.isAuthenticated.Set(false)
		a.token.Signal().Set("")
	})
	return ae
}

// Logout clears the session and removes the cached token.
func (a *AuthStore) Logout() {
	a.Do("logout", func() {
		a.isAuthenticated.Set(false)
		a.err.Set(nil)
		_ = a.token.Clear(a.Owner().Context())
	})
}

// RestoreAuth adopts a cached token. If the backend can verify tokens,
// a token that fails verification is ignored. It reports whether the
// session is now authenticated.
func (a *AuthStore) RestoreAuth(ctx context.Context) bool {
	stored, ok := a.token.Stored(ctx)
	if !ok || stored == "" {
		return false
	}
	if v, ok := a.authenticator.(auth.Verifier); ok {
		if err := v.Verify(ctx, stored); err != nil {
			a.Logger().Info("ignoring cached token", "error", err)
			return false
		}
	}

	a.Do("restoreAuth", func() {
		a.token.Signal().Set(stored)
		a.isAuthenticated.Set(true)
	})
	return true
}

// ClearError clears the last login error.
func (a *AuthStore) ClearError() {
	a.Do("clearError", func() { a.err.Set(nil) })
}

// AuthSnapshot is the auth state as reported by Snapshot.
type AuthSnapshot struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	IsLoggedIn      bool        `json:"isLoggedIn"`
	Token           *string     `json:"token"`
	Loading         bool        `json:"loading"`
	Error           *auth.Error `json:"error"`
}

// Snapshot implements store.Snapshotter.
func (a *AuthStore) Snapshot() any {
	var snap AuthSnapshot
	a.Read(func() {
		snap = AuthSnapshot{
			IsAuthenticated: a.isAuthenticated.Get(),
			IsLoggedIn:      a.isLoggedIn.Get(),
			Loading:         a.loading.Get(),
			Error:           a.err.Get(),
		}
		if t, ok := a.Token(); ok {
			snap.Token = &t
		}
	})
	return snap
}
