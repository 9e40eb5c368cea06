package stores

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vango-dev/statekit/pkg/persist"
	"github.com/vango-dev/statekit/pkg/reactive"
	"github.com/vango-dev/statekit/pkg/secret"
	"github.com/vango-dev/statekit/pkg/store"
)

// User defaults.
const (
	DefaultUsername   = "Guest"
	AnonymousName     = "Anonymous"
	DefaultPassword   = "Password1234"
	DefaultCreditCard = 123123123
)

// userBundle is the persisted part of the user store. Secrets are never
// part of it.
type userBundle struct {
	Username       string `json:"username"`
	IsLoggedIn     bool   `json:"isLoggedIn"`
	FavoriteNumber int    `json:"favoriteNumber"`
}

// UserStore holds the local user profile.
type UserStore struct {
	*store.Base

	counter *CounterStore
	bundle  *persist.Bundle[userBundle]

	username       *reactive.Signal[string]
	isLoggedIn     *reactive.Signal[bool]
	favoriteNumber *reactive.Signal[int]

	// password and creditCard are guarded by the store lock.
	password   *secret.Secret
	creditCard *secret.Secret

	displayName        *reactive.Memo[string]
	userCounterMessage *reactive.Memo[string]
}

// User is the user store definition.
var User = store.Define("user", newUser)

func newUser(s *store.Scope) *UserStore {
	u := &UserStore{
		Base:           store.NewBase(s),
		counter:        Counter.Use(s),
		username:       reactive.NewSignal(DefaultUsername),
		isLoggedIn:     reactive.NewSignal(false),
		favoriteNumber: reactive.NewSignal(0),
		password:       secret.NewString(DefaultPassword),
		creditCard:     secret.NewString(strconv.Itoa(DefaultCreditCard)),
	}

	u.bundle = persist.NewBundle(s.Cache(), KeyUser, func() userBundle {
		return userBundle{
			Username:       u.username.Get(),
			IsLoggedIn:     u.isLoggedIn.Get(),
			FavoriteNumber: u.favoriteNumber.Get(),
		}
	}, persist.WithLogger(s.Logger()))

	if saved, ok := u.bundle.Load(s.Context()); ok {
		u.username.Set(saved.Username)
		u.isLoggedIn.Set(saved.IsLoggedIn)
		u.favoriteNumber.Set(saved.FavoriteNumber)
	}
	u.bundle.Bind(s.Owner(), u.username, u.isLoggedIn, u.favoriteNumber)

	u.displayName = reactive.NewMemo(func() string {
		if u.isLoggedIn.Get() {
			return u.username.Get()
		}
		return AnonymousName
	}, u.username, u.isLoggedIn)

	u.userCounterMessage = reactive.NewMemo(func() string {
		return fmt.Sprintf("%s, your count is %d", u.displayName.Get(), u.counter.Count())
	}, u.displayName, u.counter.CountSource())

	s.Owner().OnCleanup(func() {
		u.password.Destroy()
		u.creditCard.Destroy()
	})

	u.Handle("login", store.NoPayload(u.Login))
	u.Handle("logout", store.NoPayload(u.Logout))
	u.Handle("setName", store.Payload(func(_ context.Context, req struct {
		Name string `json:"name"`
	}) error {
		u.SetName(req.Name)
		return nil
	}))
	u.Handle("setPassword", store.Payload(func(_ context.Context, req struct {
		Password string `json:"password"`
	}) error {
		u.SetPassword(req.Password)
		return nil
	}))
	u.Handle("setCreditNumber", store.Payload(func(_ context.Context, req struct {
		Card int64 `json:"card"`
	}) error {
		u.SetCreditNumber(req.Card)
		return nil
	}))
	u.Handle("checkPassword", store.PayloadResult(func(_ context.Context, req struct {
		Password string `json:"password"`
	}) (bool, error) {
		return u.CheckPassword(req.Password), nil
	}))
	u.Handle("syncWithCounter", store.NoPayload(u.SyncWithCounter))
	u.Handle("resetCounter", store.NoPayload(u.ResetCounter))

	return u
}

// Username returns the username.
func (u *UserStore) Username() string { return u.username.Get() }

// IsLoggedIn reports whether the user is logged in.
func (u *UserStore) IsLoggedIn() bool { return u.isLoggedIn.Get() }

// FavoriteNumber returns the count captured at login or the last sync.
func (u *UserStore) FavoriteNumber() int { return u.favoriteNumber.Get() }

// DisplayName returns the username when logged in, or "Anonymous".
func (u *UserStore) DisplayName() string { return u.displayName.Get() }

// UserCounterMessage combines the display name and the counter's count.
func (u *UserStore) UserCounterMessage() string { return u.userCounterMessage.Get() }

// Login marks the user logged in and captures the counter's count.
func (u *UserStore) Login() {
	u.Do("login", func() {
		u.isLoggedIn.Set(true)
		u.favoriteNumber.Set(u.counter.Count())
	})
}

// Logout restores the username and clears the login. The password and
// credit card are kept.
func (u *UserStore) Logout() {
	u.Do("logout", func() {
		u.username.Set(DefaultUsername)
		u.isLoggedIn.Set(false)
		u.favoriteNumber.Set(0)
	})
}

// SetName sets the username.
func (u *UserStore) SetName(name string) {
	u.Do("setName", func() { u.username.Set(name) })
}

// SetPassword replaces the password.
func (u *UserStore) SetPassword(password string) {
	u.Do("setPassword", func() {
		u.password.Destroy()
		u.password = secret.NewString(password)
	})
}

// SetCreditNumber replaces the credit card number.
func (u *UserStore) SetCreditNumber(card int64) {
	u.Do("setCreditNumber", func() {
		u.creditCard.Destroy()
		u.creditCard = secret.NewString(strconv.FormatInt(card, 10))
	})
}

// CheckPassword reports whether password matches, in constant time.
func (u *UserStore) CheckPassword(password string) bool {
	var ok bool
	u.Read(func() { ok = u.password.EqualString(password) })
	return ok
}

// MaskedCreditCard returns the card number with all but the last four
// digits hidden.
func (u *UserStore) MaskedCreditCard() string {
	var masked string
	u.Read(func() { masked = u.creditCard.Masked(4) })
	return masked
}

// SyncWithCounter copies the counter's count into the favorite number.
func (u *UserStore) SyncWithCounter() {
	u.Do("syncWithCounter", func() {
		u.favoriteNumber.Set(u.counter.Count())
	})
}

// ResetCounter resets the counter store.
func (u *UserStore) ResetCounter() {
	u.counter.Reset()
}

// UserSnapshot is the user state as reported by Snapshot. Secrets appear
// masked.
type UserSnapshot struct {
	Username           string `json:"username"`
	IsLoggedIn         bool   `json:"isLoggedIn"`
	FavoriteNumber     int    `json:"favoriteNumber"`
	DisplayName        string `json:"displayName"`
	UserCounterMessage string `json:"userCounterMessage"`
	Password           string `json:"password"`
	CreditCard         string `json:"creditCard"`
}

// Snapshot implements store.Snapshotter.
func (u *UserStore) Snapshot() any {
	var snap UserSnapshot
	u.Read(func() {
		snap = UserSnapshot{
			Username:           u.username.Get(),
			IsLoggedIn:         u.isLoggedIn.Get(),
			FavoriteNumber:     u.favoriteNumber.Get(),
			DisplayName:        u.displayName.Get(),
			UserCounterMessage: u.userCounterMessage.Get(),
			Password:           secret.Redacted,
			CreditCard:         u.creditCard.Masked(4),
		}
	})
	return snap
}
