package stores_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/statekit/pkg/auth"
	"github.com/vango-dev/statekit/pkg/store"
	"github.com/vango-dev/statekit/pkg/storetest"
	"github.com/vango-dev/statekit/pkg/stores"
)

func dispatch(t *testing.T, r *store.Registry, name, action, payload string) (any, error) {
	t.Helper()
	var raw json.RawMessage
	if payload != "" {
		raw = json.RawMessage(payload)
	}
	return r.Dispatch(context.Background(), name, action, raw)
}

func TestEveryStoreIsDefined(t *testing.T) {
	h := storetest.New(t)
	defined := h.Registry().Defined()
	for _, name := range []string{"auth", "cart", "counter", "notifications", "products", "settings", "user"} {
		assert.Contains(t, defined, name)
	}
}

func TestDispatchCounter(t *testing.T) {
	h := storetest.New(t)
	r := h.Registry()

	_, err := dispatch(t, r, "counter", "increment", "")
	require.NoError(t, err)
	_, err = dispatch(t, r, "counter", "incrementBy", `{"amount":4}`)
	require.NoError(t, err)
	_, err = dispatch(t, r, "counter", "setMessage", `{"message":"hey"}`)
	require.NoError(t, err)

	c := stores.Counter.Use(r)
	assert.Equal(t, 5, c.Count())
	assert.Equal(t, "hey", c.Message())

	_, err = dispatch(t, r, "counter", "incrementBy", `{"amount":"four"}`)
	assert.ErrorIs(t, err, store.ErrBadPayload)
	_, err = dispatch(t, r, "counter", "incrementBy", `{"by":1}`)
	assert.ErrorIs(t, err, store.ErrBadPayload)
	_, err = dispatch(t, r, "counter", "explode", "")
	assert.ErrorIs(t, err, store.ErrUnknownAction)
	_, err = dispatch(t, r, "ledger", "increment", "")
	assert.ErrorIs(t, err, store.ErrUnknownStore)
}

func TestDispatchCartDefaultsQuantity(t *testing.T) {
	h := storetest.New(t)
	r := h.Registry()

	_, err := dispatch(t, r, "cart", "addToCart", `{"productId":2}`)
	require.NoError(t, err)
	_, err = dispatch(t, r, "cart", "addToCart", `{"productId":2,"quantity":3}`)
	require.NoError(t, err)

	assert.Equal(t, 4, stores.Cart.Use(r).ItemCount())

	_, err = dispatch(t, r, "cart", "updateQuantity", `{"productId":2,"quantity":0}`)
	require.NoError(t, err)
	assert.True(t, stores.Cart.Use(r).IsEmpty())
}

func TestDispatchCartIgnoresExplicitZeroQuantity(t *testing.T) {
	h := storetest.New(t)
	r := h.Registry()

	for _, payload := range []string{
		`{"productId":1,"quantity":0}`,
		`{"productId":1,"quantity":-2}`,
	} {
		_, err := dispatch(t, r, "cart", "addToCart", payload)
		require.NoError(t, err, payload)
	}

	assert.True(t, stores.Cart.Use(r).IsEmpty())
	assert.Equal(t, 0, stores.Cart.Use(r).ItemCount())
}

func TestDispatchReturnsResults(t *testing.T) {
	h := storetest.New(t)
	r := h.Registry()

	out, err := dispatch(t, r, "products", "addProduct", `{"name":"Mouse","price":20}`)
	require.NoError(t, err)
	assert.Equal(t, 3, out.(stores.Product).ID)

	out, err = dispatch(t, r, "notifications", "addNotification", `{"message":"hi","type":"warning"}`)
	require.NoError(t, err)
	assert.Equal(t, stores.TypeWarning, out.(stores.Notification).Type)

	out, err = dispatch(t, r, "user", "checkPassword", `{"password":"Password1234"}`)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestDispatchAuthLogin(t *testing.T) {
	h := storetest.New(t)
	r := h.Registry()

	_, err := dispatch(t, r, "auth", "login", `{"username":"admin","password":"nope"}`)
	var ae *auth.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, auth.ErrorCode, ae.Code)

	_, err = dispatch(t, r, "auth", "login", `{"username":"admin","password":"password"}`)
	require.NoError(t, err)
	assert.True(t, stores.Auth.Use(r).IsLoggedIn())
}

func TestDispatchSettingsRejectsUnknownTheme(t *testing.T) {
	h := storetest.New(t)
	r := h.Registry()

	_, err := dispatch(t, r, "settings", "setTheme", `{"theme":"sepia"}`)
	assert.Error(t, err)
	_, err = dispatch(t, r, "settings", "toggleTheme", "")
	require.NoError(t, err)
	assert.True(t, stores.Settings.Use(r).IsDarkMode())
}

func TestSnapshotsEncode(t *testing.T) {
	h := storetest.New(t)
	r := h.Registry()

	for _, name := range r.Defined() {
		t.Run(name, func(t *testing.T) {
			snap, err := r.Snapshot(name)
			require.NoError(t, err)
			_, err = json.Marshal(snap)
			require.NoError(t, err)
		})
	}
}

func TestChangesReportActions(t *testing.T) {
	h := storetest.New(t)
	r := h.Registry()

	var got []store.Change
	unsubscribe := r.OnChange(func(c store.Change) { got = append(got, c) })
	defer unsubscribe()

	stores.Cart.Use(r).AddToCart(1, 1)

	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Equal(t, "cart", last.Store)
	assert.Equal(t, "addToCart", last.Action)
	assert.NoError(t, last.Err)
}
