package persist

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/statekit/pkg/kvcache"
	"github.com/vango-dev/statekit/pkg/reactive"
)

type theme string

const (
	light theme = "light"
	dark  theme = "dark"
)

// brokenCache fails reads and writes.
type brokenCache struct{}

var errBroken = errors.New("storage unavailable")

func (brokenCache) Get(context.Context, string) (string, bool, error) { return "", false, errBroken }
func (brokenCache) Set(context.Context, string, string) error        { return errBroken }
func (brokenCache) Remove(context.Context, string) error             { return errBroken }
func (brokenCache) Close() error                                     { return nil }

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, nil))
}

func TestFieldSetWritesThrough(t *testing.T) {
	ctx := context.Background()
	cache := kvcache.NewMemoryCache()
	f := NewField(cache, "app_theme", light, StringCodec(light, dark))

	require.NoError(t, f.Set(ctx, dark))
	assert.Equal(t, dark, f.Get())

	v, ok, err := cache.Get(ctx, "app_theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
}

func TestFieldSetRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	cache := kvcache.NewMemoryCache()
	f := NewField(cache, "app_theme", light, StringCodec(light, dark))

	err := f.Set(ctx, theme("neon"))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, light, f.Get(), "state untouched")
	assert.Equal(t, 0, cache.Len())
}

func TestFieldLoad(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		stored *string
		want   theme
		loaded bool
	}{
		{name: "absent", stored: nil, want: light, loaded: false},
		{name: "valid", stored: ptr("dark"), want: dark, loaded: true},
		{name: "outside domain", stored: ptr("neon"), want: light, loaded: false},
		{name: "empty", stored: ptr(""), want: light, loaded: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := kvcache.NewMemoryCache()
			if tt.stored != nil {
				require.NoError(t, cache.Set(ctx, "app_theme", *tt.stored))
			}
			var buf bytes.Buffer
			f := NewField(cache, "app_theme", light, StringCodec(light, dark), WithLogger(quietLogger(&buf)))

			assert.Equal(t, tt.loaded, f.Load(ctx))
			assert.Equal(t, tt.want, f.Get())
		})
	}
}

func TestFieldCacheFailures(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	f := NewField[theme](brokenCache{}, "app_theme", light, StringCodec(light, dark), WithLogger(quietLogger(&buf)))

	assert.False(t, f.Load(ctx), "read failure keeps default")
	assert.Equal(t, light, f.Get())

	err := f.Set(ctx, dark)
	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, dark, f.Get(), "memory stays written after a failed write")
	assert.Contains(t, buf.String(), "write failed")
}

func TestFieldResetAndClear(t *testing.T) {
	ctx := context.Background()
	cache := kvcache.NewMemoryCache()
	f := NewField(cache, "auth_token", "", StringCodec[string]())

	require.NoError(t, f.Set(ctx, "tok"))
	require.NoError(t, f.Reset(ctx))
	v, ok, _ := cache.Get(ctx, "auth_token")
	assert.True(t, ok, "reset writes the default")
	assert.Equal(t, "", v)

	require.NoError(t, f.Set(ctx, "tok"))
	require.NoError(t, f.Clear(ctx))
	_, ok, _ = cache.Get(ctx, "auth_token")
	assert.False(t, ok, "clear removes the key")
	assert.Equal(t, "", f.Get())
}

type userBundle struct {
	Username string `json:"username"`
	LoggedIn bool   `json:"isLoggedIn"`
}

func TestJSONCodecEnvelope(t *testing.T) {
	c := JSONCodec[userBundle]()

	s, err := c.Encode(userBundle{Username: "ann", LoggedIn: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":1,"data":{"username":"ann","isLoggedIn":true}}`, s)

	v, err := c.Decode(s)
	require.NoError(t, err)
	assert.Equal(t, userBundle{Username: "ann", LoggedIn: true}, v)

	for _, bad := range []string{
		`{"v":2,"data":{}}`,
		`{"username":"ann"}`,
		`{"v":1}`,
		`not json`,
		`{"v":1,"data":"string"}`,
	} {
		_, err := c.Decode(bad)
		assert.ErrorIs(t, err, ErrInvalid, "decode %s", bad)
	}
}

func TestBundleBind(t *testing.T) {
	ctx := context.Background()
	cache := kvcache.NewMemoryCache()
	owner := reactive.NewOwner(nil)
	defer owner.Dispose()

	name := reactive.NewSignal("Guest")
	loggedIn := reactive.NewSignal(false)

	b := NewBundle(cache, "user", func() userBundle {
		return userBundle{Username: name.Get(), LoggedIn: loggedIn.Get()}
	})
	b.Bind(owner, name, loggedIn)
	owner.Flush()
	assert.Equal(t, 0, cache.Len(), "binding does not write")

	name.Set("ann")
	loggedIn.Set(true)
	owner.Flush()

	got, ok := b.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, userBundle{Username: "ann", LoggedIn: true}, got)
}

func TestBundleLoadIgnoresBadData(t *testing.T) {
	ctx := context.Background()
	cache := kvcache.NewMemoryCache()
	require.NoError(t, cache.Set(ctx, "user", `{"username":"legacy"}`))

	var buf bytes.Buffer
	b := NewBundle(cache, "user", func() userBundle { return userBundle{} }, WithLogger(quietLogger(&buf)))

	_, ok := b.Load(ctx)
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "ignoring stored bundle")
}

func ptr(s string) *string { return &s }
