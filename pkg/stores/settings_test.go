package stores_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/statekit/pkg/document"
	"github.com/vango-dev/statekit/pkg/storetest"
	"github.com/vango-dev/statekit/pkg/stores"
)

// brokenCache fails every operation.
type brokenCache struct{}

var errBroken = errors.New("storage unavailable")

func (brokenCache) Get(context.Context, string) (string, bool, error) { return "", false, errBroken }
func (brokenCache) Set(context.Context, string, string) error        { return errBroken }
func (brokenCache) Remove(context.Context, string) error             { return errBroken }
func (brokenCache) Close() error                                     { return nil }

func TestSettingsDefaults(t *testing.T) {
	h := storetest.New(t)
	s := stores.Settings.Use(h.Registry())

	assert.Equal(t, stores.ThemeLight, s.CurrentTheme())
	assert.Equal(t, stores.LanguagePL, s.CurrentLanguage())
	assert.False(t, s.IsDarkMode())
	assert.Equal(t, stores.Preferences{Theme: "light", Language: "pl"}, s.AllSettings())
}

func TestSettingsRoundTrip(t *testing.T) {
	h := storetest.New(t)
	s := stores.Settings.Use(h.Registry())

	require.NoError(t, s.SetTheme(stores.ThemeDark))
	require.NoError(t, s.SetLanguage(stores.LanguageDE))

	reloaded := stores.Settings.Use(h.SimulateReload())
	assert.Equal(t, stores.ThemeDark, reloaded.CurrentTheme())
	assert.Equal(t, stores.LanguageDE, reloaded.CurrentLanguage())
	assert.True(t, reloaded.IsDarkMode())
}

func TestSettingsApplyToDocument(t *testing.T) {
	h := storetest.New(t)
	s := stores.Settings.Use(h.Registry())

	require.NoError(t, s.SetTheme(stores.ThemeAuto))
	require.NoError(t, s.SetLanguage(stores.LanguageEN))

	theme, _ := h.Document().Attribute(document.AttrTheme)
	lang, _ := h.Document().Attribute(document.AttrLanguage)
	assert.Equal(t, "auto", theme)
	assert.Equal(t, "en", lang)
}

func TestSettingsRejectUnknownValues(t *testing.T) {
	h := storetest.New(t)
	s := stores.Settings.Use(h.Registry())

	assert.EqualError(t, s.SetTheme("purple"), `settings: unknown theme "purple"`)
	assert.EqualError(t, s.SetLanguage("fr"), `settings: unknown language "fr"`)

	assert.Equal(t, stores.ThemeLight, s.CurrentTheme())
	assert.Equal(t, stores.LanguagePL, s.CurrentLanguage())
	_, ok := h.Document().Attribute(document.AttrTheme)
	assert.False(t, ok)
}

func TestSettingsLoadIgnoresInvalidCache(t *testing.T) {
	h := storetest.New(t)
	ctx := context.Background()
	require.NoError(t, h.Cache().Set(ctx, stores.KeyTheme, "neon"))
	require.NoError(t, h.Cache().Set(ctx, stores.KeyLanguage, "en"))

	s := stores.Settings.Use(h.Registry())
	assert.Equal(t, stores.ThemeLight, s.CurrentTheme())
	assert.Equal(t, stores.LanguageEN, s.CurrentLanguage())

	lang, _ := h.Document().Attribute(document.AttrLanguage)
	assert.Equal(t, "en", lang)
}

func TestSettingsToggleTheme(t *testing.T) {
	h := storetest.New(t)
	s := stores.Settings.Use(h.Registry())

	require.NoError(t, s.ToggleTheme())
	assert.Equal(t, stores.ThemeDark, s.CurrentTheme())
	require.NoError(t, s.ToggleTheme())
	assert.Equal(t, stores.ThemeLight, s.CurrentTheme())

	require.NoError(t, s.SetTheme(stores.ThemeAuto))
	require.NoError(t, s.ToggleTheme())
	assert.Equal(t, stores.ThemeLight, s.CurrentTheme())
}

func TestSettingsReset(t *testing.T) {
	h := storetest.New(t)
	s := stores.Settings.Use(h.Registry())
	ctx := context.Background()

	require.NoError(t, s.SetTheme(stores.ThemeDark))
	require.NoError(t, s.SetLanguage(stores.LanguageDE))
	require.NoError(t, s.ResetSettings())

	assert.Equal(t, stores.DefaultTheme, s.CurrentTheme())
	assert.Equal(t, stores.DefaultLanguage, s.CurrentLanguage())

	cached, _, err := h.Cache().Get(ctx, stores.KeyTheme)
	require.NoError(t, err)
	assert.Equal(t, "light", cached)
	theme, _ := h.Document().Attribute(document.AttrTheme)
	assert.Equal(t, "light", theme)
}

func TestSettingsCacheFailure(t *testing.T) {
	h := storetest.New(t, storetest.WithCache(brokenCache{}))
	s := stores.Settings.Use(h.Registry())

	assert.Equal(t, stores.DefaultTheme, s.CurrentTheme())

	err := s.SetTheme(stores.ThemeDark)
	assert.ErrorIs(t, err, errBroken)
	assert.Equal(t, stores.ThemeDark, s.CurrentTheme())
	theme, _ := h.Document().Attribute(document.AttrTheme)
	assert.Equal(t, "dark", theme)
	assert.Contains(t, h.Logs(), "storage unavailable")
}

func TestSettingsWatchCache(t *testing.T) {
	h := storetest.New(t)
	s := stores.Settings.Use(h.Registry())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.WatchCache(ctx) }()

	require.Eventually(t, func() bool {
		_ = h.Cache().Set(context.Background(), stores.KeyTheme, "dark")
		return s.CurrentTheme() == stores.ThemeDark
	}, 2*time.Second, 10*time.Millisecond)
}
