package stores

import (
	"context"
	"errors"
	"fmt"

	"github.com/vango-dev/statekit/pkg/document"
	"github.com/vango-dev/statekit/pkg/kvcache"
	"github.com/vango-dev/statekit/pkg/persist"
	"github.com/vango-dev/statekit/pkg/reactive"
	"github.com/vango-dev/statekit/pkg/store"
)

// Theme is the UI color scheme.
type Theme string

// Themes.
const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
	ThemeAuto  Theme = "auto"
)

// Language is the UI language.
type Language string

// Languages.
const (
	LanguagePL Language = "pl"
	LanguageEN Language = "en"
	LanguageDE Language = "de"
)

// Defaults applied by ResetSettings.
const (
	DefaultTheme    = ThemeLight
	DefaultLanguage = LanguagePL
)

// Themes and Languages list the accepted values.
var (
	Themes    = []Theme{ThemeLight, ThemeDark, ThemeAuto}
	Languages = []Language{LanguagePL, LanguageEN, LanguageDE}
)

// Preferences is the pair of user settings.
type Preferences struct {
	Theme    Theme    `json:"theme"`
	Language Language `json:"language"`
}

// SettingsStore holds the persisted theme and language.
type SettingsStore struct {
	*store.Base

	doc      document.Document
	cache    kvcache.Cache
	theme    *persist.Field[Theme]
	language *persist.Field[Language]

	isDarkMode  *reactive.Memo[bool]
	allSettings *reactive.Memo[Preferences]
}

// Settings is the settings store definition.
var Settings = store.Define("settings", newSettings)

func newSettings(s *store.Scope) *SettingsStore {
	logger := persist.WithLogger(s.Logger())
	st := &SettingsStore{
		Base:     store.NewBase(s),
		doc:      s.Document(),
		cache:    s.Cache(),
		theme:    persist.NewField(s.Cache(), KeyTheme, DefaultTheme, persist.StringCodec(Themes...), logger),
		language: persist.NewField(s.Cache(), KeyLanguage, DefaultLanguage, persist.StringCodec(Languages...), logger),
	}

	st.isDarkMode = reactive.NewMemo(func() bool {
		return st.theme.Get() == ThemeDark
	}, st.theme.Signal())

	st.allSettings = reactive.NewMemo(func() Preferences {
		return Preferences{Theme: st.theme.Get(), Language: st.language.Get()}
	}, st.theme.Signal(), st.language.Signal())

	st.Handle("setTheme", store.Payload(func(_ context.Context, req struct {
		Theme Theme `json:"theme"`
	}) error {
		return st.SetTheme(req.Theme)
	}))
	st.Handle("setLanguage", store.Payload(func(_ context.Context, req struct {
		Language Language `json:"language"`
	}) error {
		return st.SetLanguage(req.Language)
	}))
	st.Handle("toggleTheme", store.NoPayloadErr(func(context.Context) error {
		return st.ToggleTheme()
	}))
	st.Handle("loadSettings", store.NoPayload(st.LoadSettings))
	st.Handle("resetSettings", store.NoPayloadErr(func(context.Context) error {
		return st.ResetSettings()
	}))

	st.load()
	return st
}

// CurrentTheme returns the active theme.
func (st *SettingsStore) CurrentTheme() Theme { return st.theme.Get() }

// CurrentLanguage returns the active language.
func (st *SettingsStore) CurrentLanguage() Language { return st.language.Get() }

// IsDarkMode reports whether the theme is dark.
func (st *SettingsStore) IsDarkMode() bool { return st.isDarkMode.Get() }

// AllSettings returns both settings.
func (st *SettingsStore) AllSettings() Preferences { return st.allSettings.Get() }

// SetTheme applies t, stores it and updates the document. A theme outside
// Themes is rejected and nothing changes. If only the cache write fails,
// the theme is still applied and the error is returned.
func (st *SettingsStore) SetTheme(t Theme) error {
	return st.Act("setTheme", func() error { return st.setTheme(t) })
}

// SetLanguage is SetTheme for the language.
func (st *SettingsStore) SetLanguage(l Language) error {
	return st.Act("setLanguage", func() error { return st.setLanguage(l) })
}

// ToggleTheme switches light to dark and anything else to light.
func (st *SettingsStore) ToggleTheme() error {
	return st.Act("toggleTheme", func() error {
		next := ThemeLight
		if st.theme.Get() == ThemeLight {
			next = ThemeDark
		}
		return st.setTheme(next)
	})
}

// LoadSettings adopts valid cached values and applies them to the
// document. Missing or invalid values keep the current settings. It runs
// once when the store is constructed.
func (st *SettingsStore) LoadSettings() {
	st.Do("loadSettings", st.load)
}

func (st *SettingsStore) load() {
	ctx := st.Owner().Context()
	if st.theme.Load(ctx) {
		st.doc.SetAttribute(document.AttrTheme, string(st.theme.Get()))
	}
	if st.language.Load(ctx) {
		st.doc.SetAttribute(document.AttrLanguage, string(st.language.Get()))
	}
}

// ResetSettings applies the defaults through the setters.
func (st *SettingsStore) ResetSettings() error {
	return st.Act("resetSettings", func() error {
		return errors.Join(st.setTheme(DefaultTheme), st.setLanguage(DefaultLanguage))
	})
}

// WatchCache reloads the settings whenever another writer changes them,
// if the cache reports changes. It blocks until ctx is done or the store
// is disposed.
func (st *SettingsStore) WatchCache(ctx context.Context) error {
	w, ok := st.cache.(kvcache.Watcher)
	if !ok {
		return fmt.Errorf("settings: cache %T does not report changes", st.cache)
	}

	// Watchers may run inside our own setters, under the store lock.
	reload := make(chan struct{}, 1)
	err := w.Watch(ctx, func(key string) {
		if key != KeyTheme && key != KeyLanguage {
			return
		}
		select {
		case reload <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-st.Owner().Context().Done():
			return nil
		case <-reload:
			st.LoadSettings()
		}
	}
}

func (st *SettingsStore) setTheme(t Theme) error {
	err := st.theme.Set(st.Owner().Context(), t)
	if errors.Is(err, persist.ErrInvalid) {
		return fmt.Errorf("settings: unknown theme %q", t)
	}
	st.doc.SetAttribute(document.AttrTheme, string(t))
	return err
}

func (st *SettingsStore) setLanguage(l Language) error {
	err := st.language.Set(st.Owner().Context(), l)
	if errors.Is(err, persist.ErrInvalid) {
		return fmt.Errorf("settings: unknown language %q", l)
	}
	st.doc.SetAttribute(document.AttrLanguage, string(l))
	return err
}

// Snapshot implements store.Snapshotter.
func (st *SettingsStore) Snapshot() any {
	var snap struct {
		Preferences
		IsDarkMode bool `json:"isDarkMode"`
	}
	st.Read(func() {
		snap.Preferences = st.allSettings.Get()
		snap.IsDarkMode = st.isDarkMode.Get()
	})
	return snap
}
