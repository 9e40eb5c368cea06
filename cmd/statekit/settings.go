package main

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vango-dev/statekit/internal/errors"
	"github.com/vango-dev/statekit/pkg/document"
	"github.com/vango-dev/statekit/pkg/stores"
)

func settingsCmd(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the persisted settings",
		Long: `Show or change the theme and language stored in the configured cache.

Examples:
  statekit settings get
  statekit settings theme dark
  statekit settings language en
  statekit settings toggle
  statekit settings reset`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the current settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSettings(cmd.Context(), env, func(*stores.SettingsStore) error { return nil })
			},
		},
		&cobra.Command{
			Use:       "theme <light|dark|auto>",
			Short:     "Set the theme",
			Args:      cobra.ExactArgs(1),
			ValidArgs: toStrings(stores.Themes),
			RunE: func(cmd *cobra.Command, args []string) error {
				t := stores.Theme(args[0])
				if !slices.Contains(stores.Themes, t) {
					return unknownValue("theme", args[0], toStrings(stores.Themes))
				}
				return withSettings(cmd.Context(), env, func(st *stores.SettingsStore) error {
					return st.SetTheme(t)
				})
			},
		},
		&cobra.Command{
			Use:       "language <pl|en|de>",
			Short:     "Set the language",
			Args:      cobra.ExactArgs(1),
			ValidArgs: toStrings(stores.Languages),
			RunE: func(cmd *cobra.Command, args []string) error {
				l := stores.Language(args[0])
				if !slices.Contains(stores.Languages, l) {
					return unknownValue("language", args[0], toStrings(stores.Languages))
				}
				return withSettings(cmd.Context(), env, func(st *stores.SettingsStore) error {
					return st.SetLanguage(l)
				})
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Switch between light and dark",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSettings(cmd.Context(), env, (*stores.SettingsStore).ToggleTheme)
			},
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Restore the default settings",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withSettings(cmd.Context(), env, (*stores.SettingsStore).ResetSettings)
			},
		},
	)

	return cmd
}

func withSettings(ctx context.Context, env *environment, fn func(*stores.SettingsStore) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := env.open(ctx)
	if err != nil {
		return err
	}
	defer s.registry.Close()

	st := stores.Settings.Use(s.registry)
	if err := fn(st); err != nil {
		return errors.FromError(err, "S201")
	}

	field("theme", st.CurrentTheme())
	field("language", st.CurrentLanguage())
	if theme, ok := s.doc.Attribute(document.AttrTheme); ok {
		field(document.AttrTheme, theme)
	}
	return nil
}

func unknownValue(what, got string, allowed []string) error {
	return errors.New("S400").
		WithDetail(fmt.Sprintf("Unknown %s %q", what, got)).
		WithSuggestion("Use one of: " + strings.Join(allowed, ", "))
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
