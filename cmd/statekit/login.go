package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	clierrors "github.com/vango-dev/statekit/internal/errors"
	"github.com/vango-dev/statekit/pkg/auth"
	"github.com/vango-dev/statekit/pkg/stores"
)

func loginCmd(env *environment) *cobra.Command {
	var (
		username string
		password string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token",
		Long: `Authenticate against the configured backend and store the token in
the cache. The mock backend accepts admin/password.

The password is read from STATEKIT_PASSWORD when --password is not set.

Examples:
  statekit login --username admin --password password
  STATEKIT_PASSWORD=password statekit login -u admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("STATEKIT_PASSWORD")
			}
			return runLogin(cmd.Context(), env, auth.Credentials{Username: username, Password: password})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password")

	return cmd
}

func runLogin(ctx context.Context, env *environment, creds auth.Credentials) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := env.open(ctx)
	if err != nil {
		return err
	}
	defer s.registry.Close()

	a := stores.Auth.Use(s.registry)
	info("authenticating %s...", creds.Username)
	if err := a.Login(ctx, creds); err != nil {
		var ae *auth.Error
		if errors.As(err, &ae) {
			return clierrors.New("S300").
				WithDetail(ae.Message).
				WithSuggestion("The mock backend accepts admin/password")
		}
		return err
	}

	token, _ := a.Token()
	success("Logged in")
	field("token", abbreviate(token))
	return nil
}

func logoutCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s, err := env.open(ctx)
			if err != nil {
				return err
			}
			defer s.registry.Close()

			a := stores.Auth.Use(s.registry)
			if !a.RestoreAuth(ctx) {
				warn("Not logged in")
			}
			a.Logout()
			success("Logged out")
			return nil
		},
	}
}

// abbreviate shortens long tokens for display.
func abbreviate(token string) string {
	if len(token) <= 24 {
		return token
	}
	return fmt.Sprintf("%s…%s", token[:12], token[len(token)-8:])
}
