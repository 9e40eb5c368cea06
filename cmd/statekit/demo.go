package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/vango-dev/statekit/pkg/auth"
	"github.com/vango-dev/statekit/pkg/document"
	"github.com/vango-dev/statekit/pkg/kvcache"
	"github.com/vango-dev/statekit/pkg/store"
	"github.com/vango-dev/statekit/pkg/stores"
)

var (
	stepStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")).MarginTop(1)
	boxStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func demoCmd() *cobra.Command {
	var (
		latency bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk through every store in memory",
		Long: `Run a scripted session against an in-memory cache and print the state
of each store after every step. Nothing is persisted.

Examples:
  statekit demo
  statekit demo --latency   # keep the mock network delays`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runDemo(ctx, os.Stdout, latency, verbose)
		},
	}

	cmd.Flags().BoolVar(&latency, "latency", false, "Keep the simulated network delays")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every action")

	return cmd
}

func runDemo(ctx context.Context, w io.Writer, latency, verbose bool) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	opts := []store.Option{
		store.WithCache(kvcache.NewMemoryCache()),
		store.WithDocument(document.NewMemory()),
		store.WithLogger(logger),
	}
	if !latency {
		opts = append(opts,
			stores.WithAuthenticator(auth.NewMock(auth.WithLatency(0))),
			stores.WithFetchDelay(0),
			stores.WithDismissAfter(time.Hour),
		)
	}
	r := store.NewRegistry(opts...)
	defer r.Close()

	show := func(title, name string) error {
		snap, err := r.Snapshot(name)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, stepStyle.Render("▸ "+title))
		fmt.Fprintln(w, boxStyle.Render(string(data)))
		return nil
	}

	counter := stores.Counter.Use(r)
	counter.Increment()
	counter.IncrementBy(4)
	counter.Decrement()
	if err := show("counter: +1, +4, -1", "counter"); err != nil {
		return err
	}

	user := stores.User.Use(r)
	user.SetName("Ada")
	user.Login()
	if err := show("user: setName(Ada), login", "user"); err != nil {
		return err
	}

	a := stores.Auth.Use(r)
	err := a.Login(ctx, auth.Credentials{Username: "admin", Password: "wrong"})
	fmt.Fprintln(w, mutedStyle.Render("  login(admin, wrong): "+fmt.Sprint(err)))
	if err := a.Login(ctx, auth.Credentials{Username: auth.MockUsername, Password: auth.MockPassword}); err != nil {
		return err
	}
	if err := show("auth: login(admin, password)", "auth"); err != nil {
		return err
	}

	products := stores.Products.Use(r)
	if err := products.FetchProducts(ctx); err != nil {
		return err
	}
	if _, err := products.AddProduct(stores.NewProduct{Name: "Headphones", Price: 299.99}); err != nil {
		return err
	}
	if err := show("products: fetch, add Headphones", "products"); err != nil {
		return err
	}

	cart := stores.Cart.Use(r)
	cart.AddToCart(1, 1)
	cart.AddToCart(3, 2)
	cart.AddToCart(3, 1)
	cart.AddToCart(404, 1)
	if err := show("cart: laptop x1, headphones x2 then x1, unknown product", "cart"); err != nil {
		return err
	}

	notes := stores.Notifications.Use(r)
	notes.Success("Order placed")
	notes.Error("Payment declined")
	if err := show("notifications: success, error", "notifications"); err != nil {
		return err
	}

	settings := stores.Settings.Use(r)
	if err := settings.ToggleTheme(); err != nil {
		return err
	}
	if err := settings.SetLanguage(stores.LanguageEN); err != nil {
		return err
	}
	if err := show("settings: toggle theme, language en", "settings"); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, successStyle.Render("✓"), user.UserCounterMessage())
	return nil
}
