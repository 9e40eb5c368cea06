package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vango-dev/statekit/internal/errors"
	"github.com/vango-dev/statekit/pkg/inspect"
	"github.com/vango-dev/statekit/pkg/stores"
)

func serveCmd(env *environment) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the store inspector",
		Long: `Start the HTTP/WebSocket inspector over a registry backed by the
configured cache.

Routes:
  GET  /stores                          constructed stores
  GET  /stores/{name}                   store snapshot
  POST /stores/{name}/actions/{action}  dispatch an action
  GET  /ws                              live changes
  GET  /metrics                         Prometheus metrics

Settings changed by other processes sharing the cache are picked up
when the cache backend reports changes (memory and file).

Examples:
  statekit serve
  statekit serve --addr=:8080
  curl -X POST localhost:7070/stores/counter/actions/increment`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), env, addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (default from statekit.yaml)")

	return cmd
}

func runServe(ctx context.Context, env *environment, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := env.open(ctx)
	if err != nil {
		return err
	}
	defer s.registry.Close()

	if addr == "" {
		addr = s.cfg.Inspect.Addr
	}

	server := inspect.New(inspect.Config{
		Registry:  s.registry,
		Metrics:   s.metrics,
		Logger:    s.logger,
		RateLimit: rate.Limit(s.cfg.Inspect.RateLimit),
		Burst:     s.cfg.Inspect.Burst,
	})

	printBanner()
	success("Inspector on http://%s", addr)
	info("cache: %s", s.cfg.Cache.Backend)

	settings := stores.Settings.Use(s.registry)
	stores.Auth.Use(s.registry).RestoreAuth(ctx)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.ListenAndServe(ctx, addr); err != nil {
			return errors.New("S401").Wrap(err)
		}
		return nil
	})
	g.Go(func() error {
		if err := settings.WatchCache(ctx); err != nil {
			s.logger.Info("settings will not follow external changes", "error", err)
		}
		return nil
	})

	err = g.Wait()
	info("shutting down")
	return err
}
