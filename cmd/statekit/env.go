package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	"github.com/vango-dev/statekit/internal/config"
	"github.com/vango-dev/statekit/internal/errors"
	"github.com/vango-dev/statekit/pkg/auth"
	"github.com/vango-dev/statekit/pkg/document"
	"github.com/vango-dev/statekit/pkg/kvcache"
	"github.com/vango-dev/statekit/pkg/metrics"
	"github.com/vango-dev/statekit/pkg/store"
	"github.com/vango-dev/statekit/pkg/stores"
)

// environment builds the pieces every command needs from statekit.yaml.
type environment struct {
	configPath *string
}

// session is an open registry and what it was built from.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	doc      *document.Memory
	registry *store.Registry
}

func (e *environment) config() (*config.Config, error) {
	if *e.configPath != "" {
		return config.Load(*e.configPath)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.LoadFromDir(wd)
}

// open loads the configuration and opens the cache and registry.
// The caller closes the registry, which closes the cache.
func (e *environment) open(ctx context.Context) (*session, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Log)
	m := metrics.New(metrics.WithRegistry(prometheus.NewRegistry()))

	cache, err := openCache(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	cache = kvcache.Instrument(kvcache.Prefixed(cache, cfg.Cache.Prefix), m, logger)

	authenticator, err := newAuthenticator(cfg.Auth)
	if err != nil {
		cache.Close()
		return nil, err
	}

	doc := document.NewMemory()
	registry := store.NewRegistry(
		store.WithCache(cache),
		store.WithDocument(document.Logged(doc, logger)),
		store.WithLogger(logger),
		store.WithMetrics(m),
		stores.WithAuthenticator(authenticator),
		stores.WithFetchDelay(cfg.Products.FetchDelay),
		stores.WithDismissAfter(cfg.Notifications.DismissAfter),
	)

	return &session{
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
		doc:      doc,
		registry: registry,
	}, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	_ = level.UnmarshalText([]byte(cfg.Level))

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (kvcache.Cache, error) {
	c := cfg.Cache
	var (
		cache kvcache.Cache
		err   error
	)

	switch c.Backend {
	case config.BackendMemory:
		cache = kvcache.NewMemoryCache()

	case config.BackendFile:
		cache, err = kvcache.NewFileCache(cfg.CachePath(), kvcache.WithFileLogger(logger))

	case config.BackendBadger:
		cache, err = kvcache.OpenBadger(kvcache.BadgerConfig{
			Path:       cfg.CachePath(),
			SyncWrites: c.SyncWrites,
			Logger:     logger,
		})

	case config.BackendSQLite:
		cache, err = openSQL(ctx, "sqlite", cfg.CachePath(), kvcache.DialectSQLite, c.Table)

	case config.BackendPostgres:
		cache, err = openSQL(ctx, c.Driver, c.DSN, kvcache.DialectPostgreSQL, c.Table)

	case config.BackendS3:
		client := kvcache.NewS3Client(c.S3.Region, c.S3.Endpoint, c.S3.AccessKey, c.S3.SecretKey)
		cache = kvcache.NewS3Cache(client, c.S3.Bucket)

	default:
		err = fmt.Errorf("unknown backend %q", c.Backend)
	}

	if err != nil {
		return nil, errors.New("S200").
			WithSuggestion(fmt.Sprintf("Check cache.backend (%s) and its settings in %s", c.Backend, config.ConfigFileName)).
			Wrap(err)
	}
	return cache, nil
}

// sqlCache closes the database it was opened with.
type sqlCache struct {
	*kvcache.SQLCache
	db *sql.DB
}

func (c sqlCache) Close() error {
	c.SQLCache.Close()
	return c.db.Close()
}

func openSQL(ctx context.Context, driver, dsn string, dialect kvcache.SQLDialect, table string) (kvcache.Cache, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if dialect == kvcache.DialectSQLite {
		// A single connection keeps writes serialized.
		db.SetMaxOpenConns(1)
	}

	cache, err := kvcache.NewSQLCache(ctx, db, kvcache.WithSQLDialect(dialect), kvcache.WithSQLTable(table))
	if err != nil {
		db.Close()
		return nil, err
	}
	return sqlCache{SQLCache: cache, db: db}, nil
}

func newAuthenticator(cfg config.AuthConfig) (auth.Authenticator, error) {
	if cfg.Mode == config.AuthJWT {
		j, err := auth.NewJWT([]byte(cfg.Secret), cfg.Users, auth.WithTTL(cfg.TTL))
		if err != nil {
			return nil, errors.New("S301").Wrap(err)
		}
		return j, nil
	}
	return auth.NewMock(auth.WithLatency(cfg.Latency)), nil
}
