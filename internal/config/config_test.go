package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/statekit/internal/errors"
)

func code(t *testing.T, err error) string {
	t.Helper()
	var e *errors.Error
	require.True(t, stderrors.As(err, &e), "not a structured error: %v", err)
	return e.Code
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, BackendFile, cfg.Cache.Backend)
	assert.Equal(t, AuthMock, cfg.Auth.Mode)
	assert.Equal(t, time.Second, cfg.Auth.Latency)
	assert.Equal(t, 500*time.Millisecond, cfg.Products.FetchDelay)
	assert.Equal(t, 5*time.Second, cfg.Notifications.DismissAfter)
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
cache:
  backend: memory
auth:
  latency: 0s
`))
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, "statekit_cache", cfg.Cache.Table)
	assert.Zero(t, cfg.Auth.Latency)
	assert.Equal(t, time.Hour, cfg.Auth.TTL)
	assert.Equal(t, DefaultInspectAddr, cfg.Inspect.Addr)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default().Cache, cfg.Cache)
}

func TestParseFull(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
log:
  level: debug
  format: json
cache:
  backend: s3
  prefix: demo/
  s3:
    bucket: state
    region: eu-central-1
    endpoint: http://localhost:9000
auth:
  mode: jwt
  secret: 0123456789abcdef
  ttl: 15m
  users:
    admin: password
products:
  fetchDelay: 50ms
notifications:
  dismissAfter: 2s
inspect:
  addr: :8080
  rateLimit: 5
  burst: 10
`))
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "state", cfg.Cache.S3.Bucket)
	assert.Equal(t, "demo/", cfg.Cache.Prefix)
	assert.Equal(t, 15*time.Minute, cfg.Auth.TTL)
	assert.Equal(t, map[string]string{"admin": "password"}, cfg.Auth.Users)
	assert.Equal(t, 50*time.Millisecond, cfg.Products.FetchDelay)
	assert.Equal(t, 2*time.Second, cfg.Notifications.DismissAfter)
	assert.Equal(t, ":8080", cfg.Inspect.Addr)
	assert.Equal(t, 5.0, cfg.Inspect.RateLimit)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse(strings.NewReader("cache:\n  backnd: file\n"))
	require.Error(t, err)
	assert.Equal(t, "S102", code(t, err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "S101"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "S101"},
		{"backend", func(c *Config) { c.Cache.Backend = "redis" }, "S101"},
		{"file path", func(c *Config) { c.Cache.Path = "" }, "S101"},
		{"postgres dsn", func(c *Config) { c.Cache.Backend = BackendPostgres }, "S101"},
		{"s3 bucket", func(c *Config) { c.Cache.Backend = BackendS3 }, "S101"},
		{"auth mode", func(c *Config) { c.Auth.Mode = "ldap" }, "S101"},
		{"jwt secret", func(c *Config) {
			c.Auth.Mode = AuthJWT
			c.Auth.Secret = "short"
			c.Auth.Users = map[string]string{"a": "b"}
		}, "S301"},
		{"jwt users", func(c *Config) {
			c.Auth.Mode = AuthJWT
			c.Auth.Secret = "0123456789abcdef"
		}, "S301"},
		{"negative delay", func(c *Config) { c.Products.FetchDelay = -time.Second }, "S101"},
		{"negative rate", func(c *Config) { c.Inspect.RateLimit = -1 }, "S101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.want, code(t, err))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  backend: badger\n  path: data/badger\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, dir, cfg.Dir())
	assert.Equal(t, filepath.Join(dir, "data/badger"), cfg.CachePath())
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, "S100", code(t, err))
}

func TestLoadFromDirFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, Default().Cache.Backend, cfg.Cache.Backend)
	assert.Equal(t, filepath.Join(dir, DefaultCachePath), cfg.CachePath())
}

func TestLoadFromDirReportsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("log:\n  level: loud\n"), 0o644))

	_, err := LoadFromDir(dir)
	require.Error(t, err)
	assert.Equal(t, "S101", code(t, err))
}

func TestCachePathAbsolute(t *testing.T) {
	cfg := Default()
	abs := filepath.Join(t.TempDir(), "cache.json")
	cfg.Cache.Path = abs
	assert.Equal(t, abs, cfg.CachePath())
}
