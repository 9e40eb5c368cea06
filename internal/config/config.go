package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/statekit/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "statekit.yaml"

	// DefaultCachePath is the file cache location, relative to the
	// configuration directory.
	DefaultCachePath = ".statekit/cache.json"

	// DefaultInspectAddr is the inspector listen address.
	DefaultInspectAddr = "127.0.0.1:7070"
)

// Cache backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendBadger   = "badger"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Auth modes.
const (
	AuthMock = "mock"
	AuthJWT  = "jwt"
)

// Backends lists the accepted cache backends.
var Backends = []string{BackendMemory, BackendFile, BackendBadger, BackendSQLite, BackendPostgres, BackendS3}

// Config represents statekit.yaml.
type Config struct {
	Log           LogConfig           `yaml:"log"`
	Cache         CacheConfig         `yaml:"cache"`
	Auth          AuthConfig          `yaml:"auth"`
	Products      ProductsConfig      `yaml:"products"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Inspect       InspectConfig       `yaml:"inspect"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig configures the slog handler.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is text or json.
	Format string `yaml:"format"`
}

// CacheConfig selects and configures the key-value cache.
type CacheConfig struct {
	// Backend is one of Backends.
	Backend string `yaml:"backend"`

	// Path is the file, badger directory or sqlite database.
	// Relative paths are resolved against the configuration directory.
	Path string `yaml:"path"`

	// Prefix is prepended to every key.
	Prefix string `yaml:"prefix"`

	// SyncWrites makes badger fsync every write.
	SyncWrites bool `yaml:"syncWrites"`

	// Table is the SQL table name.
	Table string `yaml:"table"`

	// DSN is the postgres connection string.
	DSN string `yaml:"dsn"`

	// Driver is the database/sql driver name used for postgres.
	// The binary must be built with that driver registered.
	Driver string `yaml:"driver"`

	// S3 configures the s3 backend.
	S3 S3Config `yaml:"s3"`
}

// S3Config configures the S3 cache backend.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

// AuthConfig selects the authentication backend.
type AuthConfig struct {
	// Mode is mock or jwt.
	Mode string `yaml:"mode"`

	// Latency is the mock backend's simulated delay.
	Latency time.Duration `yaml:"latency"`

	// Secret signs JWT tokens.
	Secret string `yaml:"secret"`

	// TTL is the JWT token lifetime.
	TTL time.Duration `yaml:"ttl"`

	// Users maps usernames to passwords for the jwt backend.
	Users map[string]string `yaml:"users"`
}

// ProductsConfig configures the products store.
type ProductsConfig struct {
	FetchDelay time.Duration `yaml:"fetchDelay"`
}

// NotificationsConfig configures the notifications store.
type NotificationsConfig struct {
	DismissAfter time.Duration `yaml:"dismissAfter"`
}

// InspectConfig configures the HTTP inspector.
type InspectConfig struct {
	Addr string `yaml:"addr"`

	// RateLimit limits action requests per second. Zero disables it.
	RateLimit float64 `yaml:"rateLimit"`

	Burst int `yaml:"burst"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			Backend: BackendFile,
			Path:    DefaultCachePath,
			Table:   "statekit_cache",
			Driver:  "pgx",
		},
		Auth: AuthConfig{
			Mode:    AuthMock,
			Latency: time.Second,
			TTL:     time.Hour,
		},
		Products:      ProductsConfig{FetchDelay: 500 * time.Millisecond},
		Notifications: NotificationsConfig{DismissAfter: 5 * time.Second},
		Inspect: InspectConfig{
			Addr:      DefaultInspectAddr,
			RateLimit: 20,
			Burst:     40,
		},
	}
}

// LoadFromDir reads statekit.yaml from dir. A missing file yields the
// defaults.
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	cfg, err := Load(path)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) && e.Code == "S100" {
			cfg = Default()
			cfg.configPath = path
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the specified file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S100").
				WithDetail("No " + ConfigFileName + " found at " + path).
				WithSuggestion("Create the file or omit --config to use the defaults")
		}
		return nil, errors.New("S102").Wrap(err)
	}

	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes and validates a configuration. Absent fields keep their
// defaults.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return nil, errors.New("S102").
			WithSuggestion("Check the field names and that durations look like 500ms or 5s").
			Wrap(err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// CachePath returns the cache path resolved against the configuration
// directory.
func (c *Config) CachePath() string {
	if c.Cache.Path == "" || filepath.IsAbs(c.Cache.Path) {
		return c.Cache.Path
	}
	return filepath.Join(c.Dir(), c.Cache.Path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return invalid("log.level", c.Log.Level, "debug, info, warn, error")
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format", c.Log.Format, "text, json")
	}

	if !slices.Contains(Backends, c.Cache.Backend) {
		return invalid("cache.backend", c.Cache.Backend, strings.Join(Backends, ", "))
	}
	switch c.Cache.Backend {
	case BackendFile, BackendBadger, BackendSQLite:
		if c.Cache.Path == "" {
			return required("cache.path", "the "+c.Cache.Backend+" backend")
		}
	case BackendPostgres:
		if c.Cache.DSN == "" {
			return required("cache.dsn", "the postgres backend")
		}
	case BackendS3:
		if c.Cache.S3.Bucket == "" {
			return required("cache.s3.bucket", "the s3 backend")
		}
	}

	switch c.Auth.Mode {
	case AuthMock:
	case AuthJWT:
		if len(c.Auth.Secret) < 16 {
			return errors.New("S301").
				WithSuggestion("Set auth.secret to a random string of 16 or more characters")
		}
		if len(c.Auth.Users) == 0 {
			return errors.New("S301").
				WithSuggestion("Add at least one entry under auth.users")
		}
	default:
		return invalid("auth.mode", c.Auth.Mode, "mock, jwt")
	}

	for name, d := range map[string]time.Duration{
		"auth.latency":               c.Auth.Latency,
		"auth.ttl":                   c.Auth.TTL,
		"products.fetchDelay":        c.Products.FetchDelay,
		"notifications.dismissAfter": c.Notifications.DismissAfter,
	} {
		if d < 0 {
			return invalid(name, d.String(), "a non-negative duration")
		}
	}

	if c.Inspect.RateLimit < 0 {
		return invalid("inspect.rateLimit", fmt.Sprint(c.Inspect.RateLimit), "a non-negative number")
	}
	if c.Inspect.Burst < 0 {
		return invalid("inspect.burst", fmt.Sprint(c.Inspect.Burst), "a non-negative number")
	}
	return nil
}

func invalid(field, got, allowed string) error {
	return errors.New("S101").
		WithDetail(fmt.Sprintf("%s is %q; allowed: %s", field, got, allowed))
}

func required(field, what string) error {
	return errors.New("S101").
		WithDetail(field + " is required for " + what)
}
