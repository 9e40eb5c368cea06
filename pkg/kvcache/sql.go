package kvcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sync/atomic"
)

// SQLCache is a SQL-backed cache.
// It works with any database/sql compatible driver (SQLite, PostgreSQL).
// The table it uses has the schema:
//
//	CREATE TABLE statekit_cache (
//	    cache_key   VARCHAR(255) PRIMARY KEY,
//	    cache_value TEXT NOT NULL,
//	    updated_at  TIMESTAMP WITH TIME ZONE DEFAULT NOW()
//	);
type SQLCache struct {
	db        *sql.DB
	tableName string
	dialect   SQLDialect
	closed    atomic.Bool
}

// SQLDialect represents the SQL dialect for query generation.
type SQLDialect int

const (
	// DialectSQLite uses SQLite syntax (? placeholders).
	DialectSQLite SQLDialect = iota
	// DialectPostgreSQL uses PostgreSQL syntax ($1, $2 placeholders).
	DialectPostgreSQL
)

// String returns the dialect name as used in configuration.
func (d SQLDialect) String() string {
	switch d {
	case DialectSQLite:
		return "sqlite"
	case DialectPostgreSQL:
		return "postgres"
	default:
		return fmt.Sprintf("SQLDialect(%d)", int(d))
	}
}

// SQLCacheOption configures SQLCache behavior.
type SQLCacheOption func(*sqlCacheConfig)

type sqlCacheConfig struct {
	tableName string
	dialect   SQLDialect
}

// WithSQLTable sets the table name for cache storage.
// Default: "statekit_cache".
func WithSQLTable(name string) SQLCacheOption {
	return func(c *sqlCacheConfig) {
		c.tableName = name
	}
}

// WithSQLDialect sets the SQL dialect for query generation.
// Default: DialectSQLite.
func WithSQLDialect(dialect SQLDialect) SQLCacheOption {
	return func(c *sqlCacheConfig) {
		c.dialect = dialect
	}
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// NewSQLCache creates the cache table if needed and returns a cache over it.
// The database handle is not closed by Close, as it may be shared.
func NewSQLCache(ctx context.Context, db *sql.DB, opts ...SQLCacheOption) (*SQLCache, error) {
	cfg := &sqlCacheConfig{
		tableName: "statekit_cache",
		dialect:   DialectSQLite,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if !tableNamePattern.MatchString(cfg.tableName) {
		return nil, fmt.Errorf("kvcache: invalid table name %q", cfg.tableName)
	}

	c := &SQLCache{
		db:        db,
		tableName: cfg.tableName,
		dialect:   cfg.dialect,
	}
	if err := c.createTable(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// placeholder returns the placeholder syntax for the dialect.
func (c *SQLCache) placeholder(n int) string {
	if c.dialect == DialectPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Get returns the value stored under key.
func (c *SQLCache) Get(ctx context.Context, key string) (string, bool, error) {
	if c.closed.Load() {
		return "", false, ErrClosed
	}

	query := fmt.Sprintf(`SELECT cache_value FROM %s WHERE cache_key = %s`, c.tableName, c.placeholder(1))

	var value string
	err := c.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvcache: sql get %q: %w", key, err)
	}
	return value, true, nil
}

// Set stores value under key.
func (c *SQLCache) Set(ctx context.Context, key, value string) error {
	if c.closed.Load() {
		return ErrClosed
	}

	var query string
	switch c.dialect {
	case DialectPostgreSQL:
		query = fmt.Sprintf(`
			INSERT INTO %s (cache_key, cache_value, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (cache_key) DO UPDATE SET
				cache_value = EXCLUDED.cache_value,
				updated_at = NOW()
		`, c.tableName)
	default:
		query = fmt.Sprintf(`
			INSERT INTO %s (cache_key, cache_value, updated_at)
			VALUES (?, ?, datetime('now'))
			ON CONFLICT (cache_key) DO UPDATE SET
				cache_value = excluded.cache_value,
				updated_at = datetime('now')
		`, c.tableName)
	}

	if _, err := c.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("kvcache: sql set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key.
func (c *SQLCache) Remove(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrClosed
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE cache_key = %s`, c.tableName, c.placeholder(1))
	if _, err := c.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("kvcache: sql remove %q: %w", key, err)
	}
	return nil
}

// Close marks the cache closed.
// Note: This does not close the underlying database connection.
func (c *SQLCache) Close() error {
	c.closed.Store(true)
	return nil
}

func (c *SQLCache) createTable(ctx context.Context) error {
	var query string
	switch c.dialect {
	case DialectPostgreSQL:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key VARCHAR(255) PRIMARY KEY,
				cache_value TEXT NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
			)
		`, c.tableName)
	default:
		query = fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				cache_key TEXT PRIMARY KEY,
				cache_value TEXT NOT NULL,
				updated_at TEXT DEFAULT (datetime('now'))
			)
		`, c.tableName)
	}

	if _, err := c.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("kvcache: create table %s: %w", c.tableName, err)
	}
	return nil
}

var _ Cache = (*SQLCache)(nil)
