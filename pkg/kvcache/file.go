package kvcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileCache stores all entries in a single JSON object file.
//
// Writes replace the file atomically (temp file + rename), so a reader in
// another process never observes a half-written file. The in-memory view
// is refreshed from disk whenever a watched change is observed.
type FileCache struct {
	path   string
	logger *slog.Logger

	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

// FileCacheOption configures FileCache behavior.
type FileCacheOption func(*fileCacheConfig)

type fileCacheConfig struct {
	logger *slog.Logger
}

// WithFileLogger sets the logger used to report watch failures.
func WithFileLogger(logger *slog.Logger) FileCacheOption {
	return func(c *fileCacheConfig) {
		c.logger = logger
	}
}

// NewFileCache opens (or creates on first write) the cache file at path.
// A missing file is an empty cache; a malformed file is an error.
func NewFileCache(path string, opts ...FileCacheOption) (*FileCache, error) {
	cfg := &fileCacheConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("kvcache: create cache directory: %w", err)
	}

	data, err := readFileMap(path)
	if err != nil {
		return nil, err
	}

	return &FileCache{
		path:   path,
		logger: cfg.logger,
		data:   data,
	}, nil
}

// Path returns the backing file path.
func (f *FileCache) Path() string {
	return f.path
}

// Get returns the value stored under key.
func (f *FileCache) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return "", false, ErrClosed
	}
	v, ok := f.data[key]
	return v, ok, nil
}

// Set stores value under key and rewrites the file.
func (f *FileCache) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}

	next := cloneMap(f.data)
	next[key] = value
	if err := writeFileMap(f.path, next); err != nil {
		return err
	}
	f.data = next
	return nil
}

// Remove deletes key and rewrites the file.
func (f *FileCache) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	if _, ok := f.data[key]; !ok {
		return nil
	}

	next := cloneMap(f.data)
	delete(next, key)
	if err := writeFileMap(f.path, next); err != nil {
		return err
	}
	f.data = next
	return nil
}

// Reload re-reads the file and returns the keys whose values changed.
func (f *FileCache) Reload() ([]string, error) {
	fresh, err := readFileMap(f.path)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}
	changed := diffKeys(f.data, fresh)
	f.data = fresh
	return changed, nil
}

// Watch observes the cache file with fsnotify and calls fn for every key
// changed by another writer. It returns once the watcher is running; the
// watch stops when ctx is done.
func (f *FileCache) Watch(ctx context.Context, fn func(key string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("kvcache: create watcher: %w", err)
	}

	// Watch the directory: atomic renames replace the file's inode.
	if err := watcher.Add(filepath.Dir(f.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("kvcache: watch %s: %w", filepath.Dir(f.path), err)
	}

	target := filepath.Clean(f.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				changed, err := f.Reload()
				if err != nil {
					if !errors.Is(err, ErrClosed) {
						f.logger.Warn("kvcache: reload after change failed", "path", f.path, "error", err)
					}
					continue
				}
				for _, key := range changed {
					fn(key)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				f.logger.Warn("kvcache: watcher error", "path", f.path, "error", err)
			}
		}
	}()

	return nil
}

// Close marks the cache closed. The file is left in place.
func (f *FileCache) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func readFileMap(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("kvcache: read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return make(map[string]string), nil
	}

	data := make(map[string]string)
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("kvcache: parse %s: %w", path, err)
	}
	return data, nil
}

func writeFileMap(path string, data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("kvcache: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".kvcache-*")
	if err != nil {
		return fmt.Errorf("kvcache: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("kvcache: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("kvcache: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("kvcache: replace %s: %w", path, err)
	}
	return nil
}

func cloneMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

// diffKeys returns keys added, removed or modified between old and fresh.
func diffKeys(old, fresh map[string]string) []string {
	var changed []string
	for k, v := range fresh {
		if ov, ok := old[k]; !ok || ov != v {
			changed = append(changed, k)
		}
	}
	for k := range old {
		if _, ok := fresh[k]; !ok {
			changed = append(changed, k)
		}
	}
	return changed
}

var (
	_ Cache   = (*FileCache)(nil)
	_ Watcher = (*FileCache)(nil)
)
