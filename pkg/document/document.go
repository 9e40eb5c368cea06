// Package document models the UI environment that settings are applied to.
package document

import (
	"log/slog"
	"maps"
	"sync"
)

// Attribute names set by the settings store.
const (
	AttrTheme    = "data-theme"
	AttrLanguage = "lang"
)

// Document receives root element attribute updates.
type Document interface {
	SetAttribute(name, value string)
}

// Memory records attributes in memory.
type Memory struct {
	mu    sync.RWMutex
	attrs map[string]string
}

// NewMemory creates an empty document.
func NewMemory() *Memory {
	return &Memory{attrs: make(map[string]string)}
}

// SetAttribute records value under name.
func (m *Memory) SetAttribute(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attrs[name] = value
}

// Attribute returns the value of name.
func (m *Memory) Attribute(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.attrs[name]
	return v, ok
}

// Attributes returns a copy of all attributes.
func (m *Memory) Attributes() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.attrs)
}

// Nop discards every update.
type Nop struct{}

// SetAttribute does nothing.
func (Nop) SetAttribute(string, string) {}

// Logged wraps doc so each update is also logged at debug level.
func Logged(doc Document, logger *slog.Logger) Document {
	return logged{next: doc, logger: logger}
}

type logged struct {
	next   Document
	logger *slog.Logger
}

func (l logged) SetAttribute(name, value string) {
	l.logger.Debug("document attribute", "name", name, "value", value)
	l.next.SetAttribute(name, value)
}
