package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/statekit/pkg/document"
	"github.com/vango-dev/statekit/pkg/kvcache"
	"github.com/vango-dev/statekit/pkg/metrics"
	"github.com/vango-dev/statekit/pkg/reactive"
)

type definition struct {
	name  string
	setup func(*Scope) any
}

var (
	catalogMu sync.RWMutex
	catalog   = make(map[string]*definition)
)

// Definition is a declared store. It is safe to share across registries.
type Definition[S any] struct {
	def *definition
}

// Define declares a store named name. setup runs once per registry, on the
// first lookup. Defining the same name twice panics.
func Define[S any](name string, setup func(s *Scope) S) *Definition[S] {
	def := &definition{
		name:  name,
		setup: func(s *Scope) any { return setup(s) },
	}

	catalogMu.Lock()
	defer catalogMu.Unlock()
	if _, dup := catalog[name]; dup {
		panic(fmt.Sprintf("store: %q defined twice", name))
	}
	catalog[name] = def

	return &Definition[S]{def: def}
}

// Name returns the store name.
func (d *Definition[S]) Name() string {
	return d.def.name
}

// Use returns the store instance for s, constructing it on first use.
func (d *Definition[S]) Use(s Services) S {
	return s.resolve(d.def).(S)
}

// Scope is passed to setup functions. It gives access to the registry's
// collaborators and resolves other stores.
type Scope struct {
	registry *Registry
	name     string
	stack    []string
	owner    *reactive.Owner
	logger   *slog.Logger
	done     atomic.Bool
}

// Name returns the name of the store being constructed.
func (s *Scope) Name() string { return s.name }

// Owner returns the store's lifetime owner.
func (s *Scope) Owner() *reactive.Owner { return s.owner }

// Context returns a context cancelled when the store is disposed.
func (s *Scope) Context() context.Context { return s.owner.Context() }

// Cache returns the registry cache.
func (s *Scope) Cache() kvcache.Cache { return s.registry.cache }

// Document returns the registry document.
func (s *Scope) Document() document.Document { return s.registry.doc }

// Logger returns a logger tagged with the store name.
func (s *Scope) Logger() *slog.Logger { return s.logger }

// Metrics returns the metrics sink, which may be nil.
func (s *Scope) Metrics() *metrics.Metrics { return s.registry.metrics }

// Tracer returns the registry tracer.
func (s *Scope) Tracer() trace.Tracer { return s.registry.tracer }

// Chain returns the lookup chain that led to this setup, outermost first.
func (s *Scope) Chain() []string { return slices.Clone(s.stack) }

func (s *Scope) value(key any) (any, bool) {
	return s.registry.value(key)
}

func (s *Scope) resolve(def *definition) any {
	if s.done.Load() {
		return s.registry.resolve(def)
	}
	return s.registry.construct(def, s.stack)
}
