package store

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/statekit/pkg/document"
	"github.com/vango-dev/statekit/pkg/kvcache"
	"github.com/vango-dev/statekit/pkg/metrics"
	"github.com/vango-dev/statekit/pkg/reactive"
)

const tracerName = "github.com/vango-dev/statekit/pkg/store"

// Services is what setup functions and callers resolve stores and
// dependencies through. It is implemented by *Registry and *Scope.
type Services interface {
	value(key any) (any, bool)
	resolve(def *definition) any
}

// Change describes a completed action.
type Change struct {
	// Store is the store name. Empty for a registry reset.
	Store string

	// Action is the action name, or "reset".
	Action string

	// Err is the error the action returned, if any.
	Err error

	// Pending is true for intermediate steps of an async action.
	Pending bool

	// At is when the change completed.
	At time.Time
}

// Option configures a Registry.
type Option func(*registryConfig)

type registryConfig struct {
	cache   kvcache.Cache
	doc     document.Document
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	values  map[any]any
}

// WithCache sets the cache persisted fields are stored in.
// Default: a new kvcache.MemoryCache.
func WithCache(cache kvcache.Cache) Option {
	return func(c *registryConfig) {
		c.cache = cache
	}
}

// WithDocument sets the UI environment settings are applied to.
// Default: document.Nop.
func WithDocument(doc document.Document) Option {
	return func(c *registryConfig) {
		c.doc = doc
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics sink. Default: nil (no metrics).
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *registryConfig) {
		c.metrics = m
	}
}

// WithTracer sets the tracer used for async actions.
// Default: the global OpenTelemetry tracer provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *registryConfig) {
		c.tracer = tracer
	}
}

// WithValue stores an untyped dependency. Prefer Provide with a Key.
func WithValue(key, value any) Option {
	return func(c *registryConfig) {
		c.values[key] = value
	}
}

// Registry holds the stores of one session.
type Registry struct {
	cache   kvcache.Cache
	doc     document.Document
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	values  map[any]any

	// buildMu serializes store construction and reset.
	buildMu sync.Mutex

	mu      sync.Mutex
	owner   *reactive.Owner
	entries map[string]*entry
	order   []string
	closed  bool

	listenersMu  sync.RWMutex
	listeners    map[uint64]func(Change)
	nextListener uint64
}

type entry struct {
	instance any
	owner    *reactive.Owner
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	cfg := &registryConfig{values: make(map[any]any)}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.cache == nil {
		cfg.cache = kvcache.NewMemoryCache()
	}
	if cfg.doc == nil {
		cfg.doc = document.Nop{}
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}

	return &Registry{
		cache:     cfg.cache,
		doc:       cfg.doc,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
		tracer:    cfg.tracer,
		values:    cfg.values,
		owner:     reactive.NewOwner(nil),
		entries:   make(map[string]*entry),
		listeners: make(map[uint64]func(Change)),
	}
}

// Cache returns the registry cache.
func (r *Registry) Cache() kvcache.Cache { return r.cache }

// Document returns the registry document.
func (r *Registry) Document() document.Document { return r.doc }

// Logger returns the registry logger.
func (r *Registry) Logger() *slog.Logger { return r.logger }

// Metrics returns the metrics sink, which may be nil.
func (r *Registry) Metrics() *metrics.Metrics { return r.metrics }

// Context returns a context that is cancelled on the next Reset or Close.
func (r *Registry) Context() context.Context {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner.Context()
}

func (r *Registry) value(key any) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

func (r *Registry) resolve(def *definition) any {
	if inst, ok := r.cached(def.name); ok {
		return inst
	}

	r.buildMu.Lock()
	defer r.buildMu.Unlock()
	return r.construct(def, nil)
}

func (r *Registry) cached(name string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[name]
	if !ok {
		return nil, false
	}
	return e.instance, true
}

// construct builds def. Caller holds buildMu.
func (r *Registry) construct(def *definition, stack []string) any {
	if slices.Contains(stack, def.name) {
		chain := append(slices.Clone(stack), def.name)
		panic(fmt.Sprintf("store: %q looked itself up during setup (%v)", def.name, chain))
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		panic(ErrRegistryClosed)
	}
	if e, ok := r.entries[def.name]; ok {
		r.mu.Unlock()
		return e.instance
	}
	owner := reactive.NewOwner(r.owner)
	r.mu.Unlock()

	scope := &Scope{
		registry: r,
		name:     def.name,
		stack:    append(slices.Clone(stack), def.name),
		owner:    owner,
		logger:   r.logger.With("store", def.name),
	}
	instance := def.setup(scope)
	scope.done.Store(true)
	owner.Flush()

	r.mu.Lock()
	r.entries[def.name] = &entry{instance: instance, owner: owner}
	r.order = append(r.order, def.name)
	n := len(r.entries)
	r.mu.Unlock()

	r.metrics.SetStoresActive(n)
	scope.logger.Debug("store constructed")
	return instance
}

// Names returns the names of constructed stores in construction order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// Defined returns the names of every defined store, sorted.
func (r *Registry) Defined() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the store named name, constructing it if needed.
func (r *Registry) Lookup(name string) (any, error) {
	catalogMu.RLock()
	def, ok := catalog[name]
	catalogMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, name)
	}

	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrRegistryClosed
	}
	return r.resolve(def), nil
}

// Snapshot returns the state of the store named name.
func (r *Registry) Snapshot(name string) (any, error) {
	inst, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	s, ok := inst.(Snapshotter)
	if !ok {
		return nil, fmt.Errorf("store: %q has no snapshot", name)
	}
	return s.Snapshot(), nil
}

// OnChange registers fn to be called after every completed action.
// fn runs on the goroutine that ran the action, after the store's lock
// is released. The returned function unregisters fn.
func (r *Registry) OnChange(fn func(Change)) (unsubscribe func()) {
	r.listenersMu.Lock()
	id := r.nextListener
	r.nextListener++
	r.listeners[id] = fn
	r.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.listenersMu.Lock()
			delete(r.listeners, id)
			r.listenersMu.Unlock()
		})
	}
}

func (r *Registry) notify(c Change) {
	r.listenersMu.RLock()
	fns := make([]func(Change), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.listenersMu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

// Reset disposes every store, cancelling their scheduled tasks and
// in-flight async actions. The next lookup constructs fresh instances.
func (r *Registry) Reset() {
	r.buildMu.Lock()
	r.mu.Lock()
	old := r.owner
	r.owner = reactive.NewOwner(nil)
	r.entries = make(map[string]*entry)
	r.order = nil
	r.mu.Unlock()

	old.Dispose()
	r.buildMu.Unlock()

	r.metrics.SetStoresActive(0)
	r.logger.Debug("store registry reset")
	r.notify(Change{Action: "reset", At: time.Now()})
}

// Close resets the registry and closes its cache.
// Lookups on a closed registry fail with ErrRegistryClosed.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	r.Reset()

	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	return r.cache.Close()
}
