package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/statekit/pkg/reactive"
)

// Snapshotter is implemented by stores that can report their state.
// The returned value must be safe to encode as JSON.
type Snapshotter interface {
	Snapshot() any
}

// Base is embedded in every store. It serializes actions on a per-store
// mutex and reports them to the registry.
type Base struct {
	mu       sync.Mutex
	name     string
	registry *Registry
	owner    *reactive.Owner
	logger   *slog.Logger

	actionsMu sync.RWMutex
	actions   map[string]HandlerFunc
}

// NewBase creates the base for the store being constructed in s.
func NewBase(s *Scope) *Base {
	return &Base{
		name:     s.name,
		registry: s.registry,
		owner:    s.owner,
		logger:   s.logger,
		actions:  make(map[string]HandlerFunc),
	}
}

// Name returns the store name.
func (b *Base) Name() string { return b.name }

// Owner returns the store's lifetime owner.
func (b *Base) Owner() *reactive.Owner { return b.owner }

// Logger returns the store logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// Read runs fn while holding the store lock, so that several signals are
// read from the same state.
func (b *Base) Read(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn()
}

// Act runs a synchronous action under the store lock.
func (b *Base) Act(action string, fn func() error) error {
	start := time.Now()
	err := b.locked(fn)
	b.finish(action, start, err)
	return err
}

// Do is Act for actions that cannot fail.
func (b *Base) Do(action string, fn func()) {
	_ = b.Act(action, func() error {
		fn()
		return nil
	})
}

// Async runs a blocking action. fn receives a context that is cancelled
// when ctx is done or the store is disposed, and must take the store lock
// itself (through Step) for the parts that touch state.
func (b *Base) Async(ctx context.Context, action string, fn func(ctx context.Context) error) error {
	start := time.Now()

	ctx, cancel := b.owner.Bind(ctx)
	defer cancel()

	ctx, span := b.registry.tracer.Start(ctx, b.name+"."+action,
		trace.WithAttributes(
			attribute.String("store", b.name),
			attribute.String("action", action),
		),
	)
	defer span.End()

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	b.finish(action, start, err)
	return err
}

// Step applies an intermediate state change of an async action: fn runs
// under the store lock, then effects flush and listeners see a pending
// change.
func (b *Base) Step(action string, fn func()) {
	_ = b.locked(func() error {
		fn()
		return nil
	})
	b.owner.Flush()
	if !b.owner.IsDisposed() {
		b.registry.notify(Change{Store: b.name, Action: action, Pending: true, At: time.Now()})
	}
}

func (b *Base) locked(fn func() error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fn()
}

func (b *Base) finish(action string, start time.Time, err error) {
	elapsed := time.Since(start)
	b.registry.metrics.ObserveAction(b.name, action, err, elapsed)
	if err != nil {
		b.logger.Warn("action failed", "action", action, "error", err)
	} else {
		b.logger.Debug("action", "action", action, "elapsed", elapsed)
	}

	b.owner.Flush()

	// A disposed store belongs to a registry generation that was reset.
	if b.owner.IsDisposed() {
		return
	}
	b.registry.notify(Change{Store: b.name, Action: action, Err: err, At: time.Now()})
}
