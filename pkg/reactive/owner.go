package reactive

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
)

// maxFlushRounds bounds how many times Flush re-drains the pending queue
// when effects schedule further effects.
const maxFlushRounds = 64

// Owner is a lifetime scope for effects, cleanups and scheduled tasks.
// A store gets one Owner. Disposing it stops everything the store started
// and cancels Context, so in-flight actions observe the cancellation.
//
// Owners nest: disposing a parent disposes its children first.
type Owner struct {
	id     uint64
	parent *Owner

	mu       sync.Mutex
	children []*Owner
	effects  []*Effect
	queue    []*Effect
	cleanups []func()
	tasks    map[uint64]*Task

	ctx    context.Context
	cancel context.CancelFunc

	disposed atomic.Bool
}

// NewOwner creates an Owner. A non-nil parent adopts it and its context
// derives from the parent's.
func NewOwner(parent *Owner) *Owner {
	base := context.Background()
	if parent != nil {
		base = parent.ctx
	}
	ctx, cancel := context.WithCancel(base)

	o := &Owner{
		id:     nextID(),
		parent: parent,
		tasks:  make(map[uint64]*Task),
		ctx:    ctx,
		cancel: cancel,
	}
	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, o)
		parent.mu.Unlock()
	}
	return o
}

// ID returns the unique identifier for this Owner.
func (o *Owner) ID() uint64 { return o.id }

// Parent returns the parent Owner, or nil for a root.
func (o *Owner) Parent() *Owner { return o.parent }

// Context is cancelled when the owner is disposed.
func (o *Owner) Context() context.Context { return o.ctx }

// Bind returns a context that is cancelled when either ctx is done or the
// owner is disposed. The returned cancel function must be called.
func (o *Owner) Bind(ctx context.Context) (context.Context, context.CancelFunc) {
	bound, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(o.ctx, cancel)
	return bound, func() {
		stop()
		cancel()
	}
}

// IsDisposed reports whether Dispose has been called.
func (o *Owner) IsDisposed() bool { return o.disposed.Load() }

// OnCleanup registers fn to run on Dispose. Cleanups run in reverse
// registration order. On a disposed owner fn runs immediately.
func (o *Owner) OnCleanup(fn func()) {
	o.mu.Lock()
	if o.disposed.Load() {
		o.mu.Unlock()
		fn()
		return
	}
	o.cleanups = append(o.cleanups, fn)
	o.mu.Unlock()
}

func (o *Owner) registerEffect(e *Effect) {
	o.mu.Lock()
	o.effects = append(o.effects, e)
	o.mu.Unlock()
}

func (o *Owner) scheduleEffect(e *Effect) {
	if o.disposed.Load() {
		return
	}
	o.mu.Lock()
	o.queue = append(o.queue, e)
	o.mu.Unlock()
}

func (o *Owner) snapshotChildren() []*Owner {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.children)
}

// Flush runs the queued effects of this owner and its children.
// Effects queued while flushing run in the same call.
func (o *Owner) Flush() {
	for range maxFlushRounds {
		if !o.drain() {
			return
		}
	}
}

// drain runs the current queue once and reports whether any effect ran.
func (o *Owner) drain() bool {
	if o.disposed.Load() {
		return false
	}

	o.mu.Lock()
	queue := o.queue
	o.queue = nil
	o.mu.Unlock()

	ran := false
	for _, e := range queue {
		if e.pending.Load() {
			e.run()
			ran = true
		}
	}
	for _, child := range o.snapshotChildren() {
		ran = child.drain() || ran
	}
	return ran
}

// HasPendingEffects reports whether this owner or a descendant has effects
// waiting for Flush.
func (o *Owner) HasPendingEffects() bool {
	if o.disposed.Load() {
		return false
	}
	o.mu.Lock()
	queued := len(o.queue) > 0
	o.mu.Unlock()
	if queued {
		return true
	}
	return slices.ContainsFunc(o.snapshotChildren(), (*Owner).HasPendingEffects)
}

// Dispose cancels the context, disposes children (newest first), stops
// tasks, disposes effects and finally runs cleanups. It is idempotent.
func (o *Owner) Dispose() {
	if o.disposed.Swap(true) {
		return
	}
	o.cancel()

	if p := o.parent; p != nil {
		p.mu.Lock()
		if i := slices.Index(p.children, o); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
		p.mu.Unlock()
	}

	o.mu.Lock()
	children, effects, cleanups, tasks := o.children, o.effects, o.cleanups, o.tasks
	o.children, o.effects, o.cleanups, o.queue = nil, nil, nil, nil
	o.tasks = make(map[uint64]*Task)
	o.mu.Unlock()

	for _, child := range slices.Backward(children) {
		child.Dispose()
	}
	for _, t := range tasks {
		t.Stop()
	}
	for _, e := range effects {
		e.Dispose()
	}
	for _, fn := range slices.Backward(cleanups) {
		fn()
	}
}
