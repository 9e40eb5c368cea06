package reactive

import (
	"sync"
	"sync/atomic"
)

// Effect is a side effect that re-runs when one of its sources changes.
//
// Effects run once when created. After that, a change in any source queues
// the effect on its Owner and the next Owner.Flush re-runs it. An effect
// without an owner re-runs synchronously on the writing goroutine.
type Effect struct {
	id uint64

	// fn is the effect function to run.
	fn func() Cleanup

	// cleanup is the cleanup function from the last run.
	cleanup Cleanup

	// runMu serializes runs of this effect.
	runMu sync.Mutex

	// sources are the declared dependencies.
	sources []Source

	// owner is the Owner that schedules and disposes this effect.
	owner *Owner

	// pending indicates the effect is scheduled for re-run.
	pending atomic.Bool

	// disposed indicates the effect has been disposed.
	disposed atomic.Bool
}

// NewEffect creates an effect over the given sources and runs it once.
// If owner is non-nil, the effect is disposed together with the owner.
//
// Example:
//
//	reactive.NewEffect(owner, func() reactive.Cleanup {
//	    log.Println("count is", count.Get())
//	    return nil
//	}, count)
func NewEffect(owner *Owner, fn func() Cleanup, sources ...Source) *Effect {
	e := &Effect{
		id:      nextID(),
		fn:      fn,
		owner:   owner,
		sources: sources,
	}

	if owner != nil {
		if owner.IsDisposed() {
			e.disposed.Store(true)
			return e
		}
		owner.registerEffect(e)
	}

	for _, src := range sources {
		if src != nil {
			src.Subscribe(e)
		}
	}

	e.run()
	return e
}

// MarkDirty marks the effect as needing to re-run.
// Implements the Listener interface.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() {
		return
	}

	// Use CAS to ensure we only schedule once
	if e.pending.CompareAndSwap(false, true) {
		if e.owner != nil {
			e.owner.scheduleEffect(e)
			return
		}
		e.run()
	}
}

// ID returns the unique identifier for this effect.
func (e *Effect) ID() uint64 {
	return e.id
}

// Pending reports whether the effect is waiting for a re-run.
func (e *Effect) Pending() bool {
	return e.pending.Load()
}

// run executes the effect function.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()

	e.pending.Store(false)

	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.cleanup = e.fn()
}

// Dispose runs the last cleanup and unsubscribes from all sources.
func (e *Effect) Dispose() {
	if e.disposed.Swap(true) {
		return
	}

	for _, src := range e.sources {
		if src != nil {
			src.Unsubscribe(e)
		}
	}

	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
}

var _ Listener = (*Effect)(nil)
