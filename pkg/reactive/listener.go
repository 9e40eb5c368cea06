package reactive

import "sync/atomic"

// Listener is anything that can be notified when a dependency changes.
// Memos and effects implement it.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	// For memos, this invalidates the cached value.
	// For effects, this schedules a re-run on the owner.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	ID() uint64
}

// Source is an observable value that listeners can subscribe to.
// Signals and memos are sources.
type Source interface {
	Subscribe(l Listener)
	Unsubscribe(l Listener)
}

// Cleanup is a function returned by effects to release resources.
// It is called before the effect re-runs and when the effect is disposed.
type Cleanup func()

// globalIDCounter is the source of unique IDs for all reactive primitives.
var globalIDCounter uint64

// nextID returns the next unique ID. IDs are never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

// ListenerFunc adapts a function to the Listener interface.
// It is useful for callers that only want change notifications, such as
// an inspector pushing updates to a client.
type ListenerFunc struct {
	id uint64
	fn func()
}

// NewListenerFunc wraps fn as a Listener with a fresh ID.
func NewListenerFunc(fn func()) *ListenerFunc {
	return &ListenerFunc{id: nextID(), fn: fn}
}

// MarkDirty calls the wrapped function.
func (l *ListenerFunc) MarkDirty() {
	if l.fn != nil {
		l.fn()
	}
}

// ID returns the listener ID.
func (l *ListenerFunc) ID() uint64 {
	return l.id
}
