package reactive

import (
	"sync"
	"sync/atomic"
)

// Memo is a cached computation over a declared set of sources.
// When any source changes, the memo is invalidated and recomputes on the
// next read.
//
// Memos are lazy: they only compute their value when Get is called.
// If several sources change before a read, the memo recomputes once.
//
// Memos are sources themselves, so derived values can be chained.
type Memo[T any] struct {
	id   uint64
	subs subscribers

	// compute is the function that computes the memo's value.
	compute func() T

	// value is the cached computed value.
	value   T
	valueMu sync.RWMutex

	// computeMu serializes recomputation.
	computeMu sync.Mutex

	// valid indicates whether the cached value is current.
	valid atomic.Bool

	// version is bumped on every invalidation. A recompute only marks the
	// memo valid if no invalidation happened while it ran.
	version atomic.Uint64

	// sources are the declared dependencies.
	sources []Source

	// computing guards against a memo reading itself.
	computing atomic.Bool
}

// NewMemo creates a memo over the given sources.
// The computation is not run immediately; it runs lazily on first Get.
// compute must only read values from the declared sources; reads of
// anything else are not tracked.
func NewMemo[T any](compute func() T, sources ...Source) *Memo[T] {
	m := &Memo[T]{
		id:      nextID(),
		compute: compute,
		sources: sources,
	}
	for _, src := range sources {
		if src != nil {
			src.Subscribe(m)
		}
	}
	return m
}

// Get returns the memo's value, recomputing if necessary.
func (m *Memo[T]) Get() T {
	if !m.valid.Load() {
		m.recompute()
	}

	m.valueMu.RLock()
	defer m.valueMu.RUnlock()
	return m.value
}

// MarkDirty invalidates the memo and propagates to subscribers.
// Implements the Listener interface.
func (m *Memo[T]) MarkDirty() {
	m.version.Add(1)
	m.valid.Store(false)
	// Always propagate: a downstream memo may have skipped reading this one
	// on its last run and must still be invalidated.
	m.subs.notify()
}

// ID returns the unique identifier for this memo.
func (m *Memo[T]) ID() uint64 {
	return m.id
}

// Subscribe registers a listener for invalidation notifications.
func (m *Memo[T]) Subscribe(l Listener) {
	m.subs.add(l)
}

// Unsubscribe removes a listener.
func (m *Memo[T]) Unsubscribe(l Listener) {
	m.subs.remove(l)
}

// Dispose detaches the memo from its sources.
func (m *Memo[T]) Dispose() {
	for _, src := range m.sources {
		if src != nil {
			src.Unsubscribe(m)
		}
	}
	m.sources = nil
}

// recompute runs the computation and updates the cached value.
func (m *Memo[T]) recompute() {
	if m.computing.Load() {
		// Re-entrant read from inside compute: serve the stale value.
		return
	}

	m.computeMu.Lock()
	defer m.computeMu.Unlock()

	if m.valid.Load() {
		return
	}

	m.computing.Store(true)
	defer m.computing.Store(false)

	version := m.version.Load()
	newValue := m.compute()

	m.valueMu.Lock()
	m.value = newValue
	m.valueMu.Unlock()

	if m.version.Load() == version {
		m.valid.Store(true)
	}
}

var (
	_ Source   = (*Memo[int])(nil)
	_ Listener = (*Memo[int])(nil)
)
