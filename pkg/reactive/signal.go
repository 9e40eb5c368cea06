package reactive

import (
	"reflect"
	"slices"
	"sync"
)

// subscribers is the listener set of a source. Order is insertion order,
// so notifications are deterministic.
type subscribers struct {
	mu   sync.Mutex
	list []Listener
}

func (s *subscribers) add(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(l.ID()) < 0 {
		s.list = append(s.list, l)
	}
}

func (s *subscribers) remove(l Listener) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(l.ID()); i >= 0 {
		s.list = slices.Delete(s.list, i, i+1)
	}
}

func (s *subscribers) index(id uint64) int {
	return slices.IndexFunc(s.list, func(l Listener) bool { return l.ID() == id })
}

// notify marks every listener dirty. No lock is held while listeners run,
// so a listener may subscribe or unsubscribe.
func (s *subscribers) notify() {
	s.mu.Lock()
	list := slices.Clone(s.list)
	s.mu.Unlock()
	for _, l := range list {
		l.MarkDirty()
	}
}

func (s *subscribers) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.list)
}

// Signal is an observable value container.
// A write that changes the value notifies all subscribers synchronously
// before it returns.
type Signal[T any] struct {
	id    uint64
	subs  subscribers
	mu    sync.RWMutex
	value T
	equal func(T, T) bool
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{id: nextID(), value: initial}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Peek is Get. Call sites use it to mark a read that is not a declared
// dependency of the surrounding memo or effect.
func (s *Signal[T]) Peek() T {
	return s.Get()
}

// Set stores value and notifies subscribers if it differs from the
// current value.
func (s *Signal[T]) Set(value T) {
	s.Update(func(T) T { return value })
}

// Update replaces the value with fn(current) under the write lock.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	next := fn(s.value)
	changed := !s.same(s.value, next)
	if changed {
		s.value = next
	}
	s.mu.Unlock()

	if changed {
		s.subs.notify()
	}
}

// WithEquals sets the equality used to detect changes and returns s.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// Subscribe registers a listener for change notifications.
func (s *Signal[T]) Subscribe(l Listener) { s.subs.add(l) }

// Unsubscribe removes a listener.
func (s *Signal[T]) Unsubscribe(l Listener) { s.subs.remove(l) }

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 { return s.id }

func (s *Signal[T]) same(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return equalValues(a, b)
}

// equalValues compares comparable dynamic values with == and falls back
// to reflect.DeepEqual for slices, maps and structs holding them.
func equalValues[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if t := reflect.TypeOf(av); t != nil && t.Comparable() {
		if ok, eq := tryEqual(av, bv); ok {
			return eq
		}
	}
	return reflect.DeepEqual(a, b)
}

// tryEqual compares with ==, reporting ok=false if the comparison panics
// (an interface field holding an uncomparable value).
func tryEqual(a, b any) (ok, eq bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return true, a == b
}

var _ Source = (*Signal[int])(nil)
