package reactive

import "slices"

// SliceSignal is a Signal over a slice. Mutations always build a new
// backing array, so a slice returned by Get is never written afterwards.
type SliceSignal[T any] struct {
	*Signal[[]T]
}

// NewSliceSignal creates a SliceSignal. A nil initial becomes empty.
func NewSliceSignal[T any](initial []T) *SliceSignal[T] {
	if initial == nil {
		initial = []T{}
	}
	return &SliceSignal[T]{NewSignal(initial)}
}

// Items returns a copy the caller may modify.
func (s *SliceSignal[T]) Items() []T {
	return slices.Clone(s.Get())
}

// Len returns the number of items.
func (s *SliceSignal[T]) Len() int {
	return len(s.Get())
}

// Append adds item at the end.
func (s *SliceSignal[T]) Append(item T) {
	s.Update(func(items []T) []T {
		return append(slices.Clip(items), item)
	})
}

// Clear empties the slice.
func (s *SliceSignal[T]) Clear() {
	s.Set([]T{})
}

// Filter keeps the items for which keep returns true.
func (s *SliceSignal[T]) Filter(keep func(T) bool) {
	s.Update(func(items []T) []T {
		return slices.DeleteFunc(slices.Clone(items), func(item T) bool { return !keep(item) })
	})
}

// RemoveWhere drops the items matching match.
func (s *SliceSignal[T]) RemoveWhere(match func(T) bool) {
	s.Update(func(items []T) []T {
		return slices.DeleteFunc(slices.Clone(items), match)
	})
}

// UpdateWhere replaces each item matching match with fn(item).
func (s *SliceSignal[T]) UpdateWhere(match func(T) bool, fn func(T) T) {
	s.Update(func(items []T) []T {
		out := slices.Clone(items)
		for i := range out {
			if match(out[i]) {
				out[i] = fn(out[i])
			}
		}
		return out
	})
}

// Find returns the first item matching match.
func (s *SliceSignal[T]) Find(match func(T) bool) (T, bool) {
	items := s.Get()
	if i := slices.IndexFunc(items, match); i >= 0 {
		return items[i], true
	}
	var zero T
	return zero, false
}
