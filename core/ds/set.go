// Package ds provides small generic data structures used by the actor
// runtime.
package ds

import "fmt"

// Set is an ordered set with O(1) membership testing that preserves
// insertion order. The runtime uses it for link and monitor bookkeeping,
// where deterministic notification order matters.
//
// Add, Remove, and Clear mutate the receiver; the remaining methods are
// read-only. A Set is not safe for concurrent use.
type Set[T comparable] struct {
	items map[T]struct{}
	order []T // preserves insertion order
}

// NewSet creates a new set with the given items.
func NewSet[T comparable](items ...T) *Set[T] {
	set := &Set[T]{items: map[T]struct{}{}, order: make([]T, 0, len(items))}
	for _, item := range items {
		set.Add(item)
	}
	return set
}

func (s *Set[T]) String() string {
	return fmt.Sprintf("%v", s.order)
}

// Add adds v to the set. No-op if already present.
func (s *Set[T]) Add(v T) {
	if s.Contains(v) {
		return
	}
	s.items[v] = struct{}{}
	s.order = append(s.order, v)
}

// Remove removes v from the set. No-op if absent.
// This operation is O(n) where n is the set size.
func (s *Set[T]) Remove(v T) {
	if !s.Contains(v) {
		return
	}
	delete(s.items, v)
	for i, o := range s.order {
		if o == v {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}

// Contains returns true if v is present in the set.
func (s *Set[T]) Contains(v T) bool {
	_, ok := s.items[v]
	return ok
}

// Len returns the number of elements in the set.
func (s *Set[T]) Len() int { return len(s.items) }

// IsEmpty returns true if the set contains no elements.
func (s *Set[T]) IsEmpty() bool { return len(s.items) == 0 }

// ForEach iterates over all elements in insertion order, calling fn for
// each. This is more efficient than Values when no slice copy is needed.
func (s *Set[T]) ForEach(fn func(T)) {
	for _, v := range s.order {
		fn(v)
	}
}

// Values returns a copy of the elements in insertion order.
func (s *Set[T]) Values() []T {
	out := make([]T, len(s.order))
	copy(out, s.order)
	return out
}

// Clear removes all elements from the set.
func (s *Set[T]) Clear() {
	s.items = map[T]struct{}{}
	s.order = nil
}
