package actor

import "sync/atomic"

// cell is the shared control block behind Ref and WeakRef.
type cell[T any] struct {
	count atomic.Int64
	value T
	drop  func(T)
}

// Ref is a reference-counted strong handle to a value. While any strong
// handle exists the value is considered live; when the count reaches zero
// the drop hook runs and every weak handle stops upgrading.
//
// Each Retain must be paired with exactly one Release. The zero Ref is
// invalid.
type Ref[T any] struct {
	c *cell[T]
}

// NewRef creates a strong handle with a count of one. drop runs once, when
// the count reaches zero; it may be nil.
func NewRef[T any](v T, drop func(T)) Ref[T] {
	c := &cell[T]{value: v, drop: drop}
	c.count.Store(1)
	return Ref[T]{c: c}
}

// Valid reports whether the handle points at anything.
func (r Ref[T]) Valid() bool { return r.c != nil }

// Value returns the referenced value. Only call on a valid handle.
func (r Ref[T]) Value() T { return r.c.value }

// RefCount returns the current strong count.
func (r Ref[T]) RefCount() int { return int(r.c.count.Load()) }

// Retain increments the strong count and returns the handle.
func (r Ref[T]) Retain() Ref[T] {
	r.c.count.Add(1)
	return r
}

// Release decrements the strong count. At zero the drop hook runs.
func (r Ref[T]) Release() {
	if r.c.count.Add(-1) == 0 && r.c.drop != nil {
		r.c.drop(r.c.value)
	}
}

// Weak returns a weak handle sharing this handle's control block.
func (r Ref[T]) Weak() WeakRef[T] { return WeakRef[T]{c: r.c} }

// WeakRef is a non-owning handle. Upgrade attempts to obtain a strong
// handle and fails once the strong count has reached zero.
type WeakRef[T any] struct {
	c *cell[T]
}

// Valid reports whether the handle points at anything. A valid weak handle
// may still fail to upgrade.
func (w WeakRef[T]) Valid() bool { return w.c != nil }

// Upgrade tries to obtain a strong handle. It is a single atomic
// try-increment: it fails if the strong count already reached zero (the
// value lost the race with teardown).
func (w WeakRef[T]) Upgrade() (Ref[T], bool) {
	if w.c == nil {
		return Ref[T]{}, false
	}
	for {
		n := w.c.count.Load()
		if n <= 0 {
			return Ref[T]{}, false
		}
		if w.c.count.CompareAndSwap(n, n+1) {
			return Ref[T]{c: w.c}, true
		}
	}
}
