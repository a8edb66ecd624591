package actor

import "sync"

// ID is a process-unique actor identifier.
type ID uint64

// fifo is a slice-backed FIFO queue. Not safe for concurrent use on its
// own; the Address mutex guards it.
type fifo[T any] struct {
	head  int
	items []T
}

func (q *fifo[T]) push(v T) {
	q.items = append(q.items, v)
}

func (q *fifo[T]) pop() (v T, ok bool) {
	if q.head >= len(q.items) {
		return v, false
	}
	v = q.items[q.head]
	var zero T
	q.items[q.head] = zero
	q.head++
	if q.head > 32 && q.head*2 >= len(q.items) {
		q.items = append(q.items[:0], q.items[q.head:]...)
		q.head = 0
	}
	return v, true
}

func (q *fifo[T]) len() int { return len(q.items) - q.head }

func (q *fifo[T]) clear() {
	q.items = nil
	q.head = 0
}

// Address is an actor's mailbox: four FIFO queues plus an open flag and
// identity. Any goroutine holding a handle may put; only the worker
// currently running the owning actor pops (multi-producer/single-consumer
// by convention).
//
// The open flag transitions false to true exactly once at spawn, and true
// to false exactly once at shutdown; it never reopens.
type Address struct {
	id ID

	mu       sync.Mutex
	open     bool
	system   fifo[SystemMsg]
	delayed  fifo[DelayedMsg]
	incoming fifo[Msg]
	replies  fifo[Reply]
}

func newAddress(id ID) *Address {
	return &Address{id: id}
}

// ID returns the process-unique identity of this address.
func (a *Address) ID() ID { return a.id }

// IsOpen reports whether the address accepts messages.
func (a *Address) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.open
}

func (a *Address) setOpen() {
	a.mu.Lock()
	a.open = true
	a.mu.Unlock()
}

// put* enqueue a message. All are no-ops returning false when closed.

func (a *Address) putMsg(m Msg) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.open {
		return false
	}
	a.incoming.push(m)
	return true
}

func (a *Address) putSystem(m SystemMsg) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.open {
		return false
	}
	a.system.push(m)
	return true
}

func (a *Address) putDelayed(m DelayedMsg) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.open {
		return false
	}
	a.delayed.push(m)
	return true
}

func (a *Address) putReply(r Reply) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.open {
		return false
	}
	a.replies.push(r)
	return true
}

// pop* dequeue one message, returning false instead of blocking when the
// queue is empty.

func (a *Address) popMsg() (Msg, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.incoming.pop()
}

func (a *Address) popSystem() (SystemMsg, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.system.pop()
}

func (a *Address) popDelayed() (DelayedMsg, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.delayed.pop()
}

func (a *Address) popReply() (Reply, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.replies.pop()
}

// HasMessage reports whether any of the four queues holds a message.
func (a *Address) HasMessage() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.system.len() > 0 || a.delayed.len() > 0 || a.incoming.len() > 0 || a.replies.len() > 0
}

// Empty is the inverse of HasMessage.
func (a *Address) Empty() bool { return !a.HasMessage() }

// close atomically drains and discards all four queues and marks the
// address closed. Idempotent. Discarded items are simply dropped; embedded
// handles are reclaimed by the garbage collector.
func (a *Address) close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.open = false
	a.system.clear()
	a.delayed.clear()
	a.incoming.clear()
	a.replies.clear()
}

// WeakAddress is a weak, upgradeable handle to an Address. It is the form
// in which actor identities travel: spawn returns one, requests embed one
// as the reply destination, link/monitor sets store them. The zero value
// is invalid.
type WeakAddress struct {
	w WeakRef[*Address]
}

// Valid reports whether the handle references an address at all.
func (a WeakAddress) Valid() bool { return a.w.Valid() }

// ID returns the address identity, or 0 for the zero handle. The identity
// outlives the actor, so this works even after teardown.
func (a WeakAddress) ID() ID {
	if !a.w.Valid() {
		return 0
	}
	return a.w.c.value.id
}

// Alive reports whether the handle can still be upgraded, i.e. the owning
// actor has not been torn down.
func (a WeakAddress) Alive() bool {
	ref, ok := a.w.Upgrade()
	if !ok {
		return false
	}
	ref.Release()
	return true
}

func (a WeakAddress) upgrade() (Ref[*Address], bool) { return a.w.Upgrade() }
