package actor

import "time"

// TypedAddress is a compile-time facade over WeakAddress: it restricts
// which message types compile for Send and Request. It adds no runtime
// behavior beyond the untyped core.
type TypedAddress[M any] struct {
	addr WeakAddress
}

// TypedAddr wraps an untyped address.
func TypedAddr[M any](addr WeakAddress) TypedAddress[M] {
	return TypedAddress[M]{addr: addr}
}

// SpawnTyped spawns an actor and returns its address constrained to
// message type M. The factory is responsible for registering a behavior
// matching M.
func SpawnTyped[M any](s *System, factory func(*Actor)) TypedAddress[M] {
	return TypedAddress[M]{addr: s.Spawn(factory)}
}

// Address unwraps to the untyped handle.
func (t TypedAddress[M]) Address() WeakAddress { return t.addr }

// Valid reports whether the underlying handle references an address.
func (t TypedAddress[M]) Valid() bool { return t.addr.Valid() }

// Send delivers a fire-and-forget message of type M.
func (t TypedAddress[M]) Send(m M) bool { return Send(t.addr, m) }

// DelayedSend delivers m no earlier than the given instant.
func (t TypedAddress[M]) DelayedSend(when time.Time, m M) bool {
	return DelayedSend(t.addr, when, m)
}

// RequestTyped starts a request carrying a message of type M; complete it
// with Then or ThenAs.
func RequestTyped[M any](a *Actor, t TypedAddress[M], timeout time.Duration, m M) *Call {
	return a.Request(t.addr, timeout).Send(m)
}
