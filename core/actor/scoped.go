package actor

import (
	"fmt"
	"time"
)

// ScopedErrorKind classifies a ScopedActor call failure.
type ScopedErrorKind uint8

const (
	ScopedDown ScopedErrorKind = iota
	ScopedTimeout
	ScopedUnknownMsg
	ScopedFatal
)

func (k ScopedErrorKind) String() string {
	switch k {
	case ScopedDown:
		return "down"
	case ScopedTimeout:
		return "timeout"
	case ScopedUnknownMsg:
		return "unknown message"
	case ScopedFatal:
		return "fatal"
	default:
		return "invalid"
	}
}

// ScopedError is the single error type a ScopedActor surfaces to
// synchronous call sites.
type ScopedError struct {
	Kind  ScopedErrorKind
	Cause error
}

func (e *ScopedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scoped call failed (%s): %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("scoped call failed (%s)", e.Kind)
}

func (e *ScopedError) Unwrap() error { return e.Cause }

// ScopedActor lets ordinary goroutines talk to the actor world
// synchronously. It owns a private actor that is never handed to the
// scheduler; the calling goroutine drives Process itself while a call is
// outstanding.
//
// A ScopedActor is not safe for concurrent use.
type ScopedActor struct {
	a *Actor
}

// NewScopedActor creates a scoped actor bound to this system.
func (s *System) NewScopedActor() *ScopedActor {
	addr := newAddress(ID(s.nextID.Add(1)))
	addr.setOpen()
	ref := NewRef(addr, func(a *Address) { a.close() })
	a := newActor(ref, s, s.log)
	a.manual = true
	return &ScopedActor{a: a}
}

// Self returns the scoped actor's address, usable as a reply or
// notification target while a call is being driven.
func (sa *ScopedActor) Self() WeakAddress { return sa.a.Self() }

// Call sends a request built from args and blocks until the reply, an
// error, or the timeout. A timeout <= 0 blocks indefinitely (until the
// receiver goes away).
func (sa *ScopedActor) Call(to WeakAddress, timeout time.Duration, args ...any) (any, error) {
	var (
		result any
		done   bool
		serr   *ScopedError
	)

	sa.a.Request(to, timeout).Send(args...).Then(
		func(v any) {
			result = v
			done = true
		},
		func(e ErrorMsg) {
			serr = scopedError(e)
		},
	)

	for !done && serr == nil && sa.a.Alive() {
		if sa.a.Process(time.Now()) == 0 {
			if !to.Alive() && sa.a.self.Value().Empty() {
				// The receiver is gone and no reply is in flight.
				serr = &ScopedError{Kind: ScopedDown, Cause: ErrRequestReceiverDown}
				break
			}
			time.Sleep(100 * time.Microsecond)
		}
	}

	if serr != nil {
		return nil, serr
	}
	if !done {
		// The actor died mid-call (handler panic).
		return nil, &ScopedError{Kind: ScopedFatal, Cause: sa.a.lastError}
	}
	return result, nil
}

// Close tears the scoped actor down and closes its address.
func (sa *ScopedActor) Close() {
	sa.a.ForceShutdown()
	for sa.a.Alive() {
		sa.a.Process(time.Now())
	}
	sa.a.self.Release()
}

func scopedError(e ErrorMsg) *ScopedError {
	kind := ScopedFatal
	switch e.Err {
	case ErrRequestTimeout:
		kind = ScopedTimeout
	case ErrRequestReceiverDown:
		kind = ScopedDown
	case ErrUnexpectedMessage, ErrUnexpectedResponse:
		kind = ScopedUnknownMsg
	}
	cause := e.Cause
	if cause == nil {
		cause = e.Err
	}
	return &ScopedError{Kind: kind, Cause: cause}
}
