package actor

import (
	"time"

	"github.com/joakim-brannstrom/my/core/reflector"
)

// MsgKind tags a Msg as fire-and-forget or request.
type MsgKind uint8

const (
	MsgOneShot MsgKind = iota
	MsgRequest
)

// Msg is an ordinary message: a signature identifying the argument-type
// tuple plus the type-erased arguments. A request additionally carries the
// reply correlation id and a weak handle to the requester's address.
type Msg struct {
	Signature reflector.Signature
	Kind      MsgKind
	Args      []any

	// Request only.
	ReplyTo WeakAddress
	ReplyID uint64
}

func newMsg(args ...any) Msg {
	return Msg{
		Signature: reflector.SignatureOf(args...),
		Kind:      MsgOneShot,
		Args:      args,
	}
}

// Reply correlates a request's answer back to the awaiting actor. Err is
// NoError for a value reply; Cause optionally carries the responder's
// underlying error.
type Reply struct {
	ID    uint64
	Value any
	Err   SystemError
	Cause error
}

// DelayedMsg pairs a message with the earliest instant it may be
// delivered. It is guaranteed not to fire before TriggerAt but may fire
// arbitrarily later, bounded by the watcher poll interval.
type DelayedMsg struct {
	TriggerAt time.Time
	Msg       Msg
}

// SystemMsg is the closed union of control messages. System messages are
// drained in full, before any ordinary message, on every Process call, so
// link/monitor state is current when an actor terminates.
type SystemMsg interface{ sysMsg() }

// ErrorMsg reports a runtime-level failure. Origin is the actor the error
// relates to (0 if none); Cause optionally carries an underlying error.
type ErrorMsg struct {
	Origin ID
	Err    SystemError
	Cause  error
}

// DownMsg notifies a monitor that the watched actor terminated.
type DownMsg struct {
	From   ID
	Reason SystemError
}

// ExitMsg notifies a linked peer that the other side terminated. The
// default exit handler force-shuts-down the receiver, so failure
// propagates transitively unless overridden.
type ExitMsg struct {
	From   ID
	Reason SystemError
}

// SystemExitMsg asks the receiving actor to terminate: gracefully for
// every reason except ExitKill, which forces immediate shutdown.
type SystemExitMsg struct {
	Reason ExitReason
}

// MonitorRequest registers Watcher to be sent a DownMsg when the receiver
// terminates.
type MonitorRequest struct {
	Watcher WeakAddress
}

// DemonitorRequest removes a previously registered monitor.
type DemonitorRequest struct {
	Watcher ID
}

// LinkRequest adds Peer to the receiver's link set.
type LinkRequest struct {
	Peer WeakAddress
}

// UnlinkRequest removes Peer from the receiver's link set.
type UnlinkRequest struct {
	Peer ID
}

func (ErrorMsg) sysMsg()         {}
func (DownMsg) sysMsg()          {}
func (ExitMsg) sysMsg()          {}
func (SystemExitMsg) sysMsg()    {}
func (MonitorRequest) sysMsg()   {}
func (DemonitorRequest) sysMsg() {}
func (LinkRequest) sysMsg()      {}
func (UnlinkRequest) sysMsg()    {}
