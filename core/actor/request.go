package actor

import (
	"sort"
	"sync"
	"time"

	"github.com/joakim-brannstrom/my/core/reflector"
)

// Call is the request builder: Request allocates the reply id, Send
// attaches the arguments, Then registers the reply handler and transmits.
//
//	a.Request(target, time.Second).Send(query{ID: 7}).Then(func(v any) { ... })
type Call struct {
	a        *Actor
	to       WeakAddress
	deadline time.Time // zero means no deadline
	msg      Msg
}

// Request starts a request to the given address. The reply id is allocated
// here, before anything is sent. A timeout <= 0 means no deadline.
// Must be called on the actor's own processing goroutine.
func (a *Actor) Request(to WeakAddress, timeout time.Duration) *Call {
	c := &Call{
		a:  a,
		to: to,
		msg: Msg{
			Kind:    MsgRequest,
			ReplyTo: a.Self(),
			ReplyID: a.nextReplyID,
		},
	}
	a.nextReplyID++
	if timeout > 0 {
		c.deadline = time.Now().Add(timeout)
	}
	return c
}

// Send attaches the request arguments.
func (c *Call) Send(args ...any) *Call {
	c.msg.Signature = reflector.SignatureOf(args...)
	c.msg.Args = args
	return c
}

// Then registers the reply handler, then transmits the request. The
// registration-before-transmission order is load-bearing: a reply can
// never race ahead of its own registration, even when delivery is
// synchronous. Without an onError the actor's error handler is used.
//
// A closed or torn-down target is reported through the error handler as
// ErrRequestReceiverDown, not as a failure of Then.
func (c *Call) Then(fn func(any), onError ...func(ErrorMsg)) {
	a := c.a
	onErr := a.errorHandler
	if len(onError) > 0 {
		onErr = onError[0]
	}

	id := c.msg.ReplyID
	a.awaited[id] = replyHandlers{fn: fn, onError: onErr}
	if !c.deadline.IsZero() {
		a.insertDeadline(replyDeadline{id: id, deadline: c.deadline})
	}

	if !c.transmit() {
		delete(a.awaited, id)
		a.removeDeadline(id)
		onErr(ErrorMsg{Origin: c.to.ID(), Err: ErrRequestReceiverDown})
	}
}

// ThenAs is Then with a typed reply handler.
func ThenAs[R any](c *Call, fn func(R), onError ...func(ErrorMsg)) {
	c.Then(func(v any) { fn(v.(R)) }, onError...)
}

func (c *Call) transmit() bool {
	ref, ok := c.to.upgrade()
	if !ok {
		return false
	}
	defer ref.Release()
	return ref.Value().putMsg(c.msg)
}

func (a *Actor) insertDeadline(d replyDeadline) {
	i := sort.Search(len(a.replyDeadlines), func(i int) bool {
		return a.replyDeadlines[i].deadline.After(d.deadline)
	})
	a.replyDeadlines = append(a.replyDeadlines, replyDeadline{})
	copy(a.replyDeadlines[i+1:], a.replyDeadlines[i:])
	a.replyDeadlines[i] = d
}

// Promise is a deferred reply slot. A request handler returns one instead
// of a value to answer later; Deliver sends the reply through the captured
// reply address, exactly once. Deliver is safe to call from any goroutine.
type Promise struct {
	mu        sync.Mutex
	to        WeakAddress
	id        uint64
	bound     bool
	value     any
	hasValue  bool
	delivered bool
}

// NewPromise creates an unbound promise. The runtime binds it to the
// requester when the handler returns it.
func NewPromise() *Promise { return &Promise{} }

// Deliver resolves the promise with the given value. Delivering clears the
// slot; further calls are no-ops.
func (p *Promise) Deliver(value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.delivered {
		return
	}
	p.value = value
	p.hasValue = true
	p.fireLocked()
}

func (p *Promise) bind(to WeakAddress, id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.delivered {
		return
	}
	p.to = to
	p.id = id
	p.bound = true
	p.fireLocked()
}

func (p *Promise) fireLocked() {
	if !p.bound || !p.hasValue {
		return
	}
	sendReply(p.to, Reply{ID: p.id, Value: p.value})
	p.delivered = true
	p.to = WeakAddress{}
	p.value = nil
}
