package actor

import (
	"log/slog"
	"runtime/debug"
	"sort"
	"time"

	"github.com/joakim-brannstrom/my/core/ds"
	"github.com/joakim-brannstrom/my/core/reflector"
)

// ActorState is the lifecycle state machine. Initial state is
// StateWaiting, terminal state is StateStopped.
type ActorState uint8

const (
	// StateWaiting: spawned, not yet processed.
	StateWaiting ActorState = iota
	// StateActive: normal operation.
	StateActive
	// StateShutdown: graceful shutdown, outstanding requests may finish.
	StateShutdown
	// StateForceShutdown: outstanding requests are discarded.
	StateForceShutdown
	// StateFinishShutdown: close the address, notify monitors and links,
	// release behaviors and timers.
	StateFinishShutdown
	// StateStopped: terminal.
	StateStopped
)

func (s ActorState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateActive:
		return "active"
	case StateShutdown:
		return "shutdown"
	case StateForceShutdown:
		return "forceShutdown"
	case StateFinishShutdown:
		return "finishShutdown"
	case StateStopped:
		return "stopped"
	default:
		return "invalid"
	}
}

type (
	oneShotBehavior func(args []any)
	requestBehavior func(args []any) (any, error)

	replyHandlers struct {
		fn      func(any)
		onError func(ErrorMsg)
	}

	replyDeadline struct {
		id       uint64
		deadline time.Time
	}
)

// peerSet tracks link or monitor peers: an ordered id set for
// deterministic notification order plus the weak handles to notify.
type peerSet struct {
	ids   *ds.Set[ID]
	addrs map[ID]WeakAddress
}

func newPeerSet() peerSet {
	return peerSet{ids: ds.NewSet[ID](), addrs: make(map[ID]WeakAddress)}
}

func (p *peerSet) add(w WeakAddress) {
	if !w.Valid() {
		return
	}
	p.ids.Add(w.ID())
	p.addrs[w.ID()] = w
}

func (p *peerSet) remove(id ID) {
	p.ids.Remove(id)
	delete(p.addrs, id)
}

func (p *peerSet) forEach(fn func(WeakAddress)) {
	p.ids.ForEach(func(id ID) { fn(p.addrs[id]) })
}

func (p *peerSet) clear() {
	p.ids.Clear()
	p.addrs = make(map[ID]WeakAddress)
}

// Actor owns a mailbox and processes its messages one at a time. All actor
// state except the mailbox queues is touched only by the single goroutine
// currently running the actor, so none of it is locked.
type Actor struct {
	self AddressRef
	sys  *System
	log  *slog.Logger

	state      ActorState
	exitReason ExitReason
	lastError  SystemError

	behaviors        map[reflector.Signature]oneShotBehavior
	requestBehaviors map[reflector.Signature]requestBehavior

	awaited        map[uint64]replyHandlers
	replyDeadlines []replyDeadline // ascending by deadline
	delayed        []DelayedMsg    // ascending by trigger time
	nextReplyID    uint64          // 0 is reserved as "uninitialized"

	monitors peerSet
	links    peerSet

	downHandler      func(DownMsg)
	errorHandler     func(ErrorMsg)
	exitHandler      func(ExitMsg)
	exceptionHandler func(recovered any, stack []byte)
	defaultHandler   func(msg any)

	// manual marks an actor driven by its owner goroutine instead of the
	// scheduler (ScopedActor); self-termination does not apply to it.
	manual bool
}

// AddressRef is a strong handle to an Address.
type AddressRef = Ref[*Address]

func newActor(self AddressRef, sys *System, log *slog.Logger) *Actor {
	a := &Actor{
		self:             self,
		sys:              sys,
		log:              log,
		state:            StateWaiting,
		exitReason:       ExitNormal,
		behaviors:        make(map[reflector.Signature]oneShotBehavior),
		requestBehaviors: make(map[reflector.Signature]requestBehavior),
		awaited:          make(map[uint64]replyHandlers),
		nextReplyID:      1,
		monitors:         newPeerSet(),
		links:            newPeerSet(),
	}
	a.downHandler = nil
	a.errorHandler = func(e ErrorMsg) {
		a.log.Debug("unhandled error", slog.String("err", e.Err.String()), slog.Uint64("origin", uint64(e.Origin)))
	}
	a.exitHandler = func(e ExitMsg) {
		a.ForceShutdown()
	}
	a.exceptionHandler = func(recovered any, stack []byte) {
		a.log.Error("handler panicked", slog.Any("recovered", recovered), slog.String("stack", string(stack)))
		a.lastError = ErrRuntimeError
		a.exitReason = ExitUnhandledException
		a.ForceShutdown()
	}
	a.defaultHandler = func(msg any) {}
	return a
}

// Self returns a weak handle to this actor's address.
func (a *Actor) Self() WeakAddress { return WeakAddress{w: a.self.Weak()} }

// ID returns the actor's process-unique identity.
func (a *Actor) ID() ID { return a.self.Value().ID() }

// State returns the current lifecycle state.
func (a *Actor) State() ActorState { return a.state }

// Alive reports whether the actor has not yet reached the terminal state.
func (a *Actor) Alive() bool { return a.state != StateStopped }

// LastError returns the failure recorded on this actor, if any.
func (a *Actor) LastError() SystemError { return a.lastError }

// === behavior registration ===
//
// Registration happens inside the spawn factory or a running handler, both
// of which hold the single-writer token, so no locking is needed.

// Handle registers a fire-and-forget behavior for the one-argument tuple
// (A).
func Handle[A any](a *Actor, fn func(A)) {
	a.behaviors[reflector.SignatureFor[A]()] = func(args []any) {
		fn(args[0].(A))
	}
}

// Handle2 registers a fire-and-forget behavior for the two-argument tuple
// (A, B).
func Handle2[A, B any](a *Actor, fn func(A, B)) {
	a.behaviors[reflector.SignatureFor2[A, B]()] = func(args []any) {
		fn(args[0].(A), args[1].(B))
	}
}

// HandleRequest registers a request behavior for the one-argument tuple
// (A). The handler returns the reply value, an error, or a *Promise to
// defer the reply until Promise.Deliver.
func HandleRequest[A any](a *Actor, fn func(A) (any, error)) {
	a.requestBehaviors[reflector.SignatureFor[A]()] = func(args []any) (any, error) {
		return fn(args[0].(A))
	}
}

// HandleRequest2 registers a request behavior for the two-argument tuple
// (A, B).
func HandleRequest2[A, B any](a *Actor, fn func(A, B) (any, error)) {
	a.requestBehaviors[reflector.SignatureFor2[A, B]()] = func(args []any) (any, error) {
		return fn(args[0].(A), args[1].(B))
	}
}

// OnError replaces the default error handler. It receives request errors
// that have no per-request error handler, timeouts included.
func (a *Actor) OnError(fn func(ErrorMsg)) { a.errorHandler = fn }

// OnExit replaces the default exit handler. The default force-shuts-down
// the actor when a linked peer terminates.
func (a *Actor) OnExit(fn func(ExitMsg)) { a.exitHandler = fn }

// OnDown installs a handler for termination notifications from monitored
// actors. Without one, DownMsg is silently dropped.
func (a *Actor) OnDown(fn func(DownMsg)) { a.downHandler = fn }

// OnUnknown replaces the default handler for unmatched messages and
// replies. The default silently drops; LogUnknown is a ready-made
// alternative that logs.
func (a *Actor) OnUnknown(fn func(msg any)) { a.defaultHandler = fn }

// LogUnknown returns an unknown-message handler that logs at warn level.
func (a *Actor) LogUnknown() func(msg any) {
	return func(msg any) {
		a.log.Warn("unhandled message", slog.Any("msg", msg))
	}
}

// OnPanic replaces the exception handler invoked when a handler panics.
// The default records ErrRuntimeError and force-shuts-down the actor.
func (a *Actor) OnPanic(fn func(recovered any, stack []byte)) { a.exceptionHandler = fn }

// === lifecycle ===

// Shutdown initiates graceful shutdown: outstanding requests may still
// complete before the actor stops.
func (a *Actor) Shutdown() {
	switch a.state {
	case StateWaiting, StateActive:
		a.state = StateShutdown
	}
}

// ForceShutdown initiates immediate shutdown, discarding outstanding
// requests.
func (a *Actor) ForceShutdown() {
	switch a.state {
	case StateWaiting, StateActive, StateShutdown:
		a.state = StateForceShutdown
	}
}

// === supervision ===

// Monitor asks target to notify this actor with a DownMsg when it
// terminates.
func (a *Actor) Monitor(target WeakAddress) bool {
	return putSystem(target, MonitorRequest{Watcher: a.Self()})
}

// Demonitor removes a monitor previously installed with Monitor.
func (a *Actor) Demonitor(target WeakAddress) bool {
	return putSystem(target, DemonitorRequest{Watcher: a.ID()})
}

// LinkTo links this actor with other: each side is added to the other's
// link set, so either side's termination sends the other an ExitMsg. Both
// halves travel as system messages, making the operation safe to issue
// from any thread.
func (a *Actor) LinkTo(other WeakAddress) bool {
	if !putSystem(other, LinkRequest{Peer: a.Self()}) {
		return false
	}
	return a.self.Value().putSystem(LinkRequest{Peer: other})
}

// UnlinkTo removes a link previously installed with LinkTo, on both sides.
func (a *Actor) UnlinkTo(other WeakAddress) bool {
	if !putSystem(other, UnlinkRequest{Peer: a.ID()}) {
		return false
	}
	return a.self.Value().putSystem(UnlinkRequest{Peer: other.ID()})
}

func putSystem(to WeakAddress, m SystemMsg) bool {
	ref, ok := to.upgrade()
	if !ok {
		return false
	}
	defer ref.Release()
	return ref.Value().putSystem(m)
}

// === processing ===

// Process runs one scheduling tick at the given instant and returns the
// amount of work performed (messages handled plus lifecycle transitions).
// Per call it runs, in fixed order: all pending system messages, delayed
// messages that came due, one incoming message, one reply, and the
// reply-deadline sweep. Callers may loop while the return value is
// nonzero, up to a throughput quota.
//
// A handler panic is caught here and routed to the exception handler; a
// misbehaving handler never crashes the scheduler.
func (a *Actor) Process(now time.Time) (handled int) {
	defer func() {
		if r := recover(); r != nil {
			handled++
			if a.sys != nil {
				a.sys.metrics.HandlerPanic()
			}
			a.exceptionHandler(r, debug.Stack())
		}
	}()

	switch a.state {
	case StateWaiting:
		a.state = StateActive
		handled += a.tick(now)
	case StateActive, StateShutdown:
		handled += a.tick(now)
	case StateForceShutdown:
		a.state = StateFinishShutdown
		handled++
	case StateFinishShutdown:
		a.finish()
		a.state = StateStopped
		handled++
	case StateStopped:
	}
	return handled
}

func (a *Actor) tick(now time.Time) (handled int) {
	handled += a.processSystem()
	if a.state != StateActive && a.state != StateShutdown {
		// A system message shut us down; apply the transition next tick.
		return handled
	}

	a.moveDueDelayed(now)
	handled += a.processIncoming()
	handled += a.processReply()
	a.checkReplyTimeout(now)

	if a.state == StateActive && !a.manual && a.canSelfTerminate() {
		// Deadlock avoidance: nothing registered, nothing awaited and
		// nothing queued means this actor can never make progress again.
		a.state = StateForceShutdown
		handled++
	}
	if a.state == StateShutdown && len(a.awaited) == 0 {
		a.state = StateFinishShutdown
		handled++
	}
	return handled
}

func (a *Actor) canSelfTerminate() bool {
	return len(a.behaviors) == 0 &&
		len(a.requestBehaviors) == 0 &&
		len(a.awaited) == 0 &&
		len(a.delayed) == 0 &&
		!a.self.Value().HasMessage()
}

// processSystem drains the system queue. System messages are assumed O(1)
// each and must be applied before ordinary traffic so link/monitor state
// is current when the actor terminates.
func (a *Actor) processSystem() (handled int) {
	addr := a.self.Value()
	for {
		m, ok := addr.popSystem()
		if !ok {
			return handled
		}
		handled++
		switch m := m.(type) {
		case MonitorRequest:
			a.monitors.add(m.Watcher)
		case DemonitorRequest:
			a.monitors.remove(m.Watcher)
		case LinkRequest:
			a.links.add(m.Peer)
		case UnlinkRequest:
			a.links.remove(m.Peer)
		case SystemExitMsg:
			a.exitReason = m.Reason
			if m.Reason == ExitKill {
				a.ForceShutdown()
			} else {
				a.Shutdown()
			}
		case ExitMsg:
			if m.Reason != NoError {
				a.lastError = m.Reason
			}
			a.exitHandler(m)
		case DownMsg:
			if a.downHandler != nil {
				a.downHandler(m)
			}
		case ErrorMsg:
			a.errorHandler(m)
		}
	}
}

// moveDueDelayed ingests newly arrived delayed messages into the sorted
// pending list, then feeds the due ones into the incoming queue.
func (a *Actor) moveDueDelayed(now time.Time) {
	addr := a.self.Value()
	for {
		dm, ok := addr.popDelayed()
		if !ok {
			break
		}
		i := sort.Search(len(a.delayed), func(i int) bool {
			return a.delayed[i].TriggerAt.After(dm.TriggerAt)
		})
		a.delayed = append(a.delayed, DelayedMsg{})
		copy(a.delayed[i+1:], a.delayed[i:])
		a.delayed[i] = dm
	}
	for len(a.delayed) > 0 && !a.delayed[0].TriggerAt.After(now) {
		addr.putMsg(a.delayed[0].Msg)
		a.delayed = a.delayed[1:]
	}
}

func (a *Actor) processIncoming() (handled int) {
	m, ok := a.self.Value().popMsg()
	if !ok {
		return 0
	}

	switch m.Kind {
	case MsgRequest:
		h, ok := a.requestBehaviors[m.Signature]
		if !ok {
			a.defaultHandler(m)
			return 1
		}
		value, err := h(m.Args)
		a.deliverReply(m, value, err)
	default:
		h, ok := a.behaviors[m.Signature]
		if !ok {
			a.defaultHandler(m)
			return 1
		}
		h(m.Args)
	}
	return 1
}

// deliverReply routes a request handler's outcome back to the requester: a
// value becomes a Reply, an error an error reply, and a *Promise defers
// delivery until Promise.Deliver.
func (a *Actor) deliverReply(m Msg, value any, err error) {
	if err != nil {
		sysErr := ErrRuntimeError
		if se, ok := err.(SystemError); ok {
			sysErr = se
		}
		sendReply(m.ReplyTo, Reply{ID: m.ReplyID, Err: sysErr, Cause: err})
		return
	}
	if p, ok := value.(*Promise); ok {
		p.bind(m.ReplyTo, m.ReplyID)
		return
	}
	sendReply(m.ReplyTo, Reply{ID: m.ReplyID, Value: value})
}

func sendReply(to WeakAddress, r Reply) bool {
	ref, ok := to.upgrade()
	if !ok {
		return false
	}
	defer ref.Release()
	return ref.Value().putReply(r)
}

// processReply matches one incoming reply against the awaited set. The
// matched handler fires exactly once; its deadline entry is removed. An
// unmatched reply goes to the unknown-message handler.
func (a *Actor) processReply() (handled int) {
	r, ok := a.self.Value().popReply()
	if !ok {
		return 0
	}

	rh, ok := a.awaited[r.ID]
	if !ok {
		a.defaultHandler(r)
		return 1
	}
	delete(a.awaited, r.ID)
	a.removeDeadline(r.ID)

	if r.Err != NoError {
		rh.onError(ErrorMsg{Err: r.Err, Cause: r.Cause})
	} else {
		rh.fn(r.Value)
	}
	return 1
}

// checkReplyTimeout sweeps expired request deadlines. The list is sorted
// ascending, so this is a prefix scan, not a full scan.
func (a *Actor) checkReplyTimeout(now time.Time) {
	for len(a.replyDeadlines) > 0 && now.After(a.replyDeadlines[0].deadline) {
		id := a.replyDeadlines[0].id
		a.replyDeadlines = a.replyDeadlines[1:]
		rh, ok := a.awaited[id]
		if !ok {
			// Reply already arrived; stale entry.
			continue
		}
		delete(a.awaited, id)
		if a.sys != nil {
			a.sys.metrics.RequestTimeout()
		}
		rh.onError(ErrorMsg{Err: ErrRequestTimeout})
	}
}

func (a *Actor) removeDeadline(id uint64) {
	for i, d := range a.replyDeadlines {
		if d.id == id {
			a.replyDeadlines = append(a.replyDeadlines[:i], a.replyDeadlines[i+1:]...)
			return
		}
	}
}

// finish closes the address, notifies monitors and links, and releases
// behaviors and timers.
func (a *Actor) finish() {
	a.self.Value().close()

	a.monitors.forEach(func(w WeakAddress) {
		putSystem(w, DownMsg{From: a.ID(), Reason: a.lastError})
	})
	a.links.forEach(func(w WeakAddress) {
		putSystem(w, ExitMsg{From: a.ID(), Reason: a.lastError})
	})
	a.monitors.clear()
	a.links.clear()

	a.behaviors = nil
	a.requestBehaviors = nil
	a.awaited = nil
	a.replyDeadlines = nil
	a.delayed = nil

	a.log.Debug("actor stopped",
		slog.Uint64("id", uint64(a.ID())),
		slog.String("reason", a.exitReason.String()),
		slog.String("last_error", a.lastError.String()))
}

// ready reports whether the actor has runnable work at the given instant.
// The watcher calls this while holding the actor's scheduling token.
func (a *Actor) ready(now time.Time) bool {
	if a.state == StateForceShutdown || a.state == StateFinishShutdown {
		return true
	}
	if a.self.Value().HasMessage() {
		return true
	}
	if t, ok := a.nextTimer(); ok && !t.After(now) {
		return true
	}
	return false
}

// nextTimer returns the nearest pending deadline: the first delayed
// message trigger or the first reply deadline, whichever is sooner.
func (a *Actor) nextTimer() (time.Time, bool) {
	var t time.Time
	ok := false
	if len(a.delayed) > 0 {
		t = a.delayed[0].TriggerAt
		ok = true
	}
	if len(a.replyDeadlines) > 0 {
		if d := a.replyDeadlines[0].deadline; !ok || d.Before(t) {
			t = d
			ok = true
		}
	}
	return t, ok
}
