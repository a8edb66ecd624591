// Package actor is an in-process actor runtime: actors exchange typed
// messages through per-actor mailboxes, are scheduled cooperatively across
// a fixed worker pool, and support request/reply with timeouts plus
// Erlang-style supervision (linking and monitoring).
//
// Each actor:
//   - Owns an Address: four FIFO mailbox queues plus an open flag
//   - Processes messages one at a time, driven by a scheduler worker
//   - Dispatches by message signature (the hash of the argument-type tuple)
//   - Walks a small lifecycle state machine from waiting to stopped
//
// # Spawning actors
//
// The factory registers behaviors on the actor before it is scheduled:
//
//	sys := actor.NewSystem(actor.SystemConfig{})
//	defer sys.Shutdown()
//
//	addr := sys.Spawn(func(a *actor.Actor) {
//	    actor.HandleRequest[Add](a, func(m Add) (any, error) {
//	        return m.X + m.Y, nil
//	    })
//	    actor.Handle[Log](a, func(m Log) {
//	        a.Self() // actors may message themselves
//	    })
//	})
//
// # Sending messages
//
// actor.Send is fire-and-forget; actor.DelayedSend delivers no earlier
// than a given instant. Requests are issued from inside an actor with the
// request/send/then builder:
//
//	a.Request(addr, time.Second).Send(Add{X: 2, Y: 3}).Then(func(v any) {
//	    // v == 5
//	}, func(e actor.ErrorMsg) {
//	    // timeout or receiver gone
//	})
//
// The reply handler is registered before the request is transmitted, so a
// reply can never race ahead of its own registration. A request handler
// may also return a *Promise to answer later.
//
// # Supervision
//
// Monitor installs a one-directional "notify me when you terminate"
// relationship (DownMsg); LinkTo is bidirectional and termination
// propagates through ExitMsg, force-shutting down linked peers unless they
// override the exit handler.
//
// # Synchronous call sites
//
// ScopedActor bridges ordinary goroutines into the actor world:
//
//	sc := sys.NewScopedActor()
//	defer sc.Close()
//	v, err := sc.Call(addr, time.Second, Add{X: 2, Y: 3})
package actor
