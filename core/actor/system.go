package actor

import (
	"log/slog"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// SystemConfig configures a System. The zero value is usable.
type SystemConfig struct {
	// Name identifies the system in logs. Default: "my-" plus a nanoid.
	Name string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Metrics defaults to NopMetrics().
	Metrics Metrics

	Scheduler SchedulerConfig
}

// System owns the scheduler and its worker pool, and is the spawn point
// for actors. Shutdown tears down the scheduler (joining all workers and
// the watcher) before returning, so no actor runs after Shutdown.
type System struct {
	name    string
	log     *slog.Logger
	metrics Metrics
	sched   *scheduler

	nextID atomic.Uint64
	down   atomic.Bool
}

// NewSystem creates and starts a System.
func NewSystem(cfg SystemConfig) *System {
	if cfg.Name == "" {
		cfg.Name = "my-" + gonanoid.Must(6)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NopMetrics()
	}

	s := &System{
		name:    cfg.Name,
		log:     cfg.Logger.With(slog.String("system", cfg.Name)),
		metrics: cfg.Metrics,
	}
	s.sched = newScheduler(cfg.Scheduler, s.log, cfg.Metrics)
	s.sched.start()
	s.log.Debug("actor system started",
		slog.Int("workers", s.sched.cfg.Workers),
		slog.Uint64("max_throughput", s.sched.cfg.MaxThroughput))
	return s
}

// Name returns the system's instance name.
func (s *System) Name() string { return s.name }

// Spawn allocates a fresh address, runs the factory to construct the actor
// (the factory may already send messages to the not-yet-scheduled actor;
// they simply queue), and hands the actor to the scheduler. It returns a
// weak handle to the new actor's address.
//
// Spawning on a shut-down system returns the zero WeakAddress.
func (s *System) Spawn(factory func(*Actor)) WeakAddress {
	if s.down.Load() {
		return WeakAddress{}
	}

	addr := newAddress(ID(s.nextID.Add(1)))
	addr.setOpen()
	ref := NewRef(addr, func(a *Address) { a.close() })

	a := newActor(ref, s, s.log)
	factory(a)

	s.metrics.ActorSpawned()
	s.sched.enqueue(a)
	return a.Self()
}

// Shutdown stops the system: workers stop picking new rounds, remaining
// actors are force-terminated and drained, and all scheduler goroutines
// are joined before Shutdown returns. Idempotent.
func (s *System) Shutdown() {
	if !s.down.CompareAndSwap(false, true) {
		return
	}
	s.sched.shutdown()
	s.log.Debug("actor system stopped")
}

// Send delivers a fire-and-forget message built from args to the given
// address. Safe to call from any goroutine. Returns false if the address
// is gone or closed.
func Send(to WeakAddress, args ...any) bool {
	ref, ok := to.upgrade()
	if !ok {
		return false
	}
	defer ref.Release()
	return ref.Value().putMsg(newMsg(args...))
}

// DelayedSend delivers the message no earlier than the given instant. The
// message may fire arbitrarily later, bounded by the watcher poll
// interval.
func DelayedSend(to WeakAddress, when time.Time, args ...any) bool {
	ref, ok := to.upgrade()
	if !ok {
		return false
	}
	defer ref.Release()
	return ref.Value().putDelayed(DelayedMsg{TriggerAt: when, Msg: newMsg(args...)})
}

// Exit asks the actor behind the address to terminate: gracefully for any
// reason except ExitKill.
func Exit(to WeakAddress, reason ExitReason) bool {
	return putSystem(to, SystemExitMsg{Reason: reason})
}
