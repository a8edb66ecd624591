package actor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestSystem(t *testing.T) *System {
	t.Helper()
	sys := NewSystem(SystemConfig{
		Name: "test",
		Scheduler: SchedulerConfig{
			Workers:         2,
			MinPollInterval: time.Millisecond,
			MaxPollInterval: 5 * time.Millisecond,
		},
	})
	t.Cleanup(sys.Shutdown)
	return sys
}

func TestSystem_spawn_and_send(t *testing.T) {
	sys := newTestSystem(t)

	var sum atomic.Int64
	addr := sys.Spawn(func(a *Actor) {
		Handle[int](a, func(v int) { sum.Add(int64(v)) })
	})
	require.True(t, addr.Valid())

	require.True(t, Send(addr, 1))
	require.True(t, Send(addr, 2))
	require.True(t, Send(addr, 3))

	require.Eventually(t, func() bool { return sum.Load() == 6 },
		time.Second, time.Millisecond)
}

func TestSystem_request_through_scoped_actor(t *testing.T) {
	sys := newTestSystem(t)

	addr := sys.Spawn(func(a *Actor) {
		HandleRequest[int](a, func(x int) (any, error) { return x + 10, nil })
	})

	sc := sys.NewScopedActor()
	defer sc.Close()

	v, err := sc.Call(addr, time.Second, 5)
	require.NoError(t, err)
	require.Equal(t, 15, v)
}

func TestSystem_factory_may_send_before_scheduling(t *testing.T) {
	sys := newTestSystem(t)

	var got atomic.Int64
	sys.Spawn(func(a *Actor) {
		Handle[int](a, func(v int) { got.Store(int64(v)) })
		Send(a.Self(), 7) // queues on the not-yet-scheduled actor
	})

	require.Eventually(t, func() bool { return got.Load() == 7 },
		time.Second, time.Millisecond)
}

func TestSystem_idle_actor_wakes_for_late_traffic(t *testing.T) {
	sys := newTestSystem(t)

	var count atomic.Int64
	addr := sys.Spawn(func(a *Actor) {
		Handle[int](a, func(int) { count.Add(1) })
	})

	Send(addr, 1)
	require.Eventually(t, func() bool { return count.Load() == 1 },
		time.Second, time.Millisecond)

	// Let the actor get parked on the inactive queue, then resume traffic.
	time.Sleep(20 * time.Millisecond)
	Send(addr, 2)
	require.Eventually(t, func() bool { return count.Load() == 2 },
		time.Second, time.Millisecond)
}

func TestSystem_delayed_send(t *testing.T) {
	sys := newTestSystem(t)

	var firedAt atomic.Int64
	addr := sys.Spawn(func(a *Actor) {
		Handle[string](a, func(string) { firedAt.Store(time.Now().UnixNano()) })
	})

	trigger := time.Now().Add(30 * time.Millisecond)
	require.True(t, DelayedSend(addr, trigger, "tick"))

	require.Eventually(t, func() bool { return firedAt.Load() != 0 },
		time.Second, time.Millisecond)
	require.GreaterOrEqual(t, firedAt.Load(), trigger.UnixNano(),
		"a delayed message never fires before its trigger time")
}

func TestSystem_request_between_spawned_actors(t *testing.T) {
	sys := newTestSystem(t)

	adder := sys.Spawn(func(a *Actor) {
		HandleRequest[int](a, func(x int) (any, error) { return x + 10, nil })
	})

	var result atomic.Int64
	sys.Spawn(func(a *Actor) {
		Handle[string](a, func(string) {
			a.Request(adder, time.Second).Send(5).Then(func(v any) {
				result.Store(int64(v.(int)))
			})
		})
		Send(a.Self(), "go")
	})

	require.Eventually(t, func() bool { return result.Load() == 15 },
		time.Second, time.Millisecond)
}

func TestSystem_request_timeout_through_scheduler(t *testing.T) {
	sys := newTestSystem(t)

	mute := sys.Spawn(func(a *Actor) {
		Handle[float64](a, func(float64) {}) // never answers requests
	})

	var timedOut atomic.Bool
	sys.Spawn(func(a *Actor) {
		Handle[string](a, func(string) {
			a.Request(mute, 10*time.Millisecond).Send(42).Then(
				func(any) {},
				func(e ErrorMsg) {
					if e.Err == ErrRequestTimeout {
						timedOut.Store(true)
					}
				},
			)
		})
		Send(a.Self(), "go")
	})

	require.Eventually(t, func() bool { return timedOut.Load() },
		time.Second, time.Millisecond)
}

func TestSystem_self_terminating_actor_is_reclaimed(t *testing.T) {
	sys := newTestSystem(t)

	addr := sys.Spawn(func(a *Actor) {}) // no behaviors at all
	require.Eventually(t, func() bool { return !addr.Alive() },
		time.Second, time.Millisecond)
}

func TestSystem_linked_actors_stop_together(t *testing.T) {
	sys := newTestSystem(t)

	b := sys.Spawn(func(a *Actor) {
		Handle[int](a, func(int) {})
	})
	a := sys.Spawn(func(a *Actor) {
		Handle[int](a, func(int) {})
		a.LinkTo(b)
	})

	Exit(a, ExitUserShutdown)

	require.Eventually(t, func() bool { return !a.Alive() && !b.Alive() },
		time.Second, time.Millisecond)
}

func TestSystem_shutdown_stops_everything(t *testing.T) {
	sys := NewSystem(SystemConfig{
		Scheduler: SchedulerConfig{
			Workers:         2,
			MinPollInterval: time.Millisecond,
			MaxPollInterval: 5 * time.Millisecond,
		},
	})

	addr := sys.Spawn(func(a *Actor) {
		Handle[int](a, func(int) {})
	})

	sys.Shutdown()
	sys.Shutdown() // idempotent

	require.False(t, addr.Alive(), "no actor survives system shutdown")
	require.False(t, Send(addr, 1))
	require.False(t, sys.Spawn(func(*Actor) {}).Valid(),
		"spawning on a shut-down system yields the zero handle")
}

func TestSystem_busy_actor_does_not_starve_others(t *testing.T) {
	sys := NewSystem(SystemConfig{
		Scheduler: SchedulerConfig{
			Workers:         1, // one worker: fairness must come from the budget
			MaxThroughput:   10,
			MinPollInterval: time.Millisecond,
			MaxPollInterval: 5 * time.Millisecond,
		},
	})
	t.Cleanup(sys.Shutdown)

	busy := sys.Spawn(func(a *Actor) {
		Handle[int](a, func(int) {})
	})
	for i := 0; i < 10_000; i++ {
		Send(busy, i)
	}

	var answered atomic.Bool
	other := sys.Spawn(func(a *Actor) {
		Handle[string](a, func(string) { answered.Store(true) })
	})
	Send(other, "hello")

	require.Eventually(t, func() bool { return answered.Load() },
		time.Second, time.Millisecond)
}

func TestSystem_default_config(t *testing.T) {
	sys := NewSystem(SystemConfig{})
	t.Cleanup(sys.Shutdown)

	require.NotEmpty(t, sys.Name())
	require.EqualValues(t, 50, sys.sched.cfg.MaxThroughput)
	require.Equal(t, 10*time.Millisecond, sys.sched.cfg.MinPollInterval)
	require.Equal(t, 50*time.Millisecond, sys.sched.cfg.MaxPollInterval)
}
