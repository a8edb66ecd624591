package registry

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/joakim-brannstrom/my/core/actor"
)

func newTestSystem(t *testing.T) *actor.System {
	t.Helper()
	sys := actor.NewSystem(actor.SystemConfig{
		Name: "registry-test",
		Scheduler: actor.SchedulerConfig{
			Workers:         2,
			MinPollInterval: time.Millisecond,
			MaxPollInterval: 5 * time.Millisecond,
		},
	})
	t.Cleanup(sys.Shutdown)
	return sys
}

func spawnEcho(sys *actor.System) actor.WeakAddress {
	return sys.Spawn(func(a *actor.Actor) {
		actor.HandleRequest[string](a, func(s string) (any, error) { return s, nil })
	})
}

func TestRegistry_register_and_lookup(t *testing.T) {
	sys := newTestSystem(t)
	r := New(sys)

	addr := spawnEcho(sys)
	require.NoError(t, r.Register("echo", addr))

	got, ok := r.Lookup("echo")
	require.True(t, ok)
	require.Equal(t, addr.ID(), got.ID())

	_, ok = r.Lookup("nope")
	require.False(t, ok)
}

func TestRegistry_name_taken(t *testing.T) {
	sys := newTestSystem(t)
	r := New(sys)

	require.NoError(t, r.Register("echo", spawnEcho(sys)))
	err := r.Register("echo", spawnEcho(sys))
	require.ErrorIs(t, err, ErrNameTaken)
}

func TestRegistry_invalid_address(t *testing.T) {
	r := New(newTestSystem(t))
	require.Error(t, r.Register("zero", actor.WeakAddress{}))
}

func TestRegistry_dead_binding_is_pruned(t *testing.T) {
	sys := newTestSystem(t)
	r := New(sys)

	addr := spawnEcho(sys)
	require.NoError(t, r.Register("echo", addr))

	actor.Exit(addr, actor.ExitKill)
	require.Eventually(t, func() bool { return !addr.Alive() },
		time.Second, time.Millisecond)

	_, ok := r.Lookup("echo")
	require.False(t, ok)

	// The name is free again.
	require.NoError(t, r.Register("echo", spawnEcho(sys)))
}

func TestRegistry_deregister(t *testing.T) {
	sys := newTestSystem(t)
	r := New(sys)

	require.NoError(t, r.Register("echo", spawnEcho(sys)))
	r.Deregister("echo")

	_, ok := r.Lookup("echo")
	require.False(t, ok)
}

func TestRegistry_get_or_spawn(t *testing.T) {
	sys := newTestSystem(t)
	r := New(sys)

	var built atomic.Int64
	factory := func(a *actor.Actor) {
		built.Add(1)
		actor.HandleRequest[int](a, func(x int) (any, error) { return x, nil })
	}

	first, err := r.GetOrSpawn("worker", factory)
	require.NoError(t, err)
	second, err := r.GetOrSpawn("worker", factory)
	require.NoError(t, err)

	require.Equal(t, first.ID(), second.ID())
	require.EqualValues(t, 1, built.Load())
}

func TestRegistry_get_or_spawn_concurrent(t *testing.T) {
	sys := newTestSystem(t)
	r := New(sys)

	var built atomic.Int64
	factory := func(a *actor.Actor) {
		built.Add(1)
		actor.Handle[int](a, func(int) {})
	}

	const callers = 16
	addrs := make([]actor.WeakAddress, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			addr, err := r.GetOrSpawn("shared", factory)
			require.NoError(t, err)
			addrs[i] = addr
		}(i)
	}
	wg.Wait()

	require.EqualValues(t, 1, built.Load(), "concurrent misses collapse to one spawn")
	for _, addr := range addrs[1:] {
		require.Equal(t, addrs[0].ID(), addr.ID())
	}
}

func TestRegistry_names(t *testing.T) {
	sys := newTestSystem(t)
	r := New(sys)

	require.NoError(t, r.Register("a", spawnEcho(sys)))
	require.NoError(t, r.Register("b", spawnEcho(sys)))
	require.ElementsMatch(t, []string{"a", "b"}, r.Names())
	require.Equal(t, 2, r.Len())
}
