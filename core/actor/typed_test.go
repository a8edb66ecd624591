package actor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTyped_send(t *testing.T) {
	sys := newTestSystem(t)

	var got atomic.Int64
	counter := SpawnTyped[int](sys, func(a *Actor) {
		Handle[int](a, func(v int) { got.Add(int64(v)) })
	})

	require.True(t, counter.Valid())
	require.True(t, counter.Send(40))
	require.True(t, counter.Send(2))

	require.Eventually(t, func() bool { return got.Load() == 42 },
		time.Second, time.Millisecond)
}

func TestTyped_request(t *testing.T) {
	sys := newTestSystem(t)

	adder := SpawnTyped[int](sys, func(a *Actor) {
		HandleRequest[int](a, func(x int) (any, error) { return x + 10, nil })
	})

	var result atomic.Int64
	sys.Spawn(func(a *Actor) {
		Handle[string](a, func(string) {
			RequestTyped(a, adder, time.Second, 5).Then(func(v any) {
				result.Store(int64(v.(int)))
			})
		})
		Send(a.Self(), "go")
	})

	require.Eventually(t, func() bool { return result.Load() == 15 },
		time.Second, time.Millisecond)
}

func TestTyped_delayed_send(t *testing.T) {
	sys := newTestSystem(t)

	var fired atomic.Bool
	ticker := SpawnTyped[string](sys, func(a *Actor) {
		Handle[string](a, func(string) { fired.Store(true) })
	})

	require.True(t, ticker.DelayedSend(time.Now().Add(10*time.Millisecond), "tick"))
	require.Eventually(t, func() bool { return fired.Load() },
		time.Second, time.Millisecond)
}

func TestTyped_wrap_existing_address(t *testing.T) {
	sys := newTestSystem(t)

	addr := sys.Spawn(func(a *Actor) {
		Handle[int](a, func(int) {})
	})

	typed := TypedAddr[int](addr)
	require.Equal(t, addr.ID(), typed.Address().ID())
	require.True(t, typed.Send(1))

	sys.Shutdown()
	require.False(t, typed.Send(2), "a typed handle dies with its address")
}
