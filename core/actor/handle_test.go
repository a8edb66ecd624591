package actor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRef_counting(t *testing.T) {
	dropped := false
	r := NewRef(42, func(int) { dropped = true })
	require.True(t, r.Valid())
	require.Equal(t, 42, r.Value())
	require.Equal(t, 1, r.RefCount())

	r2 := r.Retain()
	require.Equal(t, 2, r.RefCount())

	r2.Release()
	require.False(t, dropped)
	r.Release()
	require.True(t, dropped)
}

func TestWeakRef_upgrade(t *testing.T) {
	r := NewRef("v", nil)
	w := r.Weak()

	s, ok := w.Upgrade()
	require.True(t, ok)
	require.Equal(t, "v", s.Value())
	require.Equal(t, 2, r.RefCount())
	s.Release()

	r.Release()
	_, ok = w.Upgrade()
	require.False(t, ok, "upgrade must fail once the strong count reached zero")
}

func TestWeakRef_zero_value(t *testing.T) {
	var w WeakRef[int]
	require.False(t, w.Valid())
	_, ok := w.Upgrade()
	require.False(t, ok)
}

func TestWeakRef_concurrent_upgrade(t *testing.T) {
	r := NewRef(1, nil)
	w := r.Weak()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if s, ok := w.Upgrade(); ok {
					s.Release()
				}
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, r.RefCount())
	r.Release()
	_, ok := w.Upgrade()
	require.False(t, ok)
}
