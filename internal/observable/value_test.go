package observable

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_GetSet(t *testing.T) {
	v := New(1)
	assert.Equal(t, 1, v.Get())
	v.Set(5)
	assert.Equal(t, 5, v.Get())
}

func TestValue_SubscribeReceivesLaterSets(t *testing.T) {
	v := New("idle")
	ch, cancel := v.Subscribe(4)
	defer cancel()

	v.Set("loading")
	v.Set("loaded")

	assert.Equal(t, "loading", <-ch)
	assert.Equal(t, "loaded", <-ch)
	assert.Len(t, ch, 0)
}

func TestValue_FullBufferDropsWithoutBlocking(t *testing.T) {
	v := New(0)
	ch, cancel := v.Subscribe(1)
	defer cancel()

	v.Set(1)
	v.Set(2)

	assert.Equal(t, 1, <-ch)
	assert.Equal(t, 2, v.Get())

	v.Set(3)
	assert.Equal(t, 3, <-ch)
}

func TestValue_CancelClosesAndIsIdempotent(t *testing.T) {
	v := New(0)
	ch, cancel := v.Subscribe(1)
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	require.NotPanics(t, func() { v.Set(1) })
}

func TestValue_CloseAll(t *testing.T) {
	v := New(0)
	a, cancelA := v.Subscribe(1)
	b, _ := v.Subscribe(1)
	v.Close()

	_, okA := <-a
	_, okB := <-b
	assert.False(t, okA)
	assert.False(t, okB)
	require.NotPanics(t, cancelA)
}

func TestValue_SubscribeAfterClose(t *testing.T) {
	v := New(0)
	v.Close()

	ch, cancel := v.Subscribe(1)
	_, ok := <-ch
	assert.False(t, ok)
	require.NotPanics(t, cancel)
	require.NotPanics(t, func() { v.Set(2) })
	assert.Equal(t, 2, v.Get())
}

func TestValue_CancelRacingClose(t *testing.T) {
	for i := 0; i < 100; i++ {
		v := New(0)
		_, cancel := v.Subscribe(1)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); cancel() }()
		go func() { defer wg.Done(); v.Close() }()
		require.NotPanics(t, wg.Wait)
	}
}

func TestValue_ConcurrentSet(t *testing.T) {
	v := New(0)
	ch, cancel := v.Subscribe(100)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			v.Set(n)
		}(i)
	}
	wg.Wait()
	assert.Len(t, ch, 50)
}
