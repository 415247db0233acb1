package spmclist

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPopSingleThread(t *testing.T) {
	q := New[int]()
	for i := 0; i < 20; i++ {
		require.True(t, q.Push(i))
	}
	for i := 0; i < 20; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

// One producer, many consumers: every value must be observed exactly once.
func TestOneProducerManyConsumers(t *testing.T) {
	const consumers = 4
	const count = 65536

	q := New[uint32]()
	seen := make([]atomic.Int32, count)

	var wg sync.WaitGroup
	wg.Add(consumers)
	var done atomic.Bool

	for c := 0; c < consumers; c++ {
		go func() {
			defer wg.Done()
			for {
				v, ok := q.Pop()
				if ok {
					seen[v].Add(1)
					continue
				}
				if done.Load() && q.Empty() {
					return
				}
				runtime.Gosched()
			}
		}()
	}

	for i := 0; i < count; i++ {
		q.Push(uint32(i))
	}
	done.Store(true)
	wg.Wait()

	for i := 0; i < count; i++ {
		require.Equal(t, int32(1), seen[i].Load(), "value %d", i)
	}
	assert.True(t, q.Empty())
}
