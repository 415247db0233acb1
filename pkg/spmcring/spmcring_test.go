package spmcring

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedSingleThread(t *testing.T) {
	q := New[int]()
	for i := 0; i < ElemMax-1; i++ {
		require.True(t, q.Push(i))
	}
	assert.False(t, q.Push(999))
	for i := 0; i < ElemMax-1; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

// One producer streams 0..65535, four consumers race the read cursor; each
// value must be observed exactly once.
func TestConsumersObserveEachValueOnce(t *testing.T) {
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
		for !q.Push(uint32(i)) {
			runtime.Gosched()
		}
	}
	done.Store(true)
	wg.Wait()

	for i := 0; i < count; i++ {
		require.Equal(t, int32(1), seen[i].Load(), "value %d", i)
	}
}
