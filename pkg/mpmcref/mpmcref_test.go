package mpmcref

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
	assert.True(t, q.Empty())
	for i := 0; i < 100; i++ {
		require.True(t, q.Push(i))
	}
	for i := 0; i < 100; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestConservationUnderContention(t *testing.T) {
	const producers = 4
	const consumers = 4
	const perProducer = 25000

	q := New[int64]()

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(int64(i))
			}
		}()
	}

	var sum atomic.Int64
	var popped atomic.Int64
	var cwg sync.WaitGroup
	cwg.Add(consumers)
	var done atomic.Bool

	for c := 0; c < consumers; c++ {
		go func() {
			defer cwg.Done()
			for {
				v, ok := q.Pop()
				if !ok {
					if done.Load() {
						return
					}
					runtime.Gosched()
					continue
				}
				sum.Add(v)
				if popped.Add(1) == producers*perProducer {
					done.Store(true)
				}
			}
		}()
	}

	wg.Wait()
	cwg.Wait()

	want := int64(producers) * int64(perProducer) * int64(perProducer-1) / 2
	assert.Equal(t, want, sum.Load())
	assert.True(t, q.Empty())
}

// Tight drain/refill cycles churn nodes through the counters; a double free
// or premature reclaim shows up as a lost or duplicated value.
func TestRefCountsRecycleNodes(t *testing.T) {
	const rounds = 100
	const batch = 64

	q := New[int]()
	for r := 0; r < rounds; r++ {
		for i := 0; i < batch; i++ {
			q.Push(i)
		}
		for i := 0; i < batch; i++ {
			v, ok := q.Pop()
			require.True(t, ok)
			require.Equal(t, i, v)
		}
	}
	assert.True(t, q.Empty())
}
