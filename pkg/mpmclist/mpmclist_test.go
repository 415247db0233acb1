package mpmclist

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
	assert.True(t, q.Empty())
}

func TestQuitIsANoOp(t *testing.T) {
	q := New[int]()
	q.Quit()
	require.True(t, q.Push(1))
	v, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

// Producers push tagged ranges, consumers pop until every value has been
// counted. Conservation (by count) and per-producer FIFO are both checked.
func TestManyProducersManyConsumers(t *testing.T) {
	const producers = 4
	const consumers = 4
	const perProducer = 25000

	q := New[uint64]()

	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		go func(id uint64) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(id<<32 | uint64(i))
			}
		}(uint64(p))
	}

	var popped atomic.Int64
	lastSeq := make([][]int64, consumers)
	var cwg sync.WaitGroup
	cwg.Add(consumers)
	var done atomic.Bool
	var outOfOrder atomic.Int64

	for c := 0; c < consumers; c++ {
		lastSeq[c] = make([]int64, producers)
		for i := range lastSeq[c] {
			lastSeq[c][i] = -1
		}
		go func(mine []int64) {
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
				id := v >> 32
				seq := int64(v & 0xffffffff)
				// A single consumer must see each producer's values in
				// ascending order even when other consumers interleave.
				if seq <= mine[id] {
					outOfOrder.Add(1)
				}
				mine[id] = seq
				if popped.Add(1) == producers*perProducer {
					done.Store(true)
				}
			}
		}(lastSeq[c])
	}

	wg.Wait()
	cwg.Wait()

	assert.Zero(t, outOfOrder.Load())
	assert.Equal(t, int64(producers*perProducer), popped.Load())
	assert.True(t, q.Empty())
}

// Drain-and-refill cycles force detached nodes through the guard and the
// pool back into circulation.
func TestNodesRecycleUnderContention(t *testing.T) {
	const rounds = 50
	const batch = 100

	q := New[int]()
	for r := 0; r < rounds; r++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < batch; i++ {
				q.Push(i)
			}
		}()
		var got atomic.Int64
		go func() {
			defer wg.Done()
			for got.Load() < batch {
				if _, ok := q.Pop(); ok {
					got.Add(1)
				} else {
					runtime.Gosched()
				}
			}
		}()
		wg.Wait()
		assert.True(t, q.Empty())
	}
}
