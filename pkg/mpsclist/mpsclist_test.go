package mpsclist

import (
	"runtime"
	"sync"
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

// Many producers, one consumer. Checks conservation of the multiset and
// per-producer FIFO: values are encoded producer<<32|seq and each producer's
// sequence must arrive ascending.
func TestManyProducersOneConsumer(t *testing.T) {
	const producers = 8
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

	lastSeq := make([]int64, producers)
	for i := range lastSeq {
		lastSeq[i] = -1
	}
	received := 0
	for received < producers*perProducer {
		v, ok := q.Pop()
		if !ok {
			// A producer parked between its exchange and the link-out
			// store looks like an empty queue; poll past it.
			runtime.Gosched()
			continue
		}
		id := v >> 32
		seq := int64(v & 0xffffffff)
		require.Greater(t, seq, lastSeq[id], "per-producer order violated")
		lastSeq[id] = seq
		received++
	}
	wg.Wait()

	for p := 0; p < producers; p++ {
		assert.Equal(t, int64(perProducer-1), lastSeq[p])
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}
