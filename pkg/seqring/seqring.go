// Package seqring is a bounded MPMC ring driven by per-cell sequence
// numbers: a cell is writable for position p when its sequence equals p and
// readable when it equals p+1. It carries no ticket ordering and no commit
// flags, which makes it the baseline the commit-cursor rings are measured
// against. Cells are padded so neighbouring slots do not share cache lines.
package seqring

import (
	"runtime"
	"sync/atomic"

	"github.com/mutouyun/lock-free-queue/internal/queue"
)

// DefaultCap matches the other bounded rings.
const DefaultCap = 256

type cell[T any] struct {
	_pad0    [8]uint64
	sequence atomic.Uint64
	value    T
	_pad1    [8]uint64
}

type SeqRing[T any] struct {
	buffer   []cell[T]
	mask     uint64
	capacity uint64
	_pad0    [8]uint64
	enqueue  atomic.Uint64
	_pad1    [8]uint64
	dequeue  atomic.Uint64
	_pad2    [8]uint64
}

// New creates a ring with the given capacity, rounded up to a power of two.
// Zero means DefaultCap.
func New[T any](capacity uint64) *SeqRing[T] {
	if capacity == 0 {
		capacity = DefaultCap
	}
	if capacity&(capacity-1) != 0 {
		pow := uint64(1)
		for pow < capacity {
			pow <<= 1
		}
		capacity = pow
	}
	q := &SeqRing[T]{
		buffer:   make([]cell[T], capacity),
		mask:     capacity - 1,
		capacity: capacity,
	}
	for i := uint64(0); i < capacity; i++ {
		q.buffer[i].sequence.Store(i)
	}
	return q
}

func (q *SeqRing[T]) Quit() {}

func (q *SeqRing[T]) Empty() bool {
	return q.enqueue.Load() == q.dequeue.Load()
}

func (q *SeqRing[T]) Push(v T) bool {
	for {
		pos := q.enqueue.Load()
		c := &q.buffer[pos&q.mask]
		seq := c.sequence.Load()
		diff := int64(seq) - int64(pos)
		if diff == 0 {
			if q.enqueue.CompareAndSwap(pos, pos+1) {
				c.value = v
				c.sequence.Store(pos + 1)
				return true
			}
		} else if diff < 0 {
			// The cell has not recycled since the previous lap.
			return false
		}
		// diff > 0: another producer claimed pos; reload and retry.
	}
}

func (q *SeqRing[T]) Pop() (T, bool) {
	var zero T
	for {
		pos := q.dequeue.Load()
		c := &q.buffer[pos&q.mask]
		seq := c.sequence.Load()
		diff := int64(seq) - int64(pos+1)
		if diff == 0 {
			if q.dequeue.CompareAndSwap(pos, pos+1) {
				ret := c.value
				c.sequence.Store(pos + q.capacity)
				return ret, true
			}
		} else if diff < 0 {
			if q.enqueue.Load() == pos {
				return zero, false
			}
			// Claimed but not yet written; the value is coming.
			runtime.Gosched()
		}
	}
}

var _ queue.Interface[int] = (*SeqRing[int])(nil)
