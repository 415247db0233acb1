// Package mpsclist is the multi-producer/single-consumer linked queue.
// Producers insert with a single atomic exchange on tail followed by the
// link-out store. Between those two steps the chain has a transient hole: the
// consumer observes an apparently empty queue and must poll. Lock-free, not
// wait-free, on the producer side.
package mpsclist

import (
	"sync/atomic"

	"github.com/mutouyun/lock-free-queue/internal/queue"
	"github.com/mutouyun/lock-free-queue/internal/tagged"
	"github.com/mutouyun/lock-free-queue/pkg/pool"
)

type MPSCList[T any] struct {
	pool  *pool.Atomic[T]
	dummy uint32
	head  atomic.Uint32
	tail  atomic.Uint32
}

func New[T any]() *MPSCList[T] {
	q := &MPSCList[T]{pool: pool.NewAtomic[T]()}
	var zero T
	q.dummy = q.pool.Alloc(zero)
	q.head.Store(q.dummy)
	q.tail.Store(q.dummy)
	return q
}

func (q *MPSCList[T]) Quit() {}

func (q *MPSCList[T]) Empty() bool {
	h := q.head.Load()
	return q.pool.At(h).Next().Load().Index() == tagged.None
}

func (q *MPSCList[T]) Push(v T) bool {
	n := q.pool.Alloc(v)
	prev := q.tail.Swap(n)
	q.pool.At(prev).Next().Reset(n)
	return true
}

// Pop may only be called from one goroutine. A false return means no element
// was visible; with a producer stalled mid-insert the caller simply polls
// again.
func (q *MPSCList[T]) Pop() (T, bool) {
	var zero T
	curr := q.head.Load()
	next := q.pool.At(curr).Next().Load().Index()
	if next == tagged.None {
		return zero, false
	}
	ret := q.pool.At(next).Data
	q.head.Store(next)
	if curr != q.dummy {
		q.pool.Free(curr)
	}
	return ret, true
}

var _ queue.Interface[int] = (*MPSCList[int])(nil)
