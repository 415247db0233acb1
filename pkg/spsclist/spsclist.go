// Package spsclist is the single-producer/single-consumer linked queue. All
// synchronisation reduces to two one-way publishes: the producer owns tail
// and the link out of it, the consumer owns head. The resident dummy node
// keeps head dereferenceable at all times.
package spsclist

import (
	"sync/atomic"

	"github.com/mutouyun/lock-free-queue/internal/queue"
	"github.com/mutouyun/lock-free-queue/internal/tagged"
	"github.com/mutouyun/lock-free-queue/pkg/pool"
)

type SPSCList[T any] struct {
	pool  *pool.TwoSlot[T]
	dummy uint32
	head  atomic.Uint32
	tail  uint32 // producer-only
}

func New[T any]() *SPSCList[T] {
	q := &SPSCList[T]{pool: pool.NewTwoSlot[T]()}
	var zero T
	q.dummy = q.pool.Alloc(zero)
	q.head.Store(q.dummy)
	q.tail = q.dummy
	return q
}

func (q *SPSCList[T]) Quit() {}

func (q *SPSCList[T]) Empty() bool {
	h := q.head.Load()
	return q.pool.At(h).Next().Load().Index() == tagged.None
}

// Push may only be called from one goroutine.
func (q *SPSCList[T]) Push(v T) bool {
	n := q.pool.Alloc(v)
	q.pool.At(q.tail).Next().Reset(n)
	q.tail = n
	return true
}

// Pop may only be called from one goroutine.
func (q *SPSCList[T]) Pop() (T, bool) {
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

var _ queue.Interface[int] = (*SPSCList[int])(nil)
