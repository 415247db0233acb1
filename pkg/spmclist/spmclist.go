// Package spmclist is the single-producer/multi-consumer linked queue. The
// producer publishes exactly as in the SPSC variant; consumers race a
// versioned CAS on head, and detached nodes pass through the reclamation
// guard because a losing consumer may still be reading the node the winner
// detached.
package spmclist

import (
	"github.com/mutouyun/lock-free-queue/internal/queue"
	"github.com/mutouyun/lock-free-queue/internal/tagged"
	"github.com/mutouyun/lock-free-queue/pkg/pool"
)

type SPMCList[T any] struct {
	pool  *pool.Tagged[T]
	guard *pool.Guard[T]
	dummy uint32
	head  tagged.Atomic
	tail  uint32 // producer-only
}

func New[T any]() *SPMCList[T] {
	q := &SPMCList[T]{pool: pool.NewTagged[T]()}
	q.guard = pool.NewGuard(q.pool)
	var zero T
	q.dummy = q.pool.Alloc(zero)
	q.head.Reset(q.dummy)
	q.tail = q.dummy
	return q
}

func (q *SPMCList[T]) Quit() {}

func (q *SPMCList[T]) Empty() bool {
	h := q.head.Load().Index()
	return q.pool.At(h).Next().Load().Index() == tagged.None
}

// Push may only be called from one goroutine.
func (q *SPMCList[T]) Push(v T) bool {
	n := q.pool.Alloc(v)
	q.pool.At(q.tail).Next().Store(n)
	q.tail = n
	return true
}

func (q *SPMCList[T]) Pop() (T, bool) {
	var zero T
	q.guard.AddRef()
	head := q.head.Load()
	for {
		next := q.pool.At(head.Index()).Next().Load().Index()
		if next == tagged.None {
			q.guard.Exit()
			return zero, false
		}
		ret := q.pool.At(next).Data
		if q.head.CompareExchange(&head, next) {
			if head.Index() == q.dummy {
				q.guard.Exit()
			} else {
				q.guard.DelRef(head.Index())
			}
			return ret, true
		}
	}
}

var _ queue.Interface[int] = (*SPMCList[int])(nil)
