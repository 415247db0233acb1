// Package mpmclist is the Michael–Scott multi-producer/multi-consumer linked
// queue. Head and tail are versioned words, so a node recycled through the
// pool can never satisfy a CAS taken against a stale snapshot. Consumers run
// inside the reclamation guard: the value read out of head.next happens
// before the head CAS, and the guard keeps the node alive until every
// consumer that could have seen it has left.
package mpmclist

import (
	"github.com/mutouyun/lock-free-queue/internal/queue"
	"github.com/mutouyun/lock-free-queue/internal/tagged"
	"github.com/mutouyun/lock-free-queue/pkg/pool"
)

type MPMCList[T any] struct {
	pool  *pool.Tagged[T]
	guard *pool.Guard[T]
	head  tagged.Atomic
	tail  tagged.Atomic
}

func New[T any]() *MPMCList[T] {
	q := &MPMCList[T]{pool: pool.NewTagged[T]()}
	q.guard = pool.NewGuard(q.pool)
	var zero T
	dummy := q.pool.Alloc(zero)
	q.head.Reset(dummy)
	q.tail.Reset(dummy)
	return q
}

func (q *MPMCList[T]) Quit() {}

func (q *MPMCList[T]) Empty() bool {
	h := q.head.Load().Index()
	return q.pool.At(h).Next().Load().Index() == tagged.None
}

func (q *MPMCList[T]) Push(v T) bool {
	p := q.pool.Alloc(v)
	tail := q.tail.Load()
	for {
		tn := q.pool.At(tail.Index()).Next()
		next := tn.Load()
		if tail == q.tail.Load() {
			if next.Index() == tagged.None {
				if tn.CompareExchange(&next, p) {
					// Swing tail; a failure means someone helped us.
					q.tail.CompareExchange(&tail, p)
					return true
				}
			} else if !q.tail.CompareExchange(&tail, next.Index()) {
				// Tail lagged; help-advance refreshed our snapshot.
				continue
			}
		}
		tail = q.tail.Load()
	}
}

func (q *MPMCList[T]) Pop() (T, bool) {
	var ret T
	q.guard.AddRef()
	head := q.head.Load()
	tail := q.tail.Load()
	for {
		next := q.pool.At(head.Index()).Next().Load().Index()
		if head == q.head.Load() {
			if head.Index() == tail.Index() {
				if next == tagged.None {
					q.guard.Exit()
					return ret, false
				}
				// Help a stalled producer before retrying; skipping
				// this lets one stall block every consumer.
				q.tail.CompareExchange(&tail, next)
			} else {
				ret = q.pool.At(next).Data
				if q.head.CompareExchange(&head, next) {
					q.guard.DelRef(head.Index())
					return ret, true
				}
				tail = q.tail.Load()
				continue
			}
		}
		head = q.head.Load()
		tail = q.tail.Load()
	}
}

var _ queue.Interface[int] = (*MPMCList[int])(nil)
