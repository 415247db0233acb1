// Package mpmcref is the Michael–Scott queue with per-node reference counts
// instead of the global quiescence guard. Every live node starts at count 1;
// a consumer CAS-raises the count from an observed nonzero value before
// dereferencing, and an observed zero means the node was already reclaimed,
// so the consumer restarts from head. No global synchronisation, at the price
// of two CAS per pop.
package mpmcref

import (
	"github.com/mutouyun/lock-free-queue/internal/queue"
	"github.com/mutouyun/lock-free-queue/internal/tagged"
	"github.com/mutouyun/lock-free-queue/pkg/pool"
)

type MPMCRef[T any] struct {
	pool *pool.Tagged[T]
	head tagged.Atomic
	tail tagged.Atomic
}

func New[T any]() *MPMCRef[T] {
	q := &MPMCRef[T]{pool: pool.NewTagged[T]()}
	var zero T
	dummy := q.pool.Alloc(zero)
	q.head.Reset(dummy)
	q.tail.Reset(dummy)
	return q
}

func (q *MPMCRef[T]) Quit() {}

func (q *MPMCRef[T]) Empty() bool {
	h := q.head.Load().Index()
	return q.pool.At(h).Next().Load().Index() == tagged.None
}

// acquire pins idx against reclamation. False means the node hit zero first
// and its storage may already be recycled.
func (q *MPMCRef[T]) acquire(idx uint32) bool {
	refs := q.pool.At(idx).Refs()
	for {
		r := refs.Load()
		if r <= 0 {
			return false
		}
		if refs.CompareAndSwap(r, r+1) {
			return true
		}
	}
}

// release drops one pin and frees the cell on the last one.
func (q *MPMCRef[T]) release(idx uint32) {
	if q.pool.At(idx).Refs().Add(-1) == 0 {
		q.pool.Free(idx)
	}
}

func (q *MPMCRef[T]) Push(v T) bool {
	p := q.pool.Alloc(v)
	tail := q.tail.Load()
	for {
		tn := q.pool.At(tail.Index()).Next()
		next := tn.Load()
		if tail == q.tail.Load() {
			if next.Index() == tagged.None {
				if tn.CompareExchange(&next, p) {
					q.tail.CompareExchange(&tail, p)
					return true
				}
			} else if !q.tail.CompareExchange(&tail, next.Index()) {
				continue
			}
		}
		tail = q.tail.Load()
	}
}

func (q *MPMCRef[T]) Pop() (T, bool) {
	var zero T
	for {
		head := q.head.Load()
		h := head.Index()
		if !q.acquire(h) {
			continue
		}
		if q.head.Load() != head {
			// Pinned a node that already left head; try again.
			q.release(h)
			continue
		}
		next := q.pool.At(h).Next().Load().Index()
		if next == tagged.None {
			q.release(h)
			return zero, false
		}
		if !q.acquire(next) {
			q.release(h)
			continue
		}
		ret := q.pool.At(next).Data
		if q.head.CompareExchange(&head, next) {
			q.release(next)
			// Drop our pin and the detached node's own liveness count;
			// the storage recycles once the last reader lets go.
			q.release(h)
			q.release(h)
			return ret, true
		}
		q.release(next)
		q.release(h)
	}
}

var _ queue.Interface[int] = (*MPMCRef[int])(nil)
