// Package unsafequeue is a linked FIFO queue with no synchronisation of its
// own. It is only safe for a single goroutine, or under an external lock —
// the blocking wrapper in pkg/condqueue uses it that way.
package unsafequeue

import (
	"github.com/mutouyun/lock-free-queue/internal/queue"
	"github.com/mutouyun/lock-free-queue/internal/tagged"
	"github.com/mutouyun/lock-free-queue/pkg/pool"
)

type UnsafeQueue[T any] struct {
	pool *pool.Locked[T]
	head uint32
	tail uint32
}

func New[T any]() *UnsafeQueue[T] {
	return &UnsafeQueue[T]{
		pool: pool.NewLocked[T](),
		head: tagged.None,
		tail: tagged.None,
	}
}

func (q *UnsafeQueue[T]) Quit() {}

func (q *UnsafeQueue[T]) Empty() bool {
	return q.head == tagged.None
}

func (q *UnsafeQueue[T]) Push(v T) bool {
	idx := q.pool.Alloc(v)
	if q.tail == tagged.None {
		q.head = idx
		q.tail = idx
	} else {
		q.pool.At(q.tail).Next().Reset(idx)
		q.tail = idx
	}
	return true
}

func (q *UnsafeQueue[T]) Pop() (T, bool) {
	var zero T
	if q.head == tagged.None {
		return zero, false
	}
	curr := q.head
	n := q.pool.At(curr)
	ret := n.Data
	q.head = n.Next().Load().Index()
	if q.tail == curr {
		q.tail = tagged.None
	}
	q.pool.Free(curr)
	return ret, true
}

var _ queue.Interface[int] = (*UnsafeQueue[int])(nil)
