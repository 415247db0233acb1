// Package lockedqueue is the mutex-guarded linked queue. It is the slowest
// member of the family and the correctness oracle the others are tested
// against.
package lockedqueue

import (
	"sync"

	"github.com/mutouyun/lock-free-queue/internal/queue"
	"github.com/mutouyun/lock-free-queue/internal/tagged"
	"github.com/mutouyun/lock-free-queue/pkg/pool"
)

type LockedQueue[T any] struct {
	pool *pool.Locked[T]
	mu   sync.Mutex
	head uint32
	tail uint32
}

func New[T any]() *LockedQueue[T] {
	return &LockedQueue[T]{
		pool: pool.NewLocked[T](),
		head: tagged.None,
		tail: tagged.None,
	}
}

func (q *LockedQueue[T]) Quit() {}

func (q *LockedQueue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.head == tagged.None
}

func (q *LockedQueue[T]) Push(v T) bool {
	idx := q.pool.Alloc(v)
	q.mu.Lock()
	if q.tail == tagged.None {
		q.head = idx
		q.tail = idx
	} else {
		q.pool.At(q.tail).Next().Reset(idx)
		q.tail = idx
	}
	q.mu.Unlock()
	return true
}

func (q *LockedQueue[T]) Pop() (T, bool) {
	var zero T
	q.mu.Lock()
	if q.head == tagged.None {
		q.mu.Unlock()
		return zero, false
	}
	curr := q.head
	n := q.pool.At(curr)
	ret := n.Data
	q.head = n.Next().Load().Index()
	if q.tail == curr {
		q.tail = tagged.None
	}
	q.mu.Unlock()
	q.pool.Free(curr)
	return ret, true
}

var _ queue.Interface[int] = (*LockedQueue[int])(nil)
