// Package condqueue is the blocking wrapper: a mutex and a condition
// variable around the unsynchronised linked queue. Pop parks until an
// element arrives or Quit is called. The wait is a re-polling loop, so a
// signal consumed by a pop that then finds the queue empty (another pop got
// there first) costs a spurious wakeup, never a lost element.
package condqueue

import (
	"sync"

	"github.com/mutouyun/lock-free-queue/internal/queue"
	"github.com/mutouyun/lock-free-queue/pkg/unsafequeue"
)

type CondQueue[T any] struct {
	mu   sync.Mutex
	cond *sync.Cond
	base *unsafequeue.UnsafeQueue[T]
	quit bool
}

func New[T any]() *CondQueue[T] {
	q := &CondQueue[T]{base: unsafequeue.New[T]()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *CondQueue[T]) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.base.Empty()
}

func (q *CondQueue[T]) Push(v T) bool {
	q.mu.Lock()
	ret := q.base.Push(v)
	q.mu.Unlock()
	q.cond.Signal()
	return ret
}

// Pop blocks until an element is available or Quit is called. After Quit it
// returns false even if elements remain.
func (q *CondQueue[T]) Pop() (T, bool) {
	var zero T
	q.mu.Lock()
	defer q.mu.Unlock()
	for !q.quit {
		if v, ok := q.base.Pop(); ok {
			return v, true
		}
		q.cond.Wait()
	}
	return zero, false
}

// Quit wakes every parked Pop and makes all future pops return false.
// Idempotent.
func (q *CondQueue[T]) Quit() {
	q.mu.Lock()
	q.quit = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

var _ queue.Interface[int] = (*CondQueue[int])(nil)
