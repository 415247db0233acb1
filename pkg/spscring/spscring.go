// Package spscring is the bounded single-producer/single-consumer ring. 256
// slots, so the slot index is just the low byte of a running counter and the
// modulo is free. One slot is kept open to tell full from empty, leaving 255
// usable.
package spscring

import (
	"sync/atomic"

	"github.com/mutouyun/lock-free-queue/internal/queue"
)

// ElemMax is the slot count: max(uint8)+1, fixed so truncation is the index
// arithmetic.
const ElemMax = 256

type SPSCRing[T any] struct {
	block [ElemMax]T
	rd    atomic.Uint32
	wt    atomic.Uint32
}

func New[T any]() *SPSCRing[T] {
	return &SPSCRing[T]{}
}

func indexOf(v uint32) uint8 { return uint8(v) }

func (q *SPSCRing[T]) Quit() {}

func (q *SPSCRing[T]) Empty() bool {
	return indexOf(q.rd.Load()) == indexOf(q.wt.Load())
}

// Push may only be called from one goroutine.
func (q *SPSCRing[T]) Push(v T) bool {
	wt := q.wt.Load()
	if indexOf(wt) == indexOf(q.rd.Load()-1) {
		return false // full
	}
	q.block[indexOf(wt)] = v
	q.wt.Add(1)
	return true
}

// Pop may only be called from one goroutine.
func (q *SPSCRing[T]) Pop() (T, bool) {
	var zero T
	rd := q.rd.Load()
	if indexOf(rd) == indexOf(q.wt.Load()) {
		return zero, false
	}
	ret := q.block[indexOf(rd)]
	q.rd.Add(1)
	return ret, true
}

var _ queue.Interface[int] = (*SPSCRing[int])(nil)
