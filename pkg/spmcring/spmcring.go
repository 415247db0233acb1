// Package spmcring extends the SPSC ring to many consumers: the read cursor
// becomes a CAS loop, the unique producer is unchanged. A consumer reads its
// slot before the CAS; the slot cannot be overwritten until the cursor
// advances past it, so the read is stable even when the CAS loses.
package spmcring

import (
	"sync/atomic"

	"github.com/mutouyun/lock-free-queue/internal/queue"
)

const ElemMax = 256

type SPMCRing[T any] struct {
	block [ElemMax]T
	rd    atomic.Uint32
	wt    atomic.Uint32
}

func New[T any]() *SPMCRing[T] {
	return &SPMCRing[T]{}
}

func indexOf(v uint32) uint8 { return uint8(v) }

func (q *SPMCRing[T]) Quit() {}

func (q *SPMCRing[T]) Empty() bool {
	return indexOf(q.rd.Load()) == indexOf(q.wt.Load())
}

// Push may only be called from one goroutine.
func (q *SPMCRing[T]) Push(v T) bool {
	wt := q.wt.Load()
	if indexOf(wt) == indexOf(q.rd.Load()-1) {
		return false // full
	}
	q.block[indexOf(wt)] = v
	q.wt.Add(1)
	return true
}

func (q *SPMCRing[T]) Pop() (T, bool) {
	var zero T
	for {
		rd := q.rd.Load()
		if indexOf(rd) == indexOf(q.wt.Load()) {
			return zero, false
		}
		ret := q.block[indexOf(rd)]
		if q.rd.CompareAndSwap(rd, rd+1) {
			return ret, true
		}
	}
}

var _ queue.Interface[int] = (*SPMCRing[int])(nil)
