// Package mpmcring is the bounded multi-producer/multi-consumer ring with a
// commit cursor. Producers CAS-advance ct to take a ticket, write their slot,
// then spin the write cursor forward from their own ticket — so publication
// happens strictly in ticket order. That producer-side spin is the "lock";
// consumers are the same CAS loop as the SPMC ring.
package mpmcring

import (
	"runtime"
	"sync/atomic"

	"github.com/mutouyun/lock-free-queue/internal/queue"
)

const ElemMax = 256

type MPMCRing[T any] struct {
	block [ElemMax]T
	rd    atomic.Uint32
	wt    atomic.Uint32
	ct    atomic.Uint32 // commit cursor: tickets handed to producers
}

func New[T any]() *MPMCRing[T] {
	return &MPMCRing[T]{}
}

func indexOf(v uint32) uint8 { return uint8(v) }

func (q *MPMCRing[T]) Quit() {}

func (q *MPMCRing[T]) Empty() bool {
	return indexOf(q.rd.Load()) == indexOf(q.wt.Load())
}

func (q *MPMCRing[T]) Push(v T) bool {
	var cur, nxt uint32
	for {
		cur = q.ct.Load()
		nxt = cur + 1
		if indexOf(nxt) == indexOf(q.rd.Load()) {
			return false // full
		}
		if q.ct.CompareAndSwap(cur, nxt) {
			break
		}
	}
	q.block[indexOf(cur)] = v
	// Publish in ticket order: wait for wt to reach our ticket.
	for !q.wt.CompareAndSwap(cur, nxt) {
		runtime.Gosched()
	}
	return true
}

func (q *MPMCRing[T]) Pop() (T, bool) {
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

var _ queue.Interface[int] = (*MPMCRing[int])(nil)
