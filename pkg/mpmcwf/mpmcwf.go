// Package mpmcwf is the wait-free-producer bounded ring. Instead of spinning
// until the write cursor reaches its ticket, a producer publishes its slot
// through a per-slot commit flag and leaves; whoever observes the flag — a
// later producer or a consumer — helps advance the write cursor. A producer
// therefore finishes in a bounded number of its own steps, modulo the length
// of one help cycle.
package mpmcwf

import (
	"sync/atomic"

	"github.com/mutouyun/lock-free-queue/internal/queue"
)

const ElemMax = 256

// invalid is the commit-flag sentinel: the slot holds no published ticket.
const invalid = ^uint64(0)

type MPMCWF[T any] struct {
	block [ElemMax]T
	flags [ElemMax]atomic.Uint64
	rd    atomic.Uint32
	wt    atomic.Uint32
	ct    atomic.Uint32
	quit  atomic.Bool
}

func New[T any]() *MPMCWF[T] {
	q := &MPMCWF[T]{}
	for i := range q.flags {
		q.flags[i].Store(invalid)
	}
	return q
}

func indexOf(v uint32) uint8 { return uint8(v) }

// Quit makes current and future pops return false. Producers may keep
// pushing, the values just become unreachable.
func (q *MPMCWF[T]) Quit() {
	q.quit.Store(true)
}

func (q *MPMCWF[T]) Empty() bool {
	return q.rd.Load() == q.wt.Load()
}

func (q *MPMCWF[T]) Push(v T) bool {
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
	q.flags[indexOf(cur)].Store(uint64(cur))
	q.help()
	return true
}

// help advances wt past every already-published ticket. Exactly one helper
// wins the flag CAS per ticket, and only that winner moves wt, so the cursor
// is single-writer per step. Stopping as soon as the next ticket is not
// published keeps each helper's work bounded.
func (q *MPMCWF[T]) help() {
	for {
		wt := q.wt.Load()
		f := &q.flags[indexOf(wt)]
		if f.Load() != uint64(wt) {
			return
		}
		if f.CompareAndSwap(uint64(wt), invalid) {
			q.wt.Store(wt + 1)
		}
	}
}

func (q *MPMCWF[T]) Pop() (T, bool) {
	var zero T
	for {
		if q.quit.Load() {
			return zero, false
		}
		rd := q.rd.Load()
		wt := q.wt.Load()
		if rd == wt {
			// A producer may have published this very slot without the
			// help cycle reaching it yet; finish its publication
			// ourselves instead of reporting empty.
			if q.flags[indexOf(rd)].Load() == uint64(rd) {
				q.help()
				continue
			}
			return zero, false
		}
		ret := q.block[indexOf(rd)]
		if q.rd.CompareAndSwap(rd, rd+1) {
			return ret, true
		}
	}
}

var _ queue.Interface[int] = (*MPMCWF[int])(nil)
