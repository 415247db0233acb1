package pool

import (
	"sync/atomic"

	"github.com/mutouyun/lock-free-queue/internal/tagged"
)

// Atomic recycles cells through a Treiber stack CASed on a raw 32-bit head.
// The head carries no version: every cell has the same shape, so the worst a
// stale CAS winner can do is relink cells of this same pool.
type Atomic[T any] struct {
	slab slab[T]
	head atomic.Uint32
}

func NewAtomic[T any]() *Atomic[T] {
	p := &Atomic[T]{}
	p.head.Store(tagged.None)
	return p
}

func (p *Atomic[T]) At(idx uint32) *Node[T] { return p.slab.at(idx) }

func (p *Atomic[T]) Empty() bool {
	return p.head.Load() == tagged.None
}

func (p *Atomic[T]) Alloc(v T) uint32 {
	for {
		curr := p.head.Load()
		if curr == tagged.None {
			idx := p.slab.carve()
			prime(p.slab.at(idx), v)
			return idx
		}
		next := p.slab.at(curr).next.Load().Index()
		if p.head.CompareAndSwap(curr, next) {
			prime(p.slab.at(curr), v)
			return curr
		}
	}
}

func (p *Atomic[T]) Free(idx uint32) {
	if idx == tagged.None {
		return
	}
	n := p.slab.at(idx)
	for {
		curr := p.head.Load()
		n.next.Reset(curr)
		if p.head.CompareAndSwap(curr, idx) {
			return
		}
	}
}
