package pool

import (
	"sync/atomic"

	"github.com/mutouyun/lock-free-queue/internal/tagged"
)

// TwoSlot fronts the tagged stack with a single atomic "express" cell. A
// free/alloc pair in close succession trades the cell through the slot and
// never touches the stack, which absorbs most of the traffic of the
// one-in-one-out pattern the queues generate.
type TwoSlot[T any] struct {
	slab    slab[T]
	express atomic.Uint32
	head    tagged.Atomic
}

func NewTwoSlot[T any]() *TwoSlot[T] {
	p := &TwoSlot[T]{}
	p.express.Store(tagged.None)
	p.head.Reset(tagged.None)
	return p
}

func (p *TwoSlot[T]) At(idx uint32) *Node[T] { return p.slab.at(idx) }

func (p *TwoSlot[T]) Empty() bool {
	return p.express.Load() == tagged.None &&
		p.head.Load().Index() == tagged.None
}

func (p *TwoSlot[T]) Alloc(v T) uint32 {
	if idx := p.express.Swap(tagged.None); idx != tagged.None {
		prime(p.slab.at(idx), v)
		return idx
	}
	curr := p.head.Load()
	for {
		if curr.Index() == tagged.None {
			idx := p.slab.carve()
			prime(p.slab.at(idx), v)
			return idx
		}
		next := p.slab.at(curr.Index()).next.Load().Index()
		if p.head.CompareExchange(&curr, next) {
			prime(p.slab.at(curr.Index()), v)
			return curr.Index()
		}
	}
}

func (p *TwoSlot[T]) Free(idx uint32) {
	if idx == tagged.None {
		return
	}
	// Park the cell in the express slot; whatever it displaces goes to the
	// stack instead.
	idx = p.express.Swap(idx)
	if idx == tagged.None {
		return
	}
	n := p.slab.at(idx)
	curr := p.head.Load()
	for {
		n.next.Reset(curr.Index())
		if p.head.CompareExchange(&curr, idx) {
			return
		}
	}
}
