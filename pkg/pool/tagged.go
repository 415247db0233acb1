package pool

import (
	"github.com/mutouyun/lock-free-queue/internal/tagged"
)

// Tagged recycles cells through a Treiber stack whose head is a versioned
// word, closing the rare ABA window the raw-head stack tolerates.
type Tagged[T any] struct {
	slab slab[T]
	head tagged.Atomic
}

func NewTagged[T any]() *Tagged[T] {
	p := &Tagged[T]{}
	p.head.Reset(tagged.None)
	return p
}

func (p *Tagged[T]) At(idx uint32) *Node[T] { return p.slab.at(idx) }

func (p *Tagged[T]) Empty() bool {
	return p.head.Load().Index() == tagged.None
}

func (p *Tagged[T]) Alloc(v T) uint32 {
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

func (p *Tagged[T]) Free(idx uint32) {
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
