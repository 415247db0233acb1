package pool

import (
	"sync"

	"github.com/mutouyun/lock-free-queue/internal/tagged"
)

// Locked is the simplest allocator: one mutex over the free-list head.
type Locked[T any] struct {
	slab slab[T]
	mu   sync.Mutex
	free uint32
}

func NewLocked[T any]() *Locked[T] {
	return &Locked[T]{free: tagged.None}
}

func (p *Locked[T]) At(idx uint32) *Node[T] { return p.slab.at(idx) }

func (p *Locked[T]) Empty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free == tagged.None
}

func (p *Locked[T]) Alloc(v T) uint32 {
	p.mu.Lock()
	idx := p.free
	if idx != tagged.None {
		p.free = p.slab.at(idx).next.Load().Index()
	}
	p.mu.Unlock()
	if idx == tagged.None {
		idx = p.slab.carve()
	}
	n := p.slab.at(idx)
	prime(n, v)
	return idx
}

func (p *Locked[T]) Free(idx uint32) {
	if idx == tagged.None {
		return
	}
	n := p.slab.at(idx)
	p.mu.Lock()
	n.next.Reset(p.free)
	p.free = idx
	p.mu.Unlock()
}
