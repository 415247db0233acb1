// Package pool provides the node storage shared by the linked-list queues: a
// grow-only slab addressed by 32-bit indices, a family of free-list
// allocators over it, and the deferred-reclamation guard used by the
// multi-consumer variants.
//
// Cells never return to the Go runtime while the pool is alive; Free only
// threads them back onto the pool's own free list. The slab keeps whole
// blocks reachable, so a stale reader dereferencing a recycled index always
// lands on valid (if reused) memory — the tagged words on queue heads are
// what turn such stale reads into failed CAS instead of corruption.
package pool

import (
	"sync"
	"sync/atomic"

	"github.com/mutouyun/lock-free-queue/internal/tagged"
)

const (
	blockShift = 9
	blockSize  = 1 << blockShift
	blockMask  = blockSize - 1
)

// Node is one slab cell. Data is live while the cell is outside the free
// list; the next link doubles as the free-chain link while the cell is free,
// the same storage-sharing the original design expressed as a union.
type Node[T any] struct {
	Data T
	next tagged.Atomic
	refs atomic.Int32
}

// Next exposes the link word. Queues use it for list linkage, the pool for
// free-chain linkage; the two uses never overlap in time.
func (n *Node[T]) Next() *tagged.Atomic { return &n.next }

// Refs is the per-node reference counter. Only the per-node reclamation
// strategy reads or writes it; everything else leaves it at its Alloc value.
func (n *Node[T]) Refs() *atomic.Int32 { return &n.refs }

// slab is the grow-only arena. Blocks are fixed-size so an index resolves
// with a shift and a mask; the block table is copied on growth and published
// atomically so At never takes the mutex.
type slab[T any] struct {
	mu     sync.Mutex
	blocks atomic.Pointer[[]*[blockSize]Node[T]]
	used   uint32 // cells carved so far, guarded by mu
}

func (s *slab[T]) at(idx uint32) *Node[T] {
	blocks := *s.blocks.Load()
	return &blocks[idx>>blockShift][idx&blockMask]
}

// carve hands out a never-used cell, growing the block table if needed.
func (s *slab[T]) carve() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.used
	blk := int(idx >> blockShift)
	var blocks []*[blockSize]Node[T]
	if p := s.blocks.Load(); p != nil {
		blocks = *p
	}
	if blk == len(blocks) {
		grown := make([]*[blockSize]Node[T], len(blocks)+1)
		copy(grown, blocks)
		grown[blk] = new([blockSize]Node[T])
		s.blocks.Store(&grown)
	}
	s.used++
	return idx
}

// prime initialises a cell handed out by any allocator.
func prime[T any](n *Node[T], v T) {
	n.Data = v
	n.next.Reset(tagged.None)
	n.refs.Store(1)
}

// Allocator is the contract every pool variant satisfies. It exists for the
// tests that run one workload across the whole family; queues hold the
// concrete type they pair with.
type Allocator[T any] interface {
	Alloc(v T) uint32
	Free(idx uint32)
	At(idx uint32) *Node[T]
	Empty() bool
}
