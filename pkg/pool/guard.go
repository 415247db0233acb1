package pool

import (
	"sync/atomic"

	"github.com/mutouyun/lock-free-queue/internal/tagged"
)

// Guard defers freeing detached nodes until no consumer is inside the pop
// critical section. It is a one-epoch quiescence scheme: a global counter of
// in-flight consumers plus a lock-free pending-free list threaded through the
// nodes' own link words.
//
// Protocol: AddRef before the first dereference of the pop path, then exactly
// one of Exit (nothing detached, or the detached node is a resident dummy
// that must survive) or DelRef (a node was detached and may be freed once
// safe).
type Guard[T any] struct {
	pool    *Tagged[T]
	refs    atomic.Int64
	pending tagged.Atomic
}

func NewGuard[T any](p *Tagged[T]) *Guard[T] {
	g := &Guard[T]{pool: p}
	g.pending.Reset(tagged.None)
	return g
}

// AddRef marks a consumer entering the critical section.
func (g *Guard[T]) AddRef() {
	g.refs.Add(1)
}

// Exit leaves the critical section without retiring a node.
func (g *Guard[T]) Exit() {
	g.refs.Add(-1)
}

// DelRef leaves the critical section and retires idx. While other consumers
// are still inside, the node parks on the pending list; the last consumer out
// sweeps the list. A node is only ever freed at a moment when no concurrent
// consumer can still hold a snapshot of it.
func (g *Guard[T]) DelRef(idx uint32) {
	if idx == tagged.None {
		g.refs.Add(-1)
		return
	}
	if g.refs.Load() > 1 {
		g.push(idx)
		g.refs.Add(-1)
		return
	}
	// Possibly the last consumer: take the whole pending chain before
	// dropping the count, so nobody frees behind our back.
	taken := g.pending.Swap(tagged.None).Index()
	if g.refs.Add(-1) == 0 {
		for taken != tagged.None {
			next := g.pool.At(taken).next.Load().Index()
			g.pool.Free(taken)
			taken = next
		}
		g.pool.Free(idx)
		return
	}
	// Another consumer slipped in while we were looking; give the chain
	// back and retire only our own node.
	if taken != tagged.None {
		g.pushChain(taken)
	}
	g.pool.Free(idx)
}

func (g *Guard[T]) push(idx uint32) {
	n := g.pool.At(idx)
	curr := g.pending.Load()
	for {
		n.next.Reset(curr.Index())
		if g.pending.CompareExchange(&curr, idx) {
			return
		}
	}
}

// pushChain re-links an already-linked chain under the current pending head.
func (g *Guard[T]) pushChain(head uint32) {
	last := head
	for {
		next := g.pool.At(last).next.Load().Index()
		if next == tagged.None {
			break
		}
		last = next
	}
	tail := g.pool.At(last)
	curr := g.pending.Load()
	for {
		tail.next.Reset(curr.Index())
		if g.pending.CompareExchange(&curr, head) {
			return
		}
	}
}
