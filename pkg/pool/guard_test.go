package pool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardSoleConsumerFreesImmediately(t *testing.T) {
	p := NewTagged[int]()
	g := NewGuard(p)

	idx := p.Alloc(1)
	g.AddRef()
	g.DelRef(idx)

	require.False(t, p.Empty(), "the node must be back on the free list")
	assert.Equal(t, idx, p.Alloc(2), "and reusable")
}

func TestGuardExitRetiresNothing(t *testing.T) {
	p := NewTagged[int]()
	g := NewGuard(p)

	g.AddRef()
	g.Exit()
	assert.True(t, p.Empty())
}

func TestGuardDefersWhileConsumersInFlight(t *testing.T) {
	p := NewTagged[int]()
	g := NewGuard(p)

	idx := p.Alloc(1)

	g.AddRef() // a second consumer parks inside the critical section
	g.AddRef()
	g.DelRef(idx)

	assert.True(t, p.Empty(), "node must wait on the pending list")

	g.Exit()
	// The pending node is swept the next time a retiring consumer finds
	// itself alone.
	idx2 := p.Alloc(2)
	g.AddRef()
	g.DelRef(idx2)

	assert.False(t, p.Empty())
	seen := map[uint32]bool{}
	for !p.Empty() {
		seen[p.Alloc(0)] = true
	}
	assert.True(t, seen[idx], "the deferred node must eventually be freed")
	assert.True(t, seen[idx2])
}

// Retire nodes from many goroutines; afterwards every retired node must be
// on the free list exactly once.
func TestGuardConcurrentRetire(t *testing.T) {
	const goroutines = 8
	const perGoroutine = 5000

	p := NewTagged[int]()
	g := NewGuard(p)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				idx := p.Alloc(j)
				g.AddRef()
				g.DelRef(idx)
			}
		}()
	}
	wg.Wait()

	// Quiescent now: one last retire sweeps any residue.
	idx := p.Alloc(0)
	g.AddRef()
	g.DelRef(idx)

	count := 0
	seen := map[uint32]bool{}
	for !p.Empty() {
		got := p.Alloc(0)
		require.False(t, seen[got], "node freed twice")
		seen[got] = true
		count++
	}
	assert.Positive(t, count)
}
