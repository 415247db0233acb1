package tagged

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackAndAccessors(t *testing.T) {
	w := Pack(42)
	assert.Equal(t, uint32(42), w.Index())
	assert.Equal(t, uint32(0), w.Tag())

	w = Pack(None)
	assert.Equal(t, None, w.Index())
}

func TestCompareExchangeBumpsTag(t *testing.T) {
	var a Atomic
	a.Reset(7)

	old := a.Load()
	require.True(t, a.CompareExchange(&old, 9))

	now := a.Load()
	assert.Equal(t, uint32(9), now.Index())
	assert.Equal(t, old.Tag()+1, now.Tag())
}

func TestCompareExchangeRefreshesExpectedOnFailure(t *testing.T) {
	var a Atomic
	a.Reset(1)

	stale := a.Load()
	a.Store(2) // invalidates stale

	require.False(t, a.CompareExchange(&stale, 3))
	assert.Equal(t, uint32(2), stale.Index(), "expected must be refreshed to the observed word")

	// The refreshed snapshot must succeed.
	require.True(t, a.CompareExchange(&stale, 3))
	assert.Equal(t, uint32(3), a.Load().Index())
}

// Two successful publishes of the same index must yield strictly increasing
// tags; this is the property the ABA defence rests on.
func TestSameIndexYieldsIncreasingTags(t *testing.T) {
	var a Atomic
	a.Reset(5)

	first := a.Load()
	a.Store(5)
	second := a.Load()
	a.Store(5)
	third := a.Load()

	assert.Equal(t, first.Index(), second.Index())
	assert.Greater(t, second.Tag(), first.Tag())
	assert.Greater(t, third.Tag(), second.Tag())
}

func TestSwapReturnsPrevious(t *testing.T) {
	var a Atomic
	a.Reset(None)

	prev := a.Swap(11)
	assert.Equal(t, None, prev.Index())
	assert.Equal(t, uint32(11), a.Load().Index())
}

// Hammer the word from many goroutines; every successful CAS observed by a
// single goroutine must see the version advance.
func TestConcurrentStoresNeverReuseTags(t *testing.T) {
	var a Atomic
	a.Reset(0)

	const goroutines = 8
	const iters = 20000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id uint32) {
			defer wg.Done()
			lastTag := uint32(0)
			first := true
			for i := 0; i < iters; i++ {
				old := a.Load()
				if a.CompareExchange(&old, id) {
					got := old.Tag()
					if !first && got <= lastTag {
						t.Errorf("tag did not advance: %d after %d", got, lastTag)
						return
					}
					first = false
					lastTag = got
				}
			}
		}(uint32(g))
	}
	wg.Wait()

	// goroutines*iters successful CAS at most; the tag counts every one.
	assert.LessOrEqual(t, a.Load().Tag(), uint32(goroutines*iters))
}
