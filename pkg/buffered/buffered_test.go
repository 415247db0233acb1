package buffered

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundedPushPop(t *testing.T) {
	q := New[int](4)
	for i := 0; i < 4; i++ {
		require.True(t, q.Push(i))
	}
	assert.False(t, q.Push(999), "full push must fail")
	for i := 0; i < 4; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestZeroCapacityClampedToOne(t *testing.T) {
	q := New[int](0)
	assert.True(t, q.Push(1))
	assert.False(t, q.Push(2))
}

func TestQuitStopsPops(t *testing.T) {
	q := New[int](4)
	q.Push(1)
	q.Quit()
	_, ok := q.Pop()
	assert.False(t, ok, "pops after quit return empty even with data buffered")
	q.Quit() // idempotent
}
