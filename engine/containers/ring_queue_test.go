package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/lantern/engine/core"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](3)
	require.NoError(t, rq.Enqueue(1))
	require.NoError(t, rq.Enqueue(2))
	require.NoError(t, rq.Enqueue(3))
	assert.True(t, rq.IsFull())
	assert.ErrorIs(t, rq.Enqueue(4), core.ErrQueueFull)

	v, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	front, err := rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 2, front)
	assert.Equal(t, 2, rq.Len())
}

func TestRingQueueEmpty(t *testing.T) {
	rq := NewRingQueue[string](2)
	_, err := rq.Dequeue()
	assert.ErrorIs(t, err, core.ErrQueueEmpty)
	_, err = rq.Peek()
	assert.ErrorIs(t, err, core.ErrQueueEmpty)
	_, ok := rq.At(0)
	assert.False(t, ok)
}

func TestRingQueuePushDropsOldest(t *testing.T) {
	rq := NewRingQueue[string](3)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		rq.Push(s)
	}
	assert.Equal(t, []string{"c", "d", "e"}, rq.Items())

	last, ok := rq.At(2)
	assert.True(t, ok)
	assert.Equal(t, "e", last)

	rq.Clear()
	assert.True(t, rq.IsEmpty())
	assert.Empty(t, rq.Items())
}
