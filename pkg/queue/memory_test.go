package queue

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryQueue_ReadAllMessagesPreservesOrder(t *testing.T) {
	q := NewInMemoryQueue(10)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(i))
	}

	got, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{0, 1, 2, 3, 4}, got)

	size, err := q.Size()
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestInMemoryQueue_EnqueueFull(t *testing.T) {
	q := NewInMemoryQueue(2)
	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))

	err := q.Enqueue("c")
	require.Error(t, err)
	assert.IsType(t, &ErrQueueFull{}, err)

	got, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, got)
}

func TestInMemoryQueue_Dequeue(t *testing.T) {
	q := NewInMemoryQueue(2)

	_, err := q.Dequeue()
	assert.IsType(t, &ErrQueueEmpty{}, err)

	require.NoError(t, q.Enqueue("a"))
	item, err := q.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, "a", item)
}

func TestInMemoryQueue_ClearQueue(t *testing.T) {
	q := NewInMemoryQueue(4)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Enqueue(2))

	require.NoError(t, q.ClearQueue())

	got, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInMemoryQueue_ConcurrentProducers(t *testing.T) {
	q := NewInMemoryQueue(1000)
	wg := sync.WaitGroup{}
	for p := 0; p < 10; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = q.Enqueue(i)
			}
		}()
	}
	wg.Wait()

	got, err := q.ReadAllMessages()
	require.NoError(t, err)
	assert.Len(t, got, 1000)
}
