package queue

import (
	"fmt"
	"sync"
)

// InMemoryQueue implements a bounded in-memory queue.
// Enqueue never blocks: a full queue rejects the item.
type InMemoryQueue struct {
	ch   chan interface{}
	lock sync.Mutex
}

var _ Queue = &InMemoryQueue{}

// ErrQueueFull is returned when an item is enqueued on a full queue.
type ErrQueueFull struct {
	Capacity int
}

func (e *ErrQueueFull) Error() string {
	return fmt.Sprintf("queue is full (capacity %d)", e.Capacity)
}

// ErrQueueEmpty is returned by Dequeue when there is nothing to read.
type ErrQueueEmpty struct{}

func (e *ErrQueueEmpty) Error() string {
	return "queue is empty"
}

// NewInMemoryQueue creates a new queue holding at most size items.
func NewInMemoryQueue(size int) *InMemoryQueue {
	return &InMemoryQueue{
		ch: make(chan interface{}, size),
	}
}

// Enqueue adds an item to the end of the queue.
func (q *InMemoryQueue) Enqueue(item interface{}) error {
	select {
	case q.ch <- item:
		return nil
	default:
		return &ErrQueueFull{Capacity: cap(q.ch)}
	}
}

// Dequeue removes and returns the item from the front of the queue.
func (q *InMemoryQueue) Dequeue() (interface{}, error) {
	select {
	case item := <-q.ch:
		return item, nil
	default:
		return nil, &ErrQueueEmpty{}
	}
}

// Size returns the current size of the queue.
func (q *InMemoryQueue) Size() (int, error) {
	return len(q.ch), nil
}

// ReadAllMessages reads all pending messages in the queue in arrival order.
// Items enqueued while draining are left for the next read.
func (q *InMemoryQueue) ReadAllMessages() ([]interface{}, error) {
	q.lock.Lock()
	defer q.lock.Unlock()

	n := len(q.ch)
	messages := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		messages = append(messages, <-q.ch)
	}

	return messages, nil
}

// ClearQueue clears all messages from the queue.
func (q *InMemoryQueue) ClearQueue() error {
	q.lock.Lock()
	defer q.lock.Unlock()

	for {
		select {
		case <-q.ch:
		default:
			return nil
		}
	}
}
