package queue

// Queue represents a basic queue.
// Implementations must be safe for one consumer and many producers.
type Queue interface {
	Enqueue(item interface{}) error
	Dequeue() (interface{}, error)
	Size() (int, error)
	ReadAllMessages() ([]interface{}, error)
	ClearQueue() error
}
