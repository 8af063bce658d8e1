package events

import "sync"

// Queue is a FIFO buffer of events safe for any number of concurrent
// producers and consumers.
type Queue struct {
	mu  sync.Mutex
	buf []Event
}

// NewQueue returns an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Push appends e.
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = append(q.buf, e)
}

// PushAll appends evs in order.
func (q *Queue) PushAll(evs []Event) {
	if len(evs) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.buf = append(q.buf, evs...)
}

// DrainAll returns every buffered event in push order and empties the queue
// in the same critical section.
func (q *Queue) DrainAll() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.buf
	q.buf = nil
	return out
}

// IsEmpty reports whether the queue currently holds no events.
func (q *Queue) IsEmpty() bool {
	return q.Len() == 0
}

// Len returns the number of buffered events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
