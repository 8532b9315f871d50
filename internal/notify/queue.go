package notify

import "sync"

// Sink receives events for one subscription. Send must not block for long; Close is
// called once when the subscription is removed.
type Sink interface {
	Send(evt Event) error
	Close()
}

// Queue is a bounded, non-blocking Sink. Transports drain Events until it is closed.
type Queue struct {
	mu     sync.Mutex
	ch     chan Event
	closed bool
}

// NewQueue creates a queue holding up to size undelivered events.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Event, size)}
}

// Send enqueues evt, or fails with ErrQueueFull if the reader has fallen behind.
func (q *Queue) Send(evt Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.ch <- evt:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close closes the event channel. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

// Events returns the channel to drain. It is closed by Close.
func (q *Queue) Events() <-chan Event {
	return q.ch
}
