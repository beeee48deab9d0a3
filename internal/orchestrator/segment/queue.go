package segment

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Pop once the queue is closed and drained.
var ErrClosed = errors.New("segment queue closed")

// Queue is an unbounded FIFO. Push never blocks; Pop blocks until an item
// arrives, the context is done, or the queue is closed.
type Queue struct {
	mu     sync.Mutex
	items  []Segment
	ready  chan struct{}
	closed bool
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

// Push appends s. Pushes after Close are discarded.
func (q *Queue) Push(s Segment) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.items = append(q.items, s)
	q.mu.Unlock()
	q.signal()
}

// Pop removes and returns the oldest segment.
func (q *Queue) Pop(ctx context.Context) (Segment, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			s := q.items[0]
			q.items[0] = Segment{}
			q.items = q.items[1:]
			more := len(q.items) > 0
			q.mu.Unlock()
			if more {
				q.signal()
			}
			return s, nil
		}
		if q.closed {
			q.mu.Unlock()
			return Segment{}, ErrClosed
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Segment{}, ctx.Err()
		case <-q.ready:
		}
	}
}

// Len returns the number of queued segments.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close wakes a blocked consumer. Remaining items can still be popped.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
