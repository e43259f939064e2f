package scheduler

import (
	"errors"
	"sync"

	"github.com/eapache/queue"
)

var (
	// ErrQueueClosed is returned by Push once Close has been called.
	ErrQueueClosed = errors.New("scheduler: queue is closed")
)

// FIFO is an unbounded first-in first-out queue shared by every producer
// and every worker of a pool.
//
// A single mutex guards both the buffered items and the stopping flag, and a
// single condition variable wakes consumers when the queue becomes non-empty
// or starts stopping. Keeping both pieces of state under one lock is what
// makes the drain rule hold: a consumer only observes "closed" after it has
// also observed "empty".
type FIFO[T any] struct {
	mu       sync.Mutex
	ready    *sync.Cond   // signalled on push, broadcast on close
	items    *queue.Queue // ring buffer, grows on demand
	stopping bool
}

// NewFIFO creates an empty, open queue.
func NewFIFO[T any]() *FIFO[T] {
	q := &FIFO[T]{items: queue.New()}
	q.ready = sync.NewCond(&q.mu)
	return q
}

// Push appends item to the tail and wakes one waiting consumer.
// It returns ErrQueueClosed if the queue is stopping; in that case the item
// is not stored.
func (q *FIFO[T]) Push(item T) error {
	q.mu.Lock()
	if q.stopping {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items.Add(item)
	q.mu.Unlock()

	q.ready.Signal()
	return nil
}

// Pop removes and returns the head item, blocking while the queue is empty
// and still open. The boolean is false only when the queue is closed and
// fully drained, which tells the consumer to exit.
func (q *FIFO[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Length() == 0 && !q.stopping {
		q.ready.Wait()
	}

	if q.items.Length() == 0 {
		var zero T
		return zero, false
	}
	return q.items.Remove().(T), true
}

// Close marks the queue as stopping and wakes every waiting consumer.
// Items already queued stay poppable. Close reports whether this call
// performed the transition; later calls are no-ops.
func (q *FIFO[T]) Close() bool {
	q.mu.Lock()
	if q.stopping {
		q.mu.Unlock()
		return false
	}
	q.stopping = true
	q.mu.Unlock()

	q.ready.Broadcast()
	return true
}

// Closed reports whether Close has been called.
func (q *FIFO[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopping
}

// Len returns the number of queued items.
func (q *FIFO[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}
