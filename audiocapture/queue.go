package audiocapture

import (
	"sync"
	"time"
)

// chunkQueue is an unbounded FIFO between the device callback and a single
// consumer. push never blocks; chunks queued before close remain receivable.
type chunkQueue struct {
	mu     sync.Mutex
	items  []Chunk
	closed bool
	notify chan struct{}
}

func newChunkQueue() *chunkQueue {
	return &chunkQueue{notify: make(chan struct{}, 1)}
}

// push appends c and reports whether it was accepted.
func (q *chunkQueue) push(c Chunk) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, c)
	q.mu.Unlock()
	q.wake()
	return true
}

func (q *chunkQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.wake()
}

func (q *chunkQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// tryRecv pops the oldest chunk without waiting.
func (q *chunkQueue) tryRecv() (Chunk, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *chunkQueue) popLocked() (Chunk, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	c := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return c, true
}

// recv waits up to timeout for a chunk.
func (q *chunkQueue) recv(timeout time.Duration) (Chunk, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		c, ok := q.popLocked()
		closed := q.closed
		q.mu.Unlock()

		switch {
		case ok:
			return c, nil
		case closed:
			// keep the wake-up for any other waiter
			q.wake()
			return nil, ErrDisconnected
		}

		select {
		case <-q.notify:
		case <-timer.C:
			return nil, ErrRecvTimeout
		}
	}
}

func (q *chunkQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
