// Copyright 2026 The Pursuit Authors
// SPDX-License-Identifier: Apache-2.0

package control

import "sync"

// Queue is an unbounded FIFO with a channel on the consuming side.
// Push never blocks, so a producer (a socket read loop, a tick) is
// never held up by a slow consumer. Items come out of Out in the order
// they were pushed.
//
// After Close, Push is refused, the items already queued are still
// delivered, and then Out is closed.
type Queue[T any] struct {
	mutex  sync.Mutex
	items  []T
	closed bool

	wake chan struct{}
	out  chan T
}

// NewQueue starts a queue. The caller must either Close it and drain
// Out, or keep draining Out for the queue's lifetime.
func NewQueue[T any]() *Queue[T] {
	queue := &Queue[T]{
		wake: make(chan struct{}, 1),
		out:  make(chan T),
	}
	go queue.pump()
	return queue
}

// Push appends item. It reports false if the queue is closed.
func (q *Queue[T]) Push(item T) bool {
	q.mutex.Lock()
	if q.closed {
		q.mutex.Unlock()
		return false
	}
	q.items = append(q.items, item)
	q.mutex.Unlock()
	q.signal()
	return true
}

// Close refuses further pushes. It is safe to call more than once.
func (q *Queue[T]) Close() {
	q.mutex.Lock()
	q.closed = true
	q.mutex.Unlock()
	q.signal()
}

// Out delivers queued items in order.
func (q *Queue[T]) Out() <-chan T {
	return q.out
}

// Len returns the number of items not yet handed to Out.
func (q *Queue[T]) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items)
}

func (q *Queue[T]) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue[T]) pump() {
	defer close(q.out)
	var zero T
	for {
		q.mutex.Lock()
		if len(q.items) == 0 {
			closed := q.closed
			q.mutex.Unlock()
			if closed {
				return
			}
			<-q.wake
			continue
		}
		item := q.items[0]
		q.items[0] = zero
		q.items = q.items[1:]
		q.mutex.Unlock()

		q.out <- item
	}
}
