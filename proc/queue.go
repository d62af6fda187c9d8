package proc

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

type DequeueResult int

const (
	Dequeued DequeueResult = iota
	Timeout
	Canceled
)

func (r DequeueResult) String() string {
	switch r {
	case Dequeued:
		return "dequeued"
	case Timeout:
		return "timeout"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// TrackQueue is a FIFO of tracks safe for concurrent producers and a single
// consumer that blocks in Dequeue.
type TrackQueue struct {
	mu     sync.Mutex
	items  []*Track
	notify chan struct{}
}

func NewTrackQueue() *TrackQueue {
	return &TrackQueue{notify: make(chan struct{}, 1)}
}

func (q *TrackQueue) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Enqueue appends t and returns its 1-based position.
func (q *TrackQueue) Enqueue(t *Track) int {
	q.mu.Lock()
	q.items = append(q.items, t)
	n := len(q.items)
	q.mu.Unlock()
	q.signal()
	return n
}

// PushFront inserts t ahead of everything else.
func (q *TrackQueue) PushFront(t *Track) {
	q.mu.Lock()
	q.items = append([]*Track{t}, q.items...)
	q.mu.Unlock()
	q.signal()
}

func (q *TrackQueue) pop() (*Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	t := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return t, true
}

// Dequeue removes the head, waiting up to timeout for one to arrive.
func (q *TrackQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Track, DequeueResult) {
	if t, ok := q.pop(); ok {
		return t, Dequeued
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-q.notify:
			if t, ok := q.pop(); ok {
				return t, Dequeued
			}
		case <-timer.C:
			if t, ok := q.pop(); ok {
				return t, Dequeued
			}
			return nil, Timeout
		case <-ctx.Done():
			return nil, Canceled
		}
	}
}

// Peek returns a copy of the items in [start, end), clamped to the queue.
func (q *TrackQueue) Peek(start, end int) []*Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	start = max(0, start)
	end = min(end, len(q.items))
	if start >= end {
		return nil
	}
	out := make([]*Track, end-start)
	copy(out, q.items[start:end])
	return out
}

// Page returns the 1-based page of the queue and the total page count.
// An empty queue has one empty page.
func (q *TrackQueue) Page(page, size int) ([]*Track, int, error) {
	size = max(1, size)
	q.mu.Lock()
	total := len(q.items)
	q.mu.Unlock()

	pages := max(1, (total+size-1)/size)
	if page < 1 || page > pages {
		return nil, pages, ErrInvalidIndex
	}
	start := (page - 1) * size
	return q.Peek(start, start+size), pages, nil
}

// RemoveAt removes the 0-based index i.
func (q *TrackQueue) RemoveAt(i int) (*Track, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.items) {
		return nil, ErrInvalidIndex
	}
	t := q.items[i]
	q.items = append(q.items[:i], q.items[i+1:]...)
	return t, nil
}

// Clear empties the queue and hands back what was in it.
func (q *TrackQueue) Clear() []*Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *TrackQueue) Shuffle() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	rand.Shuffle(len(q.items), func(i, j int) {
		q.items[i], q.items[j] = q.items[j], q.items[i]
	})
	return len(q.items)
}

func (q *TrackQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
