package audio

import (
	"sync"
	"time"
)

// pollInterval is how long a producer sleeps while the queue is full.
const pollInterval = time.Millisecond

// SampleQueue is a bounded FIFO of stereo sample pairs between the emulation
// goroutine and an audio consumer. Push never drops samples: it polls while
// the queue is full, until space frees up or the queue is closed.
type SampleQueue struct {
	mu     sync.Mutex
	buf    []int16 // interleaved left, right
	head   int
	size   int // pairs queued
	closed bool
}

// NewSampleQueue returns a queue holding up to capacity pairs, at least one.
func NewSampleQueue(capacity int) *SampleQueue {
	return &SampleQueue{buf: make([]int16, max(capacity, 1)*2)}
}

func (q *SampleQueue) capacity() int { return len(q.buf) / 2 }

// Push appends one pair. It returns false if the queue was closed.
func (q *SampleQueue) Push(right, left int16) bool {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return false
		}
		if q.size < q.capacity() {
			tail := (q.head + q.size) % q.capacity()
			q.buf[tail*2] = left
			q.buf[tail*2+1] = right
			q.size++
			q.mu.Unlock()
			return true
		}
		q.mu.Unlock()
		time.Sleep(pollInterval)
	}
}

// Sink adapts the queue to a SampleSink.
func (q *SampleQueue) Sink() SampleSink {
	return func(right, left int16) { q.Push(right, left) }
}

// Pop copies up to len(dst)/2 pairs into dst as interleaved left, right
// samples and returns the number of pairs copied. It never blocks.
func (q *SampleQueue) Pop(dst []int16) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := min(len(dst)/2, q.size)
	for i := range n {
		src := (q.head + i) % q.capacity()
		dst[i*2] = q.buf[src*2]
		dst[i*2+1] = q.buf[src*2+1]
	}
	q.head = (q.head + n) % q.capacity()
	q.size -= n
	return n
}

// Len returns the number of queued pairs.
func (q *SampleQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Close releases any blocked producer; later pushes are dropped.
func (q *SampleQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}
