package queue

import (
	"sync"

	"github.com/amareshkumar/telemetryhub/internal/domain"
)

// TelemetryQueue is a bounded, thread-safe FIFO of samples with a
// drop-oldest overflow policy. Push never blocks and never fails;
// Pop blocks until an item arrives or the queue is shut down.
//
// The mutex guards the buffer, capacity, and shutdown flag together;
// the condition variable is signalled exactly when state that matters
// to waiters changes (item pushed, shutdown set).
type TelemetryQueue struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	data     []domain.TelemetrySample
	capacity int // 0 = unbounded
	shutdown bool
}

// NewTelemetryQueue creates a queue with the given capacity.
// A capacity of 0 means unbounded.
func NewTelemetryQueue(capacity int) *TelemetryQueue {
	q := &TelemetryQueue{capacity: capacity}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push appends a sample. After shutdown the sample is silently
// discarded. When the queue is bounded and full, the head (oldest
// sample) is evicted to make room; the return value reports whether
// that happened. At least one waiting consumer is woken.
func (q *TelemetryQueue) Push(s domain.TelemetrySample) (dropped bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shutdown {
		return false
	}

	if q.capacity > 0 && len(q.data) >= q.capacity {
		q.data = append(q.data[:0], q.data[1:]...)
		dropped = true
	}
	q.data = append(q.data, s)

	q.notEmpty.Signal()
	return dropped
}

// Pop blocks until a sample is available or shutdown is signalled.
// It returns false only after shutdown with the queue drained.
func (q *TelemetryQueue) Pop() (domain.TelemetrySample, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.data) == 0 && !q.shutdown {
		q.notEmpty.Wait()
	}

	if len(q.data) == 0 {
		return domain.TelemetrySample{}, false
	}

	s := q.data[0]
	q.data = append(q.data[:0], q.data[1:]...)
	return s, true
}

// Shutdown marks the queue closed and wakes all waiters. Idempotent.
// Items already queued remain poppable until drained.
func (q *TelemetryQueue) Shutdown() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shutdown {
		return
	}
	q.shutdown = true
	q.notEmpty.Broadcast()
}

// SetCapacity updates the bound. It does not retroactively trim items
// already queued; the bound applies from the next Push.
func (q *TelemetryQueue) SetCapacity(capacity int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.capacity = capacity
}

// Len reports the current depth. The value may be stale by the time
// the caller reads it.
func (q *TelemetryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}
