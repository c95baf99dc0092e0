// Package queue defines the contract for enqueuing and consuming pair jobs.
package queue

import (
	"context"
	"sync"

	"github.com/okian/loftmatch/internal/domain/model"
	"github.com/okian/loftmatch/internal/domain/scoring"
	"github.com/okian/loftmatch/pkg/metrics"
)

const defaultCapacity = 1024

// Job is one pair to score. Reply receives exactly one Outcome and must be
// buffered so that workers never block on a caller that has gone away.
// Seq is echoed back on the Outcome so callers can restore submission order.
type Job struct {
	Seq          int
	Male         model.Individual
	Female       model.Individual
	Weights      scoring.Weights
	TargetWeight float64
	Reply        chan<- Outcome
}

// Outcome is the result of scoring a Job.
type Outcome struct {
	Seq    int
	Male   model.Individual
	Female model.Individual
	Result scoring.Result
	Err    error
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job without blocking. It returns ErrFull or ErrClosed
	// when the job was not accepted.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns the channel workers receive jobs from. It is closed
	// by Close once drained.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of queued jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int
	metrics  *metrics.Manager

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
		metrics:  metrics.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)
	q.metrics.UpdateQueueLength(0)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.metrics.RecordQueueRejected()
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	select {
	case q.jobs <- j:
		q.metrics.UpdateQueueLength(len(q.jobs))
		return nil
	default:
		q.metrics.RecordQueueRejected()
		return ErrFull
	}
}

// Dequeue returns the receive side of the job channel.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Len returns the number of pending jobs.
func (q *InMemoryQueue) Len(_ context.Context) int {
	n := len(q.jobs)
	q.metrics.UpdateQueueLength(n)
	return n
}

// Capacity returns the maximum number of pending jobs.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close gracefully shuts down the queue. Jobs already queued stay readable
// until the channel drains.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
