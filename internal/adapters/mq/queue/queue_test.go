package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/okian/loftmatch/internal/domain/model"
	"github.com/okian/loftmatch/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func newTestQueue(capacity int) *InMemoryQueue {
	m := metrics.NewManager(metrics.WithPrometheusRegistry(prometheus.NewRegistry()))
	return NewInMemoryQueue(WithCapacity(capacity), WithMetrics(m))
}

func job(maleID string) Job {
	return Job{Male: model.Individual{ID: maleID}, Female: model.Individual{ID: "F1"}}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := newTestQueue(2)
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, job("M1")); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	j := <-q.Dequeue(ctx)
	if j.Male.ID != "M1" {
		t.Errorf("expected M1, got %v", j.Male.ID)
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := newTestQueue(2)
	ctx := context.Background()

	for _, id := range []string{"M1", "M2"} {
		if err := q.Enqueue(ctx, job(id)); err != nil {
			t.Fatalf("expected enqueue of %s to succeed: %v", id, err)
		}
	}

	if err := q.Enqueue(ctx, job("M3")); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull when full, got %v", err)
	}
	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := newTestQueue(4)
	ctx := context.Background()

	if err := q.Enqueue(ctx, job("M1")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to report closed")
	}
	if err := q.Enqueue(ctx, job("M2")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Pending jobs drain before the channel reports closed.
	var got []string
	for j := range q.Dequeue(ctx) {
		got = append(got, j.Male.ID)
	}
	if len(got) != 1 || got[0] != "M1" {
		t.Errorf("expected drained [M1], got %v", got)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := newTestQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, job("M1")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	const (
		producers = 10
		perWorker = 10
	)
	q := newTestQueue(producers * perWorker)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if err := q.Enqueue(ctx, job("M"+strconv.Itoa(id*perWorker+j))); err != nil {
					t.Errorf("enqueue: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	if l := q.Len(ctx); l != producers*perWorker {
		t.Errorf("expected length %d, got %d", producers*perWorker, l)
	}
}
