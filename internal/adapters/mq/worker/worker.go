package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/loftmatch/internal/adapters/mq/queue"
	"github.com/okian/loftmatch/internal/domain/scoring"
	"github.com/okian/loftmatch/pkg/logger"
	"github.com/okian/loftmatch/pkg/metrics"
)

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes jobs until its queue drains or ctx is cancelled.
type Worker interface {
	Run(ctx context.Context)
	Done() <-chan struct{}
}

// InMemoryWorker scores jobs and replies with their outcome.
type InMemoryWorker struct {
	queue   Queue
	scorer  scoring.Scorer
	name    string
	logger  logger.Logger
	metrics *metrics.Manager

	done chan struct{}
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, scorer scoring.Scorer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:   q,
		scorer:  scorer,
		name:    "worker",
		logger:  logger.Nop(),
		metrics: metrics.Default(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop. It returns when the job channel is closed
// and drained, or when ctx is cancelled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, job)
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	result, err := w.scorer.Score(job.Male, job.Female, job.Weights, job.TargetWeight)
	if err != nil {
		w.logger.Debug(ctx, "pair skipped",
			logger.String("male", job.Male.ID),
			logger.String("female", job.Female.ID),
			logger.Error(err),
		)
	} else {
		w.metrics.RecordPairScored(result.Compatibility, float64(time.Since(start).Microseconds())/1000)
	}
	job.Reply <- queue.Outcome{Seq: job.Seq, Male: job.Male, Female: job.Female, Result: result, Err: err}
}

// Pool manages multiple workers reading the same queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one uses
// runtime.NumCPU(). opts apply to every worker; names are assigned by index.
func NewPool(workerCount int, q Queue, scorer scoring.Scorer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
	}
	for i := range pool.workers {
		workerOpts := append(append([]Option(nil), opts...), WithName("worker-"+strconv.Itoa(i)))
		pool.workers[i] = NewInMemoryWorker(q, scorer, workerOpts...)
	}
	pool.logger = pool.workers[0].logger
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	return nil
}
