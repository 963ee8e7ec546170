package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/sportplanner/internal/adapters/mq/queue"
	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/domain/proposal"
	"github.com/okian/sportplanner/internal/domain/types"
	"github.com/okian/sportplanner/pkg/logger"
	"github.com/okian/sportplanner/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Generator produces a fresh proposal.
type Generator interface {
	Generate(ctx context.Context, req proposal.Request) (*types.ProposalResponse, error)
}

// Store keeps the generated proposals.
type Store interface {
	Set(ctx context.Context, teamID int64, resp *types.ProposalResponse) error
	Invalidate(ctx context.Context, teamID int64) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes refresh jobs.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker regenerates proposals and writes them to the Store.
type InMemoryWorker struct {
	queue     Queue
	generator Generator
	store     Store
	name      string
	active    *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, generator Generator, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     q,
		generator: generator,
		store:     store,
		name:      "worker",
		active:    &atomic.Int64{},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing refresh job", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process handles a single job. A team that no longer exists has its
// cached proposal dropped.
func (w *InMemoryWorker) process(ctx context.Context, job queue.Job) error {
	metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
	start := time.Now()
	defer func() {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(-1)))
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	fields := []logger.Field{
		logger.String("job_id", job.ID.String()),
		logger.Int64("team_id", job.TeamID),
	}

	resp, err := w.generator.Generate(ctx, proposal.Request{TeamID: job.TeamID})
	if errors.Is(err, model.ErrNotFound) {
		w.logger.Warn(ctx, "team vanished before refresh", fields...)
		return w.store.Invalidate(ctx, job.TeamID)
	}
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "generate_error")
		return fmt.Errorf("refresh job %s: %w", job.ID, err)
	}

	if err := w.store.Set(ctx, job.TeamID, resp); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "cache_error")
		return fmt.Errorf("store proposal for job %s: %w", job.ID, err)
	}
	w.logger.Debug(ctx, "proposal refreshed", append(fields, logger.Duration("took", time.Since(start)))...)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers sharing one queue. A count
// below one selects a multiple of the CPU count.
func NewPool(workerCount int, q Queue, generator Generator, store Store) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	active := &atomic.Int64{}
	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range workerCount {
		w := NewInMemoryWorker(q, generator, store, WithName("worker-"+strconv.Itoa(i)))
		w.active = active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue and waits for the workers to drain what is
// still buffered. Workers still busy when ctx or the pool timeout expires
// are told to stop after their current job.
func (p *Pool) Shutdown(ctx context.Context) error {
	draining := false
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		} else {
			draining = true
		}
	}
	if !draining {
		p.stopWorkers()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut > 0 {
		if draining {
			p.stopWorkers()
		}
		return fmt.Errorf("%d workers did not stop: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}

func (p *Pool) stopWorkers() {
	for _, w := range p.workers {
		close(w.shutdown)
	}
}
