// Package worker runs CPU-bound inference jobs on a fixed pool of goroutines
// so request handlers never evaluate models inline.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/octagon/internal/adapters/mq/queue"
	"github.com/okian/octagon/internal/domain/errs"
	"github.com/okian/octagon/pkg/logger"
	"github.com/okian/octagon/pkg/metrics"
)

// Default worker configuration constants.
const (
	poolShutdownTimeout = 30 * time.Second
)

// Job and Result are the queue payloads.
type (
	Job    = queue.Job
	Result = queue.Result
)

// Queue defines how the pool submits and receives jobs.
type Queue interface {
	Enqueue(ctx context.Context, j Job) bool
	Dequeue(ctx context.Context) <-chan Job
}

// Worker executes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue Queue
	name  string
	busy  *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		name:     "worker",
		busy:     new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
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
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(j)
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

// process runs one job and delivers its result. A job whose submitter has
// already gone is skipped.
func (w *InMemoryWorker) process(j Job) { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	ctx := j.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordJobAbandoned(j.Kind)
		deliver(j, Result{Err: err})
		return
	}

	w.busy.Add(1)
	defer w.busy.Add(-1)

	start := time.Now()
	value, err := w.run(ctx, j)
	metrics.ObserveJobLatency(j.Kind, time.Since(start))

	if err != nil {
		metrics.RecordJobError(j.Kind, errs.KindOf(err))
		w.logger.Debug(ctx, "job failed",
			logger.String("job_id", j.ID),
			logger.String("kind", j.Kind),
			logger.Error(err),
		)
	}
	deliver(j, Result{Value: value, Err: err})
}

// run shields the pool from a panicking job.
func (w *InMemoryWorker) run(ctx context.Context, j Job) (value any, err error) { //nolint:gocritic // hugeParam
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error(ctx, "job panicked",
				logger.String("job_id", j.ID),
				logger.Any("panic", r),
			)
			err = errs.WrapKind("worker.run", errs.ErrUpstream, fmt.Errorf("%w: %v", errPanic, r))
		}
	}()
	return j.Run(ctx)
}

func deliver(j Job, r Result) { //nolint:gocritic // hugeParam
	if j.Done == nil {
		return
	}
	select {
	case j.Done <- r:
	default:
	}
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	busy    atomic.Int64
	seq     atomic.Uint64

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A non-positive count uses
// one worker per CPU.
func NewPool(workerCount int, q Queue) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(q, WithName("worker-"+strconv.Itoa(i)), withCounter(&p.busy))
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkersBusy(0)

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Busy returns the number of workers currently running a job.
func (p *Pool) Busy() int { return int(p.busy.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Submit queues fn and waits for its result. A full queue fails fast with
// ErrBusy; when ctx ends first the result is abandoned.
func (p *Pool) Submit(ctx context.Context, kind string, fn func(context.Context) (any, error)) (any, error) {
	const op = "worker.submit"
	done := make(chan Result, 1)
	j := Job{
		ID:   kind + "-" + strconv.FormatUint(p.seq.Add(1), 10),
		Kind: kind,
		Ctx:  ctx,
		Run:  fn,
		Done: done,
	}
	if !p.queue.Enqueue(ctx, j) {
		metrics.RecordJobRejected(kind)
		return nil, errs.WrapKind(op, errs.ErrBusy, errQueueFull)
	}
	metrics.UpdateWorkersBusy(p.Busy())

	select {
	case r := <-done:
		if errors.Is(r.Err, queue.ErrStopped) {
			return nil, errs.WrapKind(op, errs.ErrBusy, r.Err)
		}
		return r.Value, r.Err
	case <-ctx.Done():
		metrics.RecordJobAbandoned(kind)
		return nil, ctx.Err()
	}
}

// Do is the typed form of Pool.Submit.
func Do[T any](ctx context.Context, p *Pool, kind string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := p.Submit(ctx, kind, func(ctx context.Context) (any, error) { return fn(ctx) })
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %T", errResultType, v)
	}
	return out, nil
}

// Shutdown closes the queue, lets workers drain it and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	return nil
}
