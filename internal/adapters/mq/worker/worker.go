package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/edurank/internal/adapters/mq/queue"
	"github.com/okian/edurank/pkg/logger"
	"github.com/okian/edurank/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Queue defines how workers receive jobs and how the pool submits them.
type Queue interface {
	Enqueue(ctx context.Context, j queue.Job) error
	Dequeue(ctx context.Context) <-chan queue.Job
	Close() error
}

// worker executes jobs from the shared channel until it closes or the pool
// gives up waiting for it.
type worker struct {
	name   string
	jobs   <-chan queue.Job
	done   chan struct{}
	logger logger.Logger
}

func (w *worker) run(ctx context.Context, stop <-chan struct{}) {
	defer close(w.done)
	for {
		select {
		case <-stop:
			return
		case j, ok := <-w.jobs:
			if !ok {
				return
			}
			if err := execute(j); err != nil {
				w.logger.Debug(ctx, "job failed", logger.String("job", j.Name), logger.Error(err))
			}
		}
	}
}

// execute runs one job and records its outcome.
func execute(j queue.Job) (err error) {
	start := time.Now()
	metrics.AddWorkerActive(1)
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Microseconds()) / 1000)
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", j.Name, r)
		}
		if err != nil {
			metrics.RecordWorkerError()
			metrics.RecordErrorByComponent("worker", "job_error")
		}
	}()
	return j.Run()
}

// Pool manages a fixed set of workers sharing one queue.
type Pool struct {
	name    string
	size    int
	queue   Queue
	workers []*worker

	mu       sync.Mutex
	started  bool
	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one selects
// a CPU-based default.
func NewPool(workerCount int, q Queue, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		name:     "worker-pool",
		size:     workerCount,
		queue:    q,
		shutdown: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get()
	}
	p.logger = p.logger.Named(p.name)

	metrics.UpdateWorkerCount(workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Start launches the workers. It is a no-op when already started; a pool
// cannot be restarted after Shutdown. Workers outlive ctx and stop only
// through Shutdown.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	ctx = context.WithoutCancel(ctx)

	jobs := p.queue.Dequeue(ctx)
	p.workers = make([]*worker, p.size)
	for i := range p.workers {
		w := &worker{
			name:   "worker-" + strconv.Itoa(i),
			jobs:   jobs,
			done:   make(chan struct{}),
			logger: p.logger,
		}
		p.workers[i] = w
		go w.run(ctx, p.shutdown)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", p.size))
}

// Submit hands a job to the pool. When the queue is full or closed, or the
// pool is not running, the job runs on the calling goroutine so that no
// work is ever dropped. The returned error is the enqueue failure, not the
// job's result.
func (p *Pool) Submit(ctx context.Context, j queue.Job) error {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()

	if started {
		err := p.queue.Enqueue(ctx, j)
		if err == nil {
			return nil
		}
		if !errors.Is(err, queue.ErrFull) && !errors.Is(err, queue.ErrClosed) {
			return err
		}
	}
	metrics.RecordQueueInlineRun()
	_ = execute(j)
	return nil
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return nil
	}
	p.started = false
	workers := p.workers
	p.mu.Unlock()

	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for _, w := range workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
		}
	}
	close(p.shutdown)
	if timedOut {
		p.logger.Warn(ctx, "worker pool shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
	}
	p.logger.Info(ctx, "worker pool stopped")
	return nil
}

// Map evaluates fn for every index in [0, n) on the pool and returns the
// results in index order, independent of which job finished first. The
// first error by index wins. A cancelled ctx aborts the wait.
func Map[T any](ctx context.Context, p *Pool, name string, n int, fn func(i int) (T, error)) ([]T, error) {
	results := make([]T, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		job := queue.Job{
			Name: name + "-" + strconv.Itoa(i),
			Run: func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("%s-%d panicked: %v", name, i, r)
					}
					errs[i] = err
					wg.Done()
				}()
				if err = ctx.Err(); err != nil {
					return err
				}
				results[i], err = fn(i)
				return err
			},
		}
		if p == nil {
			metrics.RecordQueueInlineRun()
			_ = execute(job)
			continue
		}
		if err := p.Submit(ctx, job); err != nil {
			errs[i] = err
			wg.Done()
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
