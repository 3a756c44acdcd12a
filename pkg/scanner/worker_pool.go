package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gnana997/varscan/pkg/util"
)

// Executor runs file jobs and delivers one FileResult or FileError per job.
//
// Lifecycle: Start, then Submit any number of jobs, then FinishSubmitting,
// and finally Stop once every outcome has been received. Submit and
// FinishSubmitting must be called from a single goroutine; Results and
// Errors must be drained concurrently with Submit.
type Executor interface {
	Start(ctx context.Context)
	Submit(ctx context.Context, job FileJob) error
	Results() <-chan FileResult
	Errors() <-chan FileError
	FinishSubmitting()
	Stop()
	Stats() ExecutorStats
}

// NewExecutor builds the executor named by kind.
func NewExecutor(kind ExecutorKind, workers int, processor Processor, logger *slog.Logger) (Executor, error) {
	switch kind {
	case ExecutorPool, "":
		return NewWorkerPool(workers, processor, logger), nil
	case ExecutorInline:
		return NewInlineExecutor(processor, logger), nil
	default:
		return nil, fmt.Errorf("unknown executor %q", kind)
	}
}

// WorkerPool manages a pool of goroutines for parallel file scanning.
//
// **Architecture:**
//   - Buffered job channel shared by all workers
//   - Separate result and error channels
//   - Context cancellation drops queued jobs on Stop
//
// **Usage:**
//
//	pool := NewWorkerPool(0, processor, logger)
//	pool.Start(ctx)
//	defer pool.Stop()
//
//	go collect(pool.Results(), pool.Errors())
//	for i, file := range files {
//	    pool.Submit(ctx, FileJob{FilePath: file, JobID: i})
//	}
//	pool.FinishSubmitting()
type WorkerPool struct {
	numWorkers int
	jobs       chan FileJob
	results    chan FileResult
	errors     chan FileError
	wg         sync.WaitGroup
	processor  Processor
	logger     *slog.Logger

	// Lifecycle management
	ctx        context.Context
	cancel     context.CancelFunc
	started    atomic.Bool
	stopped    atomic.Bool
	jobsClosed atomic.Bool

	// Statistics
	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewWorkerPool creates a pool. numWorkers 0 means util.DefaultWorkerCount.
func NewWorkerPool(numWorkers int, processor Processor, logger *slog.Logger) *WorkerPool {
	if logger == nil {
		logger = slog.Default()
	}
	numWorkers = util.WorkerCount(numWorkers)

	return &WorkerPool{
		numWorkers: numWorkers,
		jobs:       make(chan FileJob, numWorkers*2),
		results:    make(chan FileResult, numWorkers),
		errors:     make(chan FileError, numWorkers),
		processor:  processor,
		logger:     logger,
	}
}

// Start spawns the worker goroutines. Jobs run under a context derived from ctx.
func (wp *WorkerPool) Start(ctx context.Context) {
	if !wp.started.CompareAndSwap(false, true) {
		wp.logger.Warn("worker pool already started")
		return
	}
	wp.ctx, wp.cancel = context.WithCancel(ctx)

	wp.logger.Debug("starting worker pool", "workers", wp.numWorkers)

	for i := 0; i < wp.numWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug("worker cancelled", "worker_id", id)
			return

		case job, ok := <-wp.jobs:
			if !ok {
				return
			}
			wp.logger.Debug("worker received job", "worker_id", id, "file", job.FilePath, "job_id", job.JobID)
			wp.processJob(job)
		}
	}
}

func (wp *WorkerPool) processJob(job FileJob) {
	vars, err := wp.processor.ScanFile(wp.ctx, job.FilePath)
	if err != nil {
		wp.jobsFailed.Add(1)
		select {
		case wp.errors <- FileError{FilePath: job.FilePath, JobID: job.JobID, Err: err}:
		case <-wp.ctx.Done():
		}
		return
	}

	wp.jobsProcessed.Add(1)
	select {
	case wp.results <- FileResult{FilePath: job.FilePath, Variables: vars, JobID: job.JobID}:
	case <-wp.ctx.Done():
	}
}

// Submit enqueues a job, blocking while the queue is full.
func (wp *WorkerPool) Submit(ctx context.Context, job FileJob) error {
	if !wp.started.Load() || wp.stopped.Load() || wp.jobsClosed.Load() {
		return ErrPoolStopped
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.ctx.Done():
		return ErrPoolStopped
	case wp.jobs <- job:
		wp.jobsSubmitted.Add(1)
		return nil
	}
}

// Results returns the results channel. It is closed by Stop.
func (wp *WorkerPool) Results() <-chan FileResult {
	return wp.results
}

// Errors returns the errors channel. It is closed by Stop.
func (wp *WorkerPool) Errors() <-chan FileError {
	return wp.errors
}

// FinishSubmitting closes the job queue so workers exit once it drains.
// Safe to call more than once.
func (wp *WorkerPool) FinishSubmitting() {
	if wp.jobsClosed.CompareAndSwap(false, true) {
		close(wp.jobs)
		wp.logger.Debug("job queue closed", "total_submitted", wp.jobsSubmitted.Load())
	}
}

// Stop cancels outstanding work, waits for every worker and closes the
// result and error channels. Safe to call more than once.
func (wp *WorkerPool) Stop() {
	if !wp.stopped.CompareAndSwap(false, true) {
		return
	}

	wp.FinishSubmitting()
	if wp.started.Load() {
		wp.cancel()
		wp.wg.Wait()
	}

	close(wp.results)
	close(wp.errors)

	wp.logger.Debug("worker pool stopped",
		"jobs_submitted", wp.jobsSubmitted.Load(),
		"jobs_processed", wp.jobsProcessed.Load(),
		"jobs_failed", wp.jobsFailed.Load())
}

// Stats returns current pool counters.
func (wp *WorkerPool) Stats() ExecutorStats {
	return ExecutorStats{
		Workers:       wp.numWorkers,
		JobsSubmitted: wp.jobsSubmitted.Load(),
		JobsProcessed: wp.jobsProcessed.Load(),
		JobsFailed:    wp.jobsFailed.Load(),
	}
}
