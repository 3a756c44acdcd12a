package scanner

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// InlineExecutor runs each job synchronously inside Submit and hands the
// outcome to the same channels a WorkerPool would. Submit blocks until the
// outcome has been received, so a collector must be draining.
type InlineExecutor struct {
	processor Processor
	logger    *slog.Logger
	results   chan FileResult
	errors    chan FileError

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	stopped atomic.Bool
	closed  atomic.Bool

	jobsSubmitted atomic.Int64
	jobsProcessed atomic.Int64
	jobsFailed    atomic.Int64
}

// NewInlineExecutor creates an executor without worker goroutines.
func NewInlineExecutor(processor Processor, logger *slog.Logger) *InlineExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &InlineExecutor{
		processor: processor,
		logger:    logger,
		results:   make(chan FileResult),
		errors:    make(chan FileError),
	}
}

func (e *InlineExecutor) Start(ctx context.Context) {
	if !e.started.CompareAndSwap(false, true) {
		return
	}
	e.ctx, e.cancel = context.WithCancel(ctx)
}

func (e *InlineExecutor) Submit(ctx context.Context, job FileJob) error {
	if !e.started.Load() || e.stopped.Load() || e.closed.Load() {
		return ErrPoolStopped
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	e.jobsSubmitted.Add(1)

	e.logger.Debug("inline job", "file", job.FilePath, "job_id", job.JobID)

	vars, err := e.processor.ScanFile(e.ctx, job.FilePath)
	if err != nil {
		e.jobsFailed.Add(1)
		select {
		case e.errors <- FileError{FilePath: job.FilePath, JobID: job.JobID, Err: err}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-e.ctx.Done():
			return ErrPoolStopped
		}
	}

	e.jobsProcessed.Add(1)
	select {
	case e.results <- FileResult{FilePath: job.FilePath, Variables: vars, JobID: job.JobID}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.ctx.Done():
		return ErrPoolStopped
	}
}

func (e *InlineExecutor) Results() <-chan FileResult { return e.results }

func (e *InlineExecutor) Errors() <-chan FileError { return e.errors }

func (e *InlineExecutor) FinishSubmitting() {
	e.closed.Store(true)
}

func (e *InlineExecutor) Stop() {
	if !e.stopped.CompareAndSwap(false, true) {
		return
	}
	e.closed.Store(true)
	if e.started.Load() {
		e.cancel()
	}
	close(e.results)
	close(e.errors)
}

func (e *InlineExecutor) Stats() ExecutorStats {
	return ExecutorStats{
		Workers:       1,
		JobsSubmitted: e.jobsSubmitted.Load(),
		JobsProcessed: e.jobsProcessed.Load(),
		JobsFailed:    e.jobsFailed.Load(),
	}
}
