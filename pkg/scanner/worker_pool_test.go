package scanner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/varscan/pkg/parser"
	"github.com/gnana997/varscan/pkg/util"
)

func echoProcessor() Processor {
	return ProcessorFunc{
		ScanFunc: func(_ context.Context, path string) ([]parser.VariableInfo, error) {
			return []parser.VariableInfo{{Name: path}}, nil
		},
	}
}

func TestWorkerPool_Lifecycle(t *testing.T) {
	pool := NewWorkerPool(2, echoProcessor(), util.NopLogger())
	assert.ErrorIs(t, pool.Submit(context.Background(), FileJob{FilePath: "early"}), ErrPoolStopped)

	pool.Start(context.Background())
	pool.Start(context.Background()) // second Start is ignored

	require.NoError(t, pool.Submit(context.Background(), FileJob{FilePath: "a", JobID: 1}))
	require.NoError(t, pool.Submit(context.Background(), FileJob{FilePath: "b", JobID: 2}))
	pool.FinishSubmitting()
	pool.FinishSubmitting()

	got := map[string]int{}
	for i := 0; i < 2; i++ {
		r := <-pool.Results()
		got[r.FilePath] = r.JobID
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, got)

	assert.ErrorIs(t, pool.Submit(context.Background(), FileJob{FilePath: "late"}), ErrPoolStopped)

	pool.Stop()
	pool.Stop()

	_, open := <-pool.Results()
	assert.False(t, open)

	stats := pool.Stats()
	assert.Equal(t, 2, stats.Workers)
	assert.Equal(t, int64(2), stats.JobsSubmitted)
	assert.Equal(t, int64(2), stats.JobsProcessed)
	assert.Equal(t, int64(0), stats.JobsFailed)
}

func TestWorkerPool_DefaultWorkerCount(t *testing.T) {
	pool := NewWorkerPool(0, echoProcessor(), nil)
	assert.Equal(t, util.DefaultWorkerCount(), pool.Stats().Workers)
	pool.Stop()
}

func TestWorkerPool_StopUnblocksWorkers(t *testing.T) {
	pool := NewWorkerPool(1, echoProcessor(), util.NopLogger())
	pool.Start(context.Background())

	// Nobody drains results, so the worker blocks on send until Stop.
	for i := 0; i < 3; i++ {
		require.NoError(t, pool.Submit(context.Background(), FileJob{FilePath: "x", JobID: i}))
	}
	pool.Stop()
}

func TestInlineExecutor_RunsOnSubmit(t *testing.T) {
	exec := NewInlineExecutor(echoProcessor(), util.NopLogger())
	exec.Start(context.Background())

	done := make(chan error, 1)
	go func() { done <- exec.Submit(context.Background(), FileJob{FilePath: "a"}) }()

	r := <-exec.Results()
	assert.Equal(t, "a", r.FilePath)
	require.NoError(t, <-done)

	exec.FinishSubmitting()
	assert.ErrorIs(t, exec.Submit(context.Background(), FileJob{FilePath: "b"}), ErrPoolStopped)

	exec.Stop()
	assert.Equal(t, int64(1), exec.Stats().JobsProcessed)
}

func TestNewExecutor(t *testing.T) {
	e, err := NewExecutor(ExecutorInline, 0, echoProcessor(), nil)
	require.NoError(t, err)
	assert.IsType(t, &InlineExecutor{}, e)
	e.Stop()

	e, err = NewExecutor("", 2, echoProcessor(), nil)
	require.NoError(t, err)
	assert.IsType(t, &WorkerPool{}, e)
	e.Stop()

	_, err = NewExecutor("gpu", 0, echoProcessor(), nil)
	assert.Error(t, err)
}
