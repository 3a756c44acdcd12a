package monitor

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/varscan/pkg/schedule"
	"github.com/gnana997/varscan/pkg/util"
)

type countingNotifier struct {
	mu    sync.Mutex
	calls []MemoryStats
}

func (n *countingNotifier) NotifyCriticalMemory(stats MemoryStats) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, stats)
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

func newTestMemoryManager(t *testing.T, sched *schedule.Scheduler, mem *fakeMemory, notifier Notifier, freed *atomic.Int32) *MemoryManager {
	t.Helper()
	cfg := DefaultMemoryConfig()
	cfg.ReadMemory = mem.read
	cfg.Notifier = notifier
	cfg.FreeMemory = func() { freed.Add(1) }
	cfg.Logger = util.NopLogger()

	mm, err := NewMemoryManager(sched, cfg)
	require.NoError(t, err)
	return mm
}

func TestMemoryManager_Pressure(t *testing.T) {
	mem := &fakeMemory{}
	var freed atomic.Int32
	mm := newTestMemoryManager(t, nil, mem, nil, &freed)

	tests := []struct {
		heap uint64
		want Pressure
	}{
		{0, PressureLow},
		{70 * mb, PressureLow},
		{70*mb + 1, PressureMedium},
		{100 * mb, PressureMedium},
		{100*mb + 1, PressureHigh},
		{200 * mb, PressureHigh},
		{200*mb + 1, PressureCritical},
	}
	for _, tt := range tests {
		mem.set(tt.heap)
		assert.Equal(t, tt.want, mm.GetMemoryPressure(), "heap=%d", tt.heap)
	}
}

func TestMemoryManager_CheckThresholds(t *testing.T) {
	mem := &fakeMemory{}
	notifier := &countingNotifier{}
	var freed atomic.Int32
	mm := newTestMemoryManager(t, nil, mem, notifier, &freed)

	var order []string
	mm.RegisterCleanup("b-cache", func() error {
		order = append(order, "b-cache")
		return nil
	})
	mm.RegisterCleanup("a-failing", func() error {
		order = append(order, "a-failing")
		return errors.New("cannot free")
	})
	mm.RegisterCleanup("c-panicking", func() error {
		order = append(order, "c-panicking")
		panic("boom")
	})

	mem.set(50 * mb)
	mm.Check()
	assert.Empty(t, order, "below warning nothing runs")

	mem.set(150 * mb)
	stats := mm.Check()
	assert.Equal(t, uint64(150*mb), stats.HeapUsed)
	assert.Equal(t, []string{"a-failing", "b-cache", "c-panicking"}, order, "one failure does not stop the others")
	assert.Equal(t, int32(0), freed.Load(), "warning does not force a collection")
	assert.Equal(t, 0, notifier.count())

	order = nil
	mem.set(250 * mb)
	mm.Check()
	assert.Len(t, order, 3)
	assert.Equal(t, int32(1), freed.Load())
	assert.Equal(t, 1, notifier.count())

	// The user warning is throttled; cleanups and collection are not.
	mm.Check()
	assert.Len(t, order, 6)
	assert.Equal(t, int32(2), freed.Load())
	assert.Equal(t, 1, notifier.count())

	assert.Equal(t, uint64(250*mb), mm.LastSample().HeapUsed)
}

func TestMemoryManager_UnregisterAndDispose(t *testing.T) {
	mem := &fakeMemory{heap: 150 * mb}
	var freed atomic.Int32
	mm := newTestMemoryManager(t, nil, mem, nil, &freed)

	var calls atomic.Int32
	mm.RegisterCleanup("x", func() error { calls.Add(1); return nil })
	mm.Check()
	mm.UnregisterCleanup("x")
	mm.Check()
	assert.Equal(t, int32(1), calls.Load())

	mm.RegisterCleanup("y", func() error { calls.Add(1); return nil })
	mm.Dispose()
	mm.Check()
	assert.Equal(t, int32(1), calls.Load())
}

func TestMemoryManager_PeriodicCheck(t *testing.T) {
	sched := schedule.New(util.NopLogger())
	defer sched.Close()

	mem := &fakeMemory{heap: 150 * mb}
	var freed atomic.Int32

	cfg := DefaultMemoryConfig()
	cfg.Interval = 10 * time.Millisecond
	cfg.ReadMemory = mem.read
	cfg.FreeMemory = func() { freed.Add(1) }
	cfg.Logger = util.NopLogger()
	mm, err := NewMemoryManager(sched, cfg)
	require.NoError(t, err)

	var calls atomic.Int32
	mm.RegisterCleanup("count", func() error { calls.Add(1); return nil })

	require.True(t, mm.Start())
	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)

	mm.Stop()
	assert.False(t, sched.IsPending(memoryTaskKey))
}

func TestMemoryManager_StartWithoutScheduler(t *testing.T) {
	var freed atomic.Int32
	mm := newTestMemoryManager(t, nil, &fakeMemory{}, nil, &freed)
	assert.False(t, mm.Start())
	mm.Stop()
}

func TestMemoryConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultMemoryConfig().Validate())

	cfg := DefaultMemoryConfig()
	cfg.CriticalBytes = cfg.WarningBytes
	assert.Error(t, cfg.Validate())

	_, err := NewMemoryManager(nil, MemoryConfig{WarningBytes: 300 * mb})
	assert.Error(t, err, "critical defaults to 200MB which is below the warning")

	cfg = DefaultMemoryConfig()
	cfg.Interval = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestMemoryManager_Metrics(t *testing.T) {
	metrics := NewMetrics(nil)
	mem := &fakeMemory{heap: 250 * mb}

	cfg := DefaultMemoryConfig()
	cfg.ReadMemory = mem.read
	cfg.FreeMemory = func() {}
	cfg.Metrics = metrics
	cfg.Logger = util.NopLogger()
	mm, err := NewMemoryManager(nil, cfg)
	require.NoError(t, err)

	mm.Check()
	mem.set(150 * mb)
	mm.Check()

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MemoryCleanups.WithLabelValues("critical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MemoryCleanups.WithLabelValues("high")))
	assert.Equal(t, float64(150*mb), testutil.ToFloat64(metrics.HeapBytes))
}

func TestReadRuntimeMemory(t *testing.T) {
	stats := ReadRuntimeMemory()
	assert.Greater(t, stats.HeapUsed, uint64(0))
	assert.GreaterOrEqual(t, stats.HeapTotal, stats.HeapUsed)
	assert.False(t, stats.Timestamp.IsZero())
}
