package monitor

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/gnana997/varscan/pkg/schedule"
)

// Memory manager defaults.
const (
	DefaultCheckInterval  = 30 * time.Second
	DefaultWarningBytes   = 100 * mb
	DefaultCriticalBytes  = 200 * mb
	DefaultNotifyInterval = 5 * time.Minute

	// mediumPressureRatio is the fraction of the warning threshold where
	// pressure becomes medium.
	mediumPressureRatio = 0.7

	memoryTaskKey = "memory:check"
)

// Pressure is an ordinal band of heap usage.
type Pressure string

const (
	PressureLow      Pressure = "low"
	PressureMedium   Pressure = "medium"
	PressureHigh     Pressure = "high"
	PressureCritical Pressure = "critical"
)

// CleanupFunc releases memory held by a component.
type CleanupFunc func() error

// Notifier surfaces a critical memory condition to the user.
type Notifier interface {
	NotifyCriticalMemory(stats MemoryStats)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(stats MemoryStats)

func (f NotifierFunc) NotifyCriticalMemory(stats MemoryStats) { f(stats) }

// MemoryConfig configures a MemoryManager.
type MemoryConfig struct {
	Interval      time.Duration
	WarningBytes  uint64
	CriticalBytes uint64

	// NotifyInterval throttles Notifier calls. Default: 5 minutes.
	NotifyInterval time.Duration

	ReadMemory MemoryReader
	Notifier   Notifier

	// FreeMemory runs at critical pressure after the cleanups. Default: ForceGC.
	FreeMemory func()

	Metrics *Metrics
	Logger  *slog.Logger
}

// DefaultMemoryConfig returns 30s sampling with 100MB/200MB thresholds.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		Interval:       DefaultCheckInterval,
		WarningBytes:   DefaultWarningBytes,
		CriticalBytes:  DefaultCriticalBytes,
		NotifyInterval: DefaultNotifyInterval,
	}
}

// Validate rejects non-positive thresholds and a critical level at or below warning.
func (c MemoryConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("memory check interval must be positive")
	}
	if c.WarningBytes == 0 {
		return fmt.Errorf("memory warning threshold must be positive")
	}
	if c.CriticalBytes <= c.WarningBytes {
		return fmt.Errorf("memory critical threshold (%d) must exceed warning threshold (%d)", c.CriticalBytes, c.WarningBytes)
	}
	return nil
}

// MemoryManager samples heap usage on a schedule and, when a threshold is
// crossed, runs every registered cleanup. At critical pressure it also
// forces a collection and notifies the user, at most once per NotifyInterval.
type MemoryManager struct {
	mu       sync.Mutex
	cleanups map[string]CleanupFunc
	last     MemoryStats

	sched  *schedule.Scheduler
	notify rate.Sometimes
	config MemoryConfig
	logger *slog.Logger
}

// NewMemoryManager creates a manager that schedules checks on sched.
func NewMemoryManager(sched *schedule.Scheduler, config MemoryConfig) (*MemoryManager, error) {
	defaults := DefaultMemoryConfig()
	if config.Interval == 0 {
		config.Interval = defaults.Interval
	}
	if config.WarningBytes == 0 {
		config.WarningBytes = defaults.WarningBytes
	}
	if config.CriticalBytes == 0 {
		config.CriticalBytes = defaults.CriticalBytes
	}
	if config.NotifyInterval == 0 {
		config.NotifyInterval = defaults.NotifyInterval
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.ReadMemory == nil {
		config.ReadMemory = ReadRuntimeMemory
	}
	if config.FreeMemory == nil {
		config.FreeMemory = ForceGC
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &MemoryManager{
		cleanups: make(map[string]CleanupFunc),
		sched:    sched,
		notify:   rate.Sometimes{First: 1, Interval: config.NotifyInterval},
		config:   config,
		logger:   config.Logger,
	}, nil
}

// RegisterCleanup adds or replaces the cleanup registered under name.
func (mm *MemoryManager) RegisterCleanup(name string, fn CleanupFunc) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.cleanups[name] = fn
}

// UnregisterCleanup removes the cleanup registered under name.
func (mm *MemoryManager) UnregisterCleanup(name string) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	delete(mm.cleanups, name)
}

// Start schedules periodic checks. Returns false when no scheduler was
// given or it is closed.
func (mm *MemoryManager) Start() bool {
	if mm.sched == nil {
		return false
	}
	mm.logger.Debug("memory monitoring started", "interval", mm.config.Interval)
	return mm.sched.Every(memoryTaskKey, mm.config.Interval, func() { mm.Check() })
}

// Stop cancels periodic checks.
func (mm *MemoryManager) Stop() {
	if mm.sched != nil {
		mm.sched.Cancel(memoryTaskKey)
	}
}

// Check samples memory, reacts to the thresholds, and returns the sample.
func (mm *MemoryManager) Check() MemoryStats {
	stats := mm.sample()

	switch {
	case stats.HeapUsed > mm.config.CriticalBytes:
		mm.logger.Error("critical memory usage",
			"heap_mb", fmt.Sprintf("%.1f", stats.HeapUsedMB()),
			"critical_mb", mm.config.CriticalBytes/mb)
		mm.runCleanups(PressureCritical)
		mm.config.FreeMemory()
		if mm.config.Notifier != nil {
			mm.notify.Do(func() { mm.config.Notifier.NotifyCriticalMemory(stats) })
		}

	case stats.HeapUsed > mm.config.WarningBytes:
		mm.logger.Warn("high memory usage",
			"heap_mb", fmt.Sprintf("%.1f", stats.HeapUsedMB()),
			"warning_mb", mm.config.WarningBytes/mb)
		mm.runCleanups(PressureHigh)
	}

	return stats
}

func (mm *MemoryManager) sample() MemoryStats {
	stats := mm.config.ReadMemory()

	mm.mu.Lock()
	mm.last = stats
	mm.mu.Unlock()

	if mm.config.Metrics != nil {
		mm.config.Metrics.HeapBytes.Set(float64(stats.HeapUsed))
	}
	return stats
}

// runCleanups calls every cleanup in name order. A failing or panicking
// cleanup is logged and does not stop the rest.
func (mm *MemoryManager) runCleanups(level Pressure) {
	mm.mu.Lock()
	names := make([]string, 0, len(mm.cleanups))
	for name := range mm.cleanups {
		names = append(names, name)
	}
	fns := make([]CleanupFunc, len(names))
	sort.Strings(names)
	for i, name := range names {
		fns[i] = mm.cleanups[name]
	}
	mm.mu.Unlock()

	if mm.config.Metrics != nil {
		mm.config.Metrics.MemoryCleanups.WithLabelValues(string(level)).Inc()
	}

	for i, fn := range fns {
		if err := runCleanup(fn); err != nil {
			mm.logger.Error("memory cleanup failed", "cleanup", names[i], "error", err)
		}
	}
}

func runCleanup(fn CleanupFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cleanup panicked: %v", r)
		}
	}()
	return fn()
}

// GetCurrentMemoryUsage takes a fresh sample without reacting to thresholds.
func (mm *MemoryManager) GetCurrentMemoryUsage() MemoryStats {
	return mm.sample()
}

// LastSample returns the most recent sample, or the zero value before the first.
func (mm *MemoryManager) LastSample() MemoryStats {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	return mm.last
}

// GetMemoryPressure maps current heap usage to a band.
func (mm *MemoryManager) GetMemoryPressure() Pressure {
	return mm.PressureFor(mm.sample().HeapUsed)
}

// PressureFor maps heapUsed to a band using the configured thresholds.
func (mm *MemoryManager) PressureFor(heapUsed uint64) Pressure {
	switch {
	case heapUsed > mm.config.CriticalBytes:
		return PressureCritical
	case heapUsed > mm.config.WarningBytes:
		return PressureHigh
	case float64(heapUsed) > float64(mm.config.WarningBytes)*mediumPressureRatio:
		return PressureMedium
	default:
		return PressureLow
	}
}

// Dispose stops checks and drops every cleanup.
func (mm *MemoryManager) Dispose() {
	mm.Stop()

	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.cleanups = make(map[string]CleanupFunc)
}
