// Package monitor records operation timings, cache efficiency, error rate
// and memory samples, and watches heap usage against fixed thresholds.
package monitor

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultWindowSize is the number of samples kept per rolling window.
	DefaultWindowSize = 100

	// hitRateStep is the change applied to the smoothed hit rate per lookup.
	hitRateStep = 0.05

	// recentMemorySamples is how many trailing samples the memory check averages.
	recentMemorySamples = 10
)

// Report thresholds.
const (
	SlowScanThreshold   = time.Second
	HighMemoryThreshold = 100 * mb
	LowHitRateThreshold = 0.5
	HighErrorThreshold  = 0.05
)

// Recommendation texts.
const (
	RecommendSlowScan   = "Average scan time exceeds 1s; exclude large generated folders or raise the worker count."
	RecommendHighMemory = "Recent heap usage averages above 100MB; lower the cache size budget."
	RecommendLowHitRate = "Cache hit rate is below 50%; files are changing faster than results are reused."
	RecommendHighErrors = "More than 5% of operations failed; check the logs for unreadable files."
	RecommendNone       = "Performance is within normal limits."
)

// Config configures a Monitor.
type Config struct {
	// WindowSize bounds each rolling window. Default: 100.
	WindowSize int

	// ReadMemory samples heap usage on every Operation.End. Default: ReadRuntimeMemory.
	ReadMemory MemoryReader

	// Now is the clock used to time operations. Default: time.Now.
	Now func() time.Time

	// Metrics receives every observation when set.
	Metrics *Metrics

	Logger *slog.Logger
}

// Monitor aggregates performance observations.
//
// **Thread Safety:** all methods are safe for concurrent use.
type Monitor struct {
	mu sync.Mutex

	durations map[string]*window[time.Duration]
	scanTimes *window[time.Duration]
	memory    *window[uint64]

	cacheHitRate float64
	errorCount   int64
	totalOps     int64

	windowSize int
	readMemory MemoryReader
	now        func() time.Time
	metrics    *Metrics
	logger     *slog.Logger
}

// New creates a monitor.
func New(config Config) *Monitor {
	if config.WindowSize <= 0 {
		config.WindowSize = DefaultWindowSize
	}
	if config.ReadMemory == nil {
		config.ReadMemory = ReadRuntimeMemory
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Monitor{
		durations:  make(map[string]*window[time.Duration]),
		scanTimes:  newWindow[time.Duration](config.WindowSize),
		memory:     newWindow[uint64](config.WindowSize),
		windowSize: config.WindowSize,
		readMemory: config.ReadMemory,
		now:        config.Now,
		metrics:    config.Metrics,
		logger:     config.Logger,
	}
}

// Operation is an in-flight timed operation.
type Operation struct {
	monitor *Monitor
	name    string
	start   time.Time
	once    sync.Once
	elapsed time.Duration
}

// StartOperation begins timing an operation called name.
func (m *Monitor) StartOperation(name string) *Operation {
	return &Operation{monitor: m, name: name, start: m.now()}
}

// End records the elapsed time and a memory sample. Only the first call
// records; later calls return the same duration.
func (o *Operation) End() time.Duration {
	o.once.Do(func() {
		o.elapsed = o.monitor.now().Sub(o.start)
		o.monitor.record(o.name, o.elapsed)
	})
	return o.elapsed
}

func (m *Monitor) record(name string, elapsed time.Duration) {
	sample := m.readMemory()

	m.mu.Lock()
	w, ok := m.durations[name]
	if !ok {
		w = newWindow[time.Duration](m.windowSize)
		m.durations[name] = w
	}
	w.push(elapsed)
	if strings.Contains(name, "scan") {
		m.scanTimes.push(elapsed)
	}
	m.memory.push(sample.HeapUsed)
	m.totalOps++
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.OperationDuration.WithLabelValues(name).Observe(elapsed.Seconds())
		m.metrics.HeapBytes.Set(float64(sample.HeapUsed))
	}

	m.logger.Debug("operation finished", "operation", name, "duration_ms", elapsed.Milliseconds())
}

// RecordCacheHit nudges the smoothed hit rate up.
func (m *Monitor) RecordCacheHit() {
	m.adjustHitRate(hitRateStep, "hit")
}

// RecordCacheMiss nudges the smoothed hit rate down.
func (m *Monitor) RecordCacheMiss() {
	m.adjustHitRate(-hitRateStep, "miss")
}

func (m *Monitor) adjustHitRate(delta float64, result string) {
	m.mu.Lock()
	rate := m.cacheHitRate + delta
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	m.cacheHitRate = rate
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.CacheRequests.WithLabelValues(result).Inc()
		m.metrics.CacheHitRate.Set(rate)
	}
}

// RecordError counts a failure of operation towards the error rate.
func (m *Monitor) RecordError(operation string, err error) {
	m.mu.Lock()
	m.errorCount++
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.OperationErrors.WithLabelValues(operation).Inc()
	}
	m.logger.Debug("operation error recorded", "operation", operation, "error", err)
}

// OperationStats summarizes one operation's rolling window.
type OperationStats struct {
	Count   int           `json:"count"`
	Average time.Duration `json:"averageNs"`
	Min     time.Duration `json:"minNs"`
	Max     time.Duration `json:"maxNs"`
}

// PerformanceReport is a snapshot of every aggregate plus recommendations.
type PerformanceReport struct {
	AverageScanTime  time.Duration             `json:"averageScanTimeNs"`
	MemoryUsageTrend []uint64                  `json:"memoryUsageTrend"`
	CacheEfficiency  float64                   `json:"cacheEfficiency"`
	ErrorRate        float64                   `json:"errorRate"`
	TotalOperations  int64                     `json:"totalOperations"`
	Operations       map[string]OperationStats `json:"operations"`
	Recommendations  []string                  `json:"recommendations"`
}

// GetPerformanceReport returns the current aggregates. Recommendations is
// never empty: when no threshold is breached it holds RecommendNone.
func (m *Monitor) GetPerformanceReport() PerformanceReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := PerformanceReport{
		AverageScanTime:  averageDuration(m.scanTimes.values()),
		MemoryUsageTrend: m.memory.values(),
		CacheEfficiency:  m.cacheHitRate,
		ErrorRate:        m.errorRateLocked(),
		TotalOperations:  m.totalOps,
		Operations:       make(map[string]OperationStats, len(m.durations)),
	}

	for name, w := range m.durations {
		report.Operations[name] = summarize(w.values())
	}

	report.Recommendations = recommendations(report)
	return report
}

func (m *Monitor) errorRateLocked() float64 {
	if m.totalOps == 0 {
		return 0
	}
	return float64(m.errorCount) / float64(m.totalOps)
}

// Operations returns the names of every timed operation, sorted.
func (m *Monitor) Operations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.durations))
	for name := range m.durations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset discards every observation.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.durations = make(map[string]*window[time.Duration])
	m.scanTimes = newWindow[time.Duration](m.windowSize)
	m.memory = newWindow[uint64](m.windowSize)
	m.cacheHitRate = 0
	m.errorCount = 0
	m.totalOps = 0
}

func recommendations(r PerformanceReport) []string {
	var out []string

	if r.AverageScanTime > SlowScanThreshold {
		out = append(out, RecommendSlowScan)
	}
	if recentAverage(r.MemoryUsageTrend, recentMemorySamples) > HighMemoryThreshold {
		out = append(out, RecommendHighMemory)
	}
	if r.CacheEfficiency < LowHitRateThreshold {
		out = append(out, RecommendLowHitRate)
	}
	if r.ErrorRate > HighErrorThreshold {
		out = append(out, RecommendHighErrors)
	}

	if len(out) == 0 {
		out = append(out, RecommendNone)
	}
	return out
}

func recentAverage(samples []uint64, n int) float64 {
	if len(samples) == 0 {
		return 0
	}
	if len(samples) > n {
		samples = samples[len(samples)-n:]
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	return sum / float64(len(samples))
}

func averageDuration(ds []time.Duration) time.Duration {
	if len(ds) == 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range ds {
		sum += d
	}
	return sum / time.Duration(len(ds))
}

func summarize(ds []time.Duration) OperationStats {
	stats := OperationStats{Count: len(ds), Average: averageDuration(ds)}
	for i, d := range ds {
		if i == 0 || d < stats.Min {
			stats.Min = d
		}
		if d > stats.Max {
			stats.Max = d
		}
	}
	return stats
}
