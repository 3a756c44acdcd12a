// Package workspace wires the scan pipeline together: change notifications
// are debounced, results are served from the cache when the file has not
// changed, and every scan is timed by the performance monitor.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gnana997/varscan/pkg/cache"
	"github.com/gnana997/varscan/pkg/debounce"
	"github.com/gnana997/varscan/pkg/extractor"
	"github.com/gnana997/varscan/pkg/monitor"
	"github.com/gnana997/varscan/pkg/parser"
	"github.com/gnana997/varscan/pkg/scanner"
	"github.com/gnana997/varscan/pkg/schedule"
	"github.com/gnana997/varscan/pkg/util"
)

// Operation names recorded by the monitor.
const (
	OpScanFile      = "scanFile"
	OpScanWorkspace = "scanWorkspace"
	OpParseFile     = "parseFile"
	OpReferences    = "findReferences"
)

// Memory cleanup names.
const (
	cleanupResultCache = "result-cache"
	cleanupFileContent = "file-content"
)

// Config holds the settings of every pipeline component.
type Config struct {
	Cache         cache.Config
	DebounceDelay time.Duration
	Scan          scanner.Options
	Memory        monitor.MemoryConfig
	FileCache     *util.FileCacheConfig

	// Registry overrides the built-in parsers.
	Registry *parser.Registry

	// Metrics receives monitor and memory observations when set.
	Metrics *monitor.Metrics

	// ReadMemory replaces runtime sampling in the monitor and memory manager.
	ReadMemory monitor.MemoryReader

	Logger *slog.Logger
}

// DefaultConfig returns the default budgets, delays and scan options.
func DefaultConfig() Config {
	return Config{
		Cache:         cache.DefaultConfig(),
		DebounceDelay: debounce.DefaultDelay,
		Scan:          scanner.DefaultOptions(),
		Memory:        monitor.DefaultMemoryConfig(),
		FileCache:     util.DefaultFileCacheConfig(),
	}
}

// Service owns one instance of every pipeline component.
//
// **Thread Safety:** all methods are safe for concurrent use. Listeners are
// called on scheduler goroutines.
type Service struct {
	registry  *parser.Registry
	extractor *extractor.Extractor
	cache     *cache.Manager
	sched     *schedule.Scheduler
	debounce  *debounce.Manager
	scanner   *scanner.Scanner
	monitor   *monitor.Monitor
	memory    *monitor.MemoryManager
	logger    *slog.Logger

	mu        sync.RWMutex
	listeners []UpdateListener
	closed    bool
}

// New builds the pipeline. Nothing runs in the background until Start.
func New(cfg Config) (*Service, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = parser.NewDefaultRegistry(logger)
	}

	mon := monitor.New(monitor.Config{
		ReadMemory: cfg.ReadMemory,
		Metrics:    cfg.Metrics,
		Logger:     logger,
	})

	cacheCfg := cfg.Cache
	cacheCfg.Observer = mon
	cacheCfg.Logger = logger
	results, err := cache.NewManager(cacheCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	fileCacheCfg := util.DefaultFileCacheConfig()
	if cfg.FileCache != nil {
		*fileCacheCfg = *cfg.FileCache
	}
	fileCacheCfg.Logger = logger
	ext := extractor.NewExtractor(registry, util.NewFileCache(fileCacheCfg), logger)

	sched := schedule.New(logger)

	memCfg := cfg.Memory
	memCfg.ReadMemory = cfg.ReadMemory
	memCfg.Metrics = cfg.Metrics
	memCfg.Logger = logger
	memory, err := monitor.NewMemoryManager(sched, memCfg)
	if err != nil {
		sched.Close()
		ext.Close()
		return nil, fmt.Errorf("failed to create memory manager: %w", err)
	}

	s := &Service{
		registry:  registry,
		extractor: ext,
		cache:     results,
		sched:     sched,
		debounce:  debounce.NewManager(cfg.DebounceDelay, sched, logger),
		monitor:   mon,
		memory:    memory,
		logger:    logger,
	}

	s.scanner, err = scanner.New(s, cfg.Scan, logger)
	if err != nil {
		sched.Close()
		ext.Close()
		return nil, fmt.Errorf("invalid scan options: %w", err)
	}

	memory.RegisterCleanup(cleanupResultCache, func() error {
		n := results.Purge()
		logger.Info("result cache purged under memory pressure", "entries", n)
		return nil
	})
	memory.RegisterCleanup(cleanupFileContent, ext.ReleaseContent)

	return s, nil
}

// Start begins periodic memory checks.
func (s *Service) Start() {
	s.memory.Start()
}

// Supports reports whether path has a registered parser.
func (s *Service) Supports(path string) bool {
	return s.extractor.Supports(path)
}

// ScanFile returns the variables of path, from the cache when the file has
// not been modified since it was last scanned.
func (s *Service) ScanFile(ctx context.Context, path string) ([]parser.VariableInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	op := s.monitor.StartOperation(OpScanFile)
	defer op.End()

	if cached, ok := s.cache.GetCachedResult(path); ok {
		return cached.Variables, nil
	}

	result, err := s.extractor.ExtractPath(path)
	if err != nil {
		s.monitor.RecordError(OpScanFile, err)
		return nil, err
	}

	s.cache.SetCachedResult(path, result.Variables)
	return result.Variables, nil
}

// ParseFile extracts variables and imports from path and refreshes the cache.
func (s *Service) ParseFile(ctx context.Context, path string) (*extractor.PerFileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	op := s.monitor.StartOperation(OpParseFile)
	defer op.End()

	result, err := s.extractor.ExtractPath(path)
	if err != nil {
		s.monitor.RecordError(OpParseFile, err)
		return nil, err
	}

	s.cache.SetCachedResult(path, result.Variables)
	return result, nil
}

// ScanWorkspace scans every supported file below root.
func (s *Service) ScanWorkspace(ctx context.Context, root string) (map[string][]parser.VariableInfo, *scanner.ScanStats, error) {
	op := s.monitor.StartOperation(OpScanWorkspace)
	defer op.End()

	files, stats, err := s.scanner.ScanWorkspace(ctx, root)
	if err != nil {
		s.monitor.RecordError(OpScanWorkspace, err)
		return files, stats, err
	}
	return files, stats, nil
}

// FindReferences returns every occurrence of name in path.
func (s *Service) FindReferences(path, name string) ([]parser.ReferenceInfo, error) {
	op := s.monitor.StartOperation(OpReferences)
	defer op.End()

	refs, err := s.extractor.References(path, name)
	if err != nil {
		s.monitor.RecordError(OpReferences, err)
		return nil, err
	}
	return refs, nil
}

// Imports returns the import statements of path.
func (s *Service) Imports(ctx context.Context, path string) ([]parser.ImportInfo, error) {
	result, err := s.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return result.Imports, nil
}

// Refactorings returns the refactorings supported for path's language.
func (s *Service) Refactorings(path string) ([]parser.RefactoringType, error) {
	p, ok := s.registry.GetParserForFile(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", parser.ErrUnsupportedFile, path)
	}
	return p.GetSupportedRefactorings(), nil
}

// Registry returns the parser registry.
func (s *Service) Registry() *parser.Registry { return s.registry }

// Cache returns the result cache.
func (s *Service) Cache() *cache.Manager { return s.cache }

// Monitor returns the performance monitor.
func (s *Service) Monitor() *monitor.Monitor { return s.monitor }

// Memory returns the memory manager.
func (s *Service) Memory() *monitor.MemoryManager { return s.memory }

// ScanOptions returns the effective scan options.
func (s *Service) ScanOptions() scanner.Options { return s.scanner.Options() }

// CacheStats returns the result cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.GetCacheStats()
}

// PerformanceReport returns the monitor's report.
func (s *Service) PerformanceReport() monitor.PerformanceReport {
	return s.monitor.GetPerformanceReport()
}

// MemoryUsage samples current memory.
func (s *Service) MemoryUsage() monitor.MemoryStats {
	return s.memory.GetCurrentMemoryUsage()
}

// MemoryPressure returns the current pressure band.
func (s *Service) MemoryPressure() monitor.Pressure {
	return s.memory.GetMemoryPressure()
}

// Close cancels pending updates and timers and releases every cache.
// Safe to call more than once.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.listeners = nil
	s.mu.Unlock()

	s.debounce.Dispose()
	s.memory.Dispose()
	s.sched.Close()
	s.cache.Dispose()

	if err := s.extractor.Close(); err != nil {
		return fmt.Errorf("failed to release file cache: %w", err)
	}
	return nil
}
