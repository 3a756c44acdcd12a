// FileCache serves file contents from memory-mapped regions.
//
// Scans re-read the same files whenever the workspace changes, so mapped
// files are kept until they change on disk, are invalidated, or the cache
// is closed. Each read is validated against the file's current size and
// modification time; a stale mapping is released and the file re-mapped.
//
// **Safety Features:**
//   - Optional MaxFiles limit (prevents file descriptor exhaustion)
//   - Optional MaxMemoryMB limit (prevents runaway virtual memory usage)
//   - Files over a limit are read through with os.ReadFile and not kept
//   - Graceful fallback to os.ReadFile if mmap fails
//   - Thread-safe with sync.RWMutex (parallel reads, exclusive writes)
package util

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
)

// FileCache provides validated, memory-mapped file contents.
//
// Thread-safe: Multiple goroutines can call methods concurrently.
type FileCache interface {
	// Content returns the current contents of filePath.
	//
	// The returned string is a copy, so it stays valid after the mapping
	// is released. A stat failure drops any cached mapping for the path.
	Content(filePath string) (string, error)

	// Invalidate releases the mapping for filePath, if any.
	Invalidate(filePath string)

	// Size returns number of currently cached files.
	Size() int

	// Stats returns current cache metrics.
	Stats() FileCacheStats

	// Close unmaps all files and releases resources.
	//
	// Returns error if any files fail to unmap (logged, not fatal).
	Close() error
}

// FileCacheConfig controls FileCache behavior.
type FileCacheConfig struct {
	// MaxFiles is the maximum number of files to keep mapped.
	// Set to 0 for unlimited.
	MaxFiles int

	// MaxMemoryMB is the maximum virtual memory to map (in MB).
	// Set to 0 for unlimited.
	//
	// This limits address space, not physical RAM; only accessed pages
	// are loaded.
	MaxMemoryMB int

	// EnableMetrics determines whether to track cache statistics.
	EnableMetrics bool

	// Logger for warnings and errors. If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultFileCacheConfig returns recommended defaults for most workspaces.
func DefaultFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:      4096,
		MaxMemoryMB:   512,
		EnableMetrics: true,
		Logger:        nil, // Will use slog.Default()
	}
}

// UnboundedFileCacheConfig returns config with no limits. Intended for
// tests and small workspaces.
func UnboundedFileCacheConfig() *FileCacheConfig {
	return &FileCacheConfig{
		MaxFiles:      0,
		MaxMemoryMB:   0,
		EnableMetrics: true,
		Logger:        nil,
	}
}

// MappedFile is one cached file.
type MappedFile struct {
	// Path is the path the file was loaded from.
	Path string

	// Data is the mapped region, or the heap copy when mmap failed.
	// Nil for empty files.
	Data mmap.MMap

	// File is kept open while Data is mapped. Nil for empty files and
	// fallback entries.
	File *os.File

	// Size and ModTime are the stat values the data was loaded with.
	Size    int64
	ModTime time.Time

	// MappedAt is when this file was loaded.
	MappedAt time.Time

	mapped bool
}

// fresh reports whether info still describes the loaded data.
func (mf *MappedFile) fresh(info os.FileInfo) bool {
	return mf.Size == info.Size() && mf.ModTime.Equal(info.ModTime())
}

// FileCacheStats tracks cache performance metrics.
type FileCacheStats struct {
	// FilesLoaded is the total number of files loaded (cumulative).
	FilesLoaded int64

	// FilesCached is the current number of cached files.
	FilesCached int

	// CacheHits is the number of reads served from a fresh mapping.
	CacheHits int64

	// CacheMisses is the number of reads that had to load the file.
	CacheMisses int64

	// Reloads is the number of mappings found stale and replaced.
	Reloads int64

	// ReadThroughs is the number of reads served without caching
	// because a limit was reached.
	ReadThroughs int64

	// MmapFailures is the number of files that failed to mmap (cumulative).
	MmapFailures int64

	// TotalMappedMB is the total virtual memory mapped (current).
	TotalMappedMB float64
}

// NewFileCache creates a new FileCache with the given config.
//
// If config is nil, uses DefaultFileCacheConfig().
func NewFileCache(config *FileCacheConfig) FileCache {
	if config == nil {
		config = DefaultFileCacheConfig()
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &fileCacheImpl{
		config: config,
		cache:  make(map[string]*MappedFile),
		logger: logger,
	}
}

// fileCacheImpl is the internal implementation of FileCache.
//
// Thread-safety:
//   - mu (RWMutex): protects cache
//   - statsMu (Mutex): protects stats, kept separate to avoid contention
type fileCacheImpl struct {
	config *FileCacheConfig
	logger *slog.Logger

	cache map[string]*MappedFile // path → loaded file
	mu    sync.RWMutex

	stats   FileCacheStats
	statsMu sync.Mutex
}

// Content returns the contents of filePath, loading or reloading as needed.
func (fc *fileCacheImpl) Content(filePath string) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		fc.Invalidate(filePath)
		return "", fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%q is a directory", filePath)
	}

	// Fast path: fresh mapping (RLock - allows parallel reads)
	fc.mu.RLock()
	if mf, ok := fc.cache[filePath]; ok && mf.fresh(info) {
		content := string(mf.Data)
		fc.mu.RUnlock()
		fc.recordHit()
		return content, nil
	}
	fc.mu.RUnlock()

	// Slow path: load and mmap file (Lock - exclusive access)
	fc.mu.Lock()
	defer fc.mu.Unlock()

	// Double-check: another goroutine might have reloaded it meanwhile
	if mf, ok := fc.cache[filePath]; ok {
		if mf.fresh(info) {
			fc.recordHit()
			return string(mf.Data), nil
		}
		fc.releaseLocked(mf)
		delete(fc.cache, filePath)
		fc.recordReload()
	}
	fc.recordMiss()

	if reason := fc.limitReachedLocked(info.Size()); reason != "" {
		fc.logger.Debug("file cache limit reached, reading through",
			"file", filePath,
			"reason", reason)
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("failed to read file %q: %w", filePath, err)
		}
		fc.recordReadThrough()
		return string(data), nil
	}

	mf, err := fc.loadFile(filePath)
	if err != nil {
		return "", err
	}

	fc.cache[filePath] = mf
	fc.recordLoad()

	return string(mf.Data), nil
}

// limitReachedLocked returns a non-empty reason when caching another file
// of newFileSize bytes would exceed a configured limit.
//
// Must be called while holding mu.Lock.
func (fc *fileCacheImpl) limitReachedLocked(newFileSize int64) string {
	if fc.config.MaxFiles > 0 && len(fc.cache) >= fc.config.MaxFiles {
		return fmt.Sprintf("%d files (limit: %d files)", len(fc.cache), fc.config.MaxFiles)
	}

	if fc.config.MaxMemoryMB > 0 && newFileSize > 0 {
		currentMB := fc.calculateTotalMappedMBLocked()
		newFileMB := float64(newFileSize) / (1024 * 1024)
		if currentMB+newFileMB >= float64(fc.config.MaxMemoryMB) {
			return fmt.Sprintf("%.2f MB + %.2f MB (limit: %d MB)", currentMB, newFileMB, fc.config.MaxMemoryMB)
		}
	}

	return ""
}

// loadFile opens and mmaps a file, with fallback to os.ReadFile if mmap fails.
//
// Must be called while holding mu.Lock.
func (fc *fileCacheImpl) loadFile(filePath string) (*MappedFile, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", filePath, err)
	}

	// Stat the open handle so the recorded metadata matches what is mapped
	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}

	mf := &MappedFile{
		Path:     filePath,
		Size:     stat.Size(),
		ModTime:  stat.ModTime(),
		MappedAt: time.Now(),
	}

	// Empty files can't be mapped
	if stat.Size() == 0 {
		file.Close()
		return mf, nil
	}

	mmapData, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		fc.logger.Warn("mmap failed, using fallback",
			"file", filePath,
			"size", stat.Size(),
			"error", err)
		file.Close()

		data, readErr := os.ReadFile(filePath)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w",
				filePath, err, readErr)
		}
		fc.recordMmapFailure()

		mf.Data = mmap.MMap(data)
		mf.Size = int64(len(data))
		return mf, nil
	}

	mf.Data = mmapData
	mf.File = file
	mf.mapped = true
	return mf, nil
}

// releaseLocked unmaps mf and closes its descriptor.
//
// Must be called while holding mu.Lock.
func (fc *fileCacheImpl) releaseLocked(mf *MappedFile) error {
	var errs []error
	if mf.mapped && mf.Data != nil {
		if err := mf.Data.Unmap(); err != nil {
			fc.logger.Warn("failed to unmap file", "path", mf.Path, "error", err)
			errs = append(errs, fmt.Errorf("unmap %q: %w", mf.Path, err))
		}
	}
	if mf.File != nil {
		if err := mf.File.Close(); err != nil {
			fc.logger.Warn("failed to close file", "path", mf.Path, "error", err)
			errs = append(errs, fmt.Errorf("close %q: %w", mf.Path, err))
		}
	}
	mf.Data = nil
	mf.File = nil
	mf.mapped = false
	return errors.Join(errs...)
}

// Invalidate releases the mapping for filePath.
func (fc *fileCacheImpl) Invalidate(filePath string) {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if mf, ok := fc.cache[filePath]; ok {
		_ = fc.releaseLocked(mf)
		delete(fc.cache, filePath)
	}
}

// Size returns number of currently cached files.
func (fc *fileCacheImpl) Size() int {
	fc.mu.RLock()
	defer fc.mu.RUnlock()

	return len(fc.cache)
}

// Stats returns current cache metrics.
func (fc *fileCacheImpl) Stats() FileCacheStats {
	fc.mu.RLock()
	cachedFiles := len(fc.cache)
	totalMappedMB := fc.calculateTotalMappedMBLocked()
	fc.mu.RUnlock()

	fc.statsMu.Lock()
	defer fc.statsMu.Unlock()

	stats := fc.stats
	stats.FilesCached = cachedFiles
	stats.TotalMappedMB = totalMappedMB

	return stats
}

// calculateTotalMappedMBLocked calculates total mapped memory.
//
// Must be called while holding mu.RLock or mu.Lock.
func (fc *fileCacheImpl) calculateTotalMappedMBLocked() float64 {
	total := int64(0)
	for _, mf := range fc.cache {
		total += mf.Size
	}
	return float64(total) / (1024 * 1024)
}

// Close unmaps all files and releases resources.
func (fc *fileCacheImpl) Close() error {
	fc.mu.Lock()
	defer fc.mu.Unlock()

	var errs []error
	for _, mf := range fc.cache {
		if err := fc.releaseLocked(mf); err != nil {
			errs = append(errs, err)
		}
	}
	fc.cache = make(map[string]*MappedFile)

	fc.statsMu.Lock()
	fc.logger.Debug("file cache closed",
		"files_loaded", fc.stats.FilesLoaded,
		"cache_hits", fc.stats.CacheHits,
		"cache_misses", fc.stats.CacheMisses,
		"reloads", fc.stats.Reloads,
		"mmap_failures", fc.stats.MmapFailures)
	fc.statsMu.Unlock()

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %w", errors.Join(errs...))
	}

	return nil
}

// Metrics recording methods

func (fc *fileCacheImpl) record(update func(*FileCacheStats)) {
	if !fc.config.EnableMetrics {
		return
	}
	fc.statsMu.Lock()
	update(&fc.stats)
	fc.statsMu.Unlock()
}

func (fc *fileCacheImpl) recordHit()  { fc.record(func(s *FileCacheStats) { s.CacheHits++ }) }
func (fc *fileCacheImpl) recordMiss() { fc.record(func(s *FileCacheStats) { s.CacheMisses++ }) }
func (fc *fileCacheImpl) recordLoad() { fc.record(func(s *FileCacheStats) { s.FilesLoaded++ }) }

func (fc *fileCacheImpl) recordReload() {
	fc.record(func(s *FileCacheStats) { s.Reloads++ })
}

func (fc *fileCacheImpl) recordReadThrough() {
	fc.record(func(s *FileCacheStats) { s.ReadThroughs++ })
}

func (fc *fileCacheImpl) recordMmapFailure() {
	fc.record(func(s *FileCacheStats) { s.MmapFailures++ })
}
