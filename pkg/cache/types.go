package cache

import (
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/gnana997/varscan/pkg/parser"
)

const (
	// DefaultMaxSizeBytes is the default estimated-byte budget (50 MiB).
	DefaultMaxSizeBytes int64 = 50 * 1024 * 1024

	// DefaultMaxEntries is the default entry-count budget.
	DefaultMaxEntries = 1000
)

// CachedResult is the last scan result stored for one file.
type CachedResult struct {
	Variables    []parser.VariableInfo `json:"variables"`
	LastModified time.Time             `json:"lastModified"`
	LastAccessed time.Time             `json:"lastAccessed"`
	Size         int64                 `json:"size"`
}

// Stats are cumulative cache counters. They are reset only by ClearCache
// and Dispose.
type Stats struct {
	HitCount      int64 `json:"hitCount"`
	MissCount     int64 `json:"missCount"`
	TotalRequests int64 `json:"totalRequests"`
	CacheSize     int64 `json:"cacheSize"`
	MaxCacheSize  int64 `json:"maxCacheSize"`
	Evictions     int64 `json:"evictions"`
	EntryCount    int   `json:"entryCount"`
	MaxEntries    int   `json:"maxEntries"`
}

// HitRate returns HitCount / TotalRequests, or 0 before the first request.
func (s Stats) HitRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.HitCount) / float64(s.TotalRequests)
}

// Observer is notified of every lookup outcome.
type Observer interface {
	RecordCacheHit()
	RecordCacheMiss()
}

// StatFunc returns file metadata; os.Stat by default.
type StatFunc func(path string) (fs.FileInfo, error)

// Config controls a Manager.
type Config struct {
	// MaxSizeBytes is the estimated-byte budget. Zero means DefaultMaxSizeBytes.
	MaxSizeBytes int64

	// MaxEntries is the entry-count budget. Zero means DefaultMaxEntries.
	MaxEntries int

	// Now returns the write instant recorded as LastModified. Defaults to time.Now.
	Now func() time.Time

	// Stat reads the on-disk modification time. Defaults to os.Stat.
	Stat StatFunc

	// Observer, if set, receives hit/miss notifications outside the cache lock.
	Observer Observer

	Logger *slog.Logger
}

// DefaultConfig returns the default budgets.
func DefaultConfig() Config {
	return Config{
		MaxSizeBytes: DefaultMaxSizeBytes,
		MaxEntries:   DefaultMaxEntries,
	}
}

func (c Config) withDefaults() Config {
	if c.MaxSizeBytes <= 0 {
		c.MaxSizeBytes = DefaultMaxSizeBytes
	}
	if c.MaxEntries <= 0 {
		c.MaxEntries = DefaultMaxEntries
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Stat == nil {
		c.Stat = os.Stat
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}
