// Package cache stores the last variable-extraction result per file.
//
// Entries are validated against the file's on-disk modification time on every
// lookup and evicted least-recently-used first when either the estimated byte
// budget or the entry-count budget is exceeded.
package cache

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/gnana997/varscan/pkg/parser"
)

// Manager is a size- and count-bounded LRU of scan results.
//
// **Thread Safety:** all methods are safe for concurrent use. A single mutex
// guards the access-order list together with the size accounting so the two
// never diverge.
type Manager struct {
	mu  sync.Mutex
	lru *simplelru.LRU[string, *CachedResult]

	// size is the sum of Size over live entries.
	size int64

	// removing is set while entries are dropped on purpose, so the evict
	// callback does not count them as evictions.
	removing bool

	hits      int64
	misses    int64
	requests  int64
	evictions int64

	config Config
	logger *slog.Logger
}

// NewManager creates a cache with the given budgets.
func NewManager(config Config) (*Manager, error) {
	config = config.withDefaults()

	m := &Manager{
		config: config,
		logger: config.Logger,
	}

	l, err := simplelru.NewLRU[string, *CachedResult](config.MaxEntries, m.onEvict)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU: %w", err)
	}
	m.lru = l

	return m, nil
}

// onEvict runs under m.mu for every entry leaving the list.
func (m *Manager) onEvict(path string, entry *CachedResult) {
	m.size -= entry.Size
	if m.removing {
		return
	}
	m.evictions++
	m.logger.Debug("cache evicted entry",
		"file", path,
		"size", entry.Size,
		"cache_size", m.size)
}

// GetCachedResult returns the stored result for path when it is still valid.
//
// An entry is valid while the file's modification time is not after the
// stored LastModified. A stale entry, or one whose file can no longer be
// stat'ed, is removed and reported as a miss. A hit moves the entry to the
// most-recently-used position.
func (m *Manager) GetCachedResult(path string) (CachedResult, bool) {
	result, hit := m.lookup(path)

	if obs := m.config.Observer; obs != nil {
		if hit {
			obs.RecordCacheHit()
		} else {
			obs.RecordCacheMiss()
		}
	}
	return result, hit
}

func (m *Manager) lookup(path string) (CachedResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++

	entry, ok := m.lru.Peek(path)
	if !ok {
		m.misses++
		return CachedResult{}, false
	}

	info, err := m.config.Stat(path)
	if err != nil {
		m.logger.Debug("cache entry dropped, stat failed", "file", path, "error", err)
		m.removeLocked(path)
		m.misses++
		return CachedResult{}, false
	}

	if info.ModTime().After(entry.LastModified) {
		m.logger.Debug("cache entry stale",
			"file", path,
			"mtime", info.ModTime(),
			"cached", entry.LastModified)
		m.removeLocked(path)
		m.misses++
		return CachedResult{}, false
	}

	m.lru.Get(path)
	entry.LastAccessed = m.config.Now()
	m.hits++

	return *entry, true
}

// SetCachedResult stores vars for path, replacing any previous entry, then
// evicts least-recently-used entries until both budgets are met.
func (m *Manager) SetCachedResult(path string, vars []parser.VariableInfo) {
	if vars == nil {
		vars = []parser.VariableInfo{}
	}
	size := EstimateSize(vars)

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.config.Now()

	// Updating an existing key does not run the evict callback.
	if old, ok := m.lru.Peek(path); ok {
		m.size -= old.Size
	}

	// At capacity, Add evicts the oldest entry through onEvict.
	m.lru.Add(path, &CachedResult{
		Variables:    vars,
		LastModified: now,
		LastAccessed: now,
		Size:         size,
	})
	m.size += size

	for m.size > m.config.MaxSizeBytes && m.lru.Len() > 0 {
		m.lru.RemoveOldest()
	}
}

// Invalidate drops the entry for path, if any.
func (m *Manager) Invalidate(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.removeLocked(path)
}

func (m *Manager) removeLocked(path string) bool {
	m.removing = true
	defer func() { m.removing = false }()

	return m.lru.Remove(path)
}

// Purge drops every entry but keeps the cumulative counters. Used as a
// memory-pressure cleanup.
func (m *Manager) Purge() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := m.lru.Len()
	m.purgeLocked()
	return n
}

func (m *Manager) purgeLocked() {
	m.removing = true
	m.lru.Purge()
	m.removing = false
	m.size = 0
}

// ClearCache drops every entry and resets all counters.
func (m *Manager) ClearCache() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.purgeLocked()
	m.hits, m.misses, m.requests, m.evictions = 0, 0, 0, 0
}

// Dispose releases all entries. The manager stays usable.
func (m *Manager) Dispose() {
	m.ClearCache()
	m.logger.Debug("cache disposed")
}

// Len returns the number of live entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lru.Len()
}

// Keys returns cached paths from least to most recently used.
func (m *Manager) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.lru.Keys()
}

// GetCacheStats returns a snapshot of the counters.
func (m *Manager) GetCacheStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Stats{
		HitCount:      m.hits,
		MissCount:     m.misses,
		TotalRequests: m.requests,
		CacheSize:     m.size,
		MaxCacheSize:  m.config.MaxSizeBytes,
		Evictions:     m.evictions,
		EntryCount:    m.lru.Len(),
		MaxEntries:    m.config.MaxEntries,
	}
}
