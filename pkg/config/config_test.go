package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/varscan/pkg/scanner"
	"github.com/gnana997/varscan/pkg/util"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 50, cfg.Cache.MaxSizeMB)
	assert.Equal(t, 1000, cfg.Cache.MaxEntries)
	assert.Equal(t, 300, cfg.Debounce.DelayMs)
	assert.Equal(t, []string{"node_modules", ".git", "dist", "build"}, cfg.Scan.SkipDirs)
	assert.Equal(t, "pool", cfg.Scan.Executor)
	assert.Equal(t, 30, cfg.Memory.IntervalS)
	assert.Equal(t, 100, cfg.Memory.WarningMB)
	assert.Equal(t, 200, cfg.Memory.CriticalMB)
	assert.Equal(t, []string{"*.swp", "*.tmp", "*~"}, cfg.Watch.Ignore)
}

func TestLoad_OverridesOnlyGivenKeys(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
cache:
  max_entries: 10
scan:
  exclude: ["**/*.min.js"]
  executor: inline
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Cache.MaxEntries)
	assert.Equal(t, 50, cfg.Cache.MaxSizeMB)
	assert.Equal(t, []string{"**/*.min.js"}, cfg.Scan.Exclude)
	assert.Equal(t, "inline", cfg.Scan.Executor)
	assert.Equal(t, 300, cfg.Debounce.DelayMs)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "log: [unterminated")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_InvalidValue(t *testing.T) {
	path := writeConfig(t, "scan:\n  executor: threads\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "scan.executor")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		field  string
	}{
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"cache size", func(c *Config) { c.Cache.MaxSizeMB = 0 }, "cache.max_size_mb"},
		{"cache entries", func(c *Config) { c.Cache.MaxEntries = -1 }, "cache.max_entries"},
		{"debounce", func(c *Config) { c.Debounce.DelayMs = 0 }, "debounce.delay_ms"},
		{"workers", func(c *Config) { c.Scan.Workers = -2 }, "scan.workers"},
		{"exclude", func(c *Config) { c.Scan.Exclude = []string{"[abc"} }, "scan.exclude"},
		{"interval", func(c *Config) { c.Memory.IntervalS = 0 }, "memory.interval_s"},
		{"warning", func(c *Config) { c.Memory.WarningMB = 0 }, "memory.warning_mb"},
		{"critical", func(c *Config) { c.Memory.CriticalMB = 100 }, "memory.critical_mb"},
		{"ignore", func(c *Config) { c.Watch.Ignore = []string{"[abc"} }, "watch.ignore"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestWorkspace_ConvertsUnits(t *testing.T) {
	cfg := Default()
	cfg.Cache.MaxSizeMB = 8
	cfg.Cache.MaxEntries = 64
	cfg.Debounce.DelayMs = 120
	cfg.Scan.Workers = 3
	cfg.Scan.Executor = "inline"
	cfg.Memory.IntervalS = 5
	cfg.Memory.WarningMB = 10
	cfg.Memory.CriticalMB = 20

	ws := cfg.Workspace()

	assert.Equal(t, int64(8*1024*1024), ws.Cache.MaxSizeBytes)
	assert.Equal(t, 64, ws.Cache.MaxEntries)
	assert.Equal(t, 120*time.Millisecond, ws.DebounceDelay)
	assert.Equal(t, 3, ws.Scan.Workers)
	assert.Equal(t, scanner.ExecutorInline, ws.Scan.Executor)
	assert.Equal(t, 5*time.Second, ws.Memory.Interval)
	assert.Equal(t, uint64(10*1024*1024), ws.Memory.WarningBytes)
	assert.Equal(t, uint64(20*1024*1024), ws.Memory.CriticalBytes)
	assert.NoError(t, ws.Memory.Validate())
}

func TestScanOptions_CopiesSlices(t *testing.T) {
	cfg := Default()
	opts := cfg.ScanOptions()
	opts.SkipDirs[0] = "changed"

	assert.Equal(t, "node_modules", cfg.Scan.SkipDirs[0])
}

func TestWatchOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.WatchOptions()

	assert.Equal(t, cfg.Scan.SkipDirs, opts.SkipDirs)
	assert.Equal(t, cfg.Watch.Ignore, opts.Ignore)
}

func TestLoggerConfig(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "WARN"
	cfg.Log.Format = "json"

	lc := cfg.LoggerConfig()
	assert.Equal(t, util.LevelWarn, lc.Level)
	assert.Equal(t, util.FormatJSON, lc.Format)
}
