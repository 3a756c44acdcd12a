// Package config loads the YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gnana997/varscan/pkg/cache"
	"github.com/gnana997/varscan/pkg/monitor"
	"github.com/gnana997/varscan/pkg/scanner"
	"github.com/gnana997/varscan/pkg/util"
	"github.com/gnana997/varscan/pkg/watcher"
	"github.com/gnana997/varscan/pkg/workspace"
)

// DefaultPath is the configuration file looked up in the working directory.
const DefaultPath = ".varscan.yaml"

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the contents of .varscan.yaml.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Cache    CacheConfig    `yaml:"cache"`
	Debounce DebounceConfig `yaml:"debounce"`
	Scan     ScanConfig     `yaml:"scan"`
	Memory   MemoryConfig   `yaml:"memory"`
	Watch    WatchConfig    `yaml:"watch"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CacheConfig struct {
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxEntries int `yaml:"max_entries"`
}

type DebounceConfig struct {
	DelayMs int `yaml:"delay_ms"`
}

type ScanConfig struct {
	SkipDirs []string `yaml:"skip_dirs"`
	Exclude  []string `yaml:"exclude"`
	Workers  int      `yaml:"workers"`
	Executor string   `yaml:"executor"`
}

type MemoryConfig struct {
	IntervalS  int `yaml:"interval_s"`
	WarningMB  int `yaml:"warning_mb"`
	CriticalMB int `yaml:"critical_mb"`
}

type WatchConfig struct {
	Ignore []string `yaml:"ignore"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log:      LogConfig{Level: "info", Format: "text"},
		Cache:    CacheConfig{MaxSizeMB: 50, MaxEntries: cache.DefaultMaxEntries},
		Debounce: DebounceConfig{DelayMs: 300},
		Scan: ScanConfig{
			SkipDirs: append([]string(nil), scanner.DefaultSkipDirs...),
			Exclude:  []string{},
			Workers:  0,
			Executor: string(scanner.ExecutorPool),
		},
		Memory: MemoryConfig{IntervalS: 30, WarningMB: 100, CriticalMB: 200},
		Watch:  WatchConfig{Ignore: append([]string(nil), watcher.DefaultIgnore...)},
	}
}

// Load reads path over the defaults. A missing file yields the defaults and
// no error. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field, reporting the first problem.
func (c *Config) Validate() error {
	if !util.IsValidLevel(c.Log.Level) {
		return invalid("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid("log.format %q is not one of text, json", c.Log.Format)
	}
	if c.Cache.MaxSizeMB <= 0 {
		return invalid("cache.max_size_mb must be positive, got %d", c.Cache.MaxSizeMB)
	}
	if c.Cache.MaxEntries <= 0 {
		return invalid("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.Debounce.DelayMs <= 0 {
		return invalid("debounce.delay_ms must be positive, got %d", c.Debounce.DelayMs)
	}
	if c.Scan.Workers < 0 {
		return invalid("scan.workers must not be negative, got %d", c.Scan.Workers)
	}
	if !scanner.ExecutorKind(c.Scan.Executor).Valid() {
		return invalid("scan.executor %q is not one of pool, inline", c.Scan.Executor)
	}
	if err := scanner.ValidatePatterns(c.Scan.Exclude); err != nil {
		return invalid("scan.exclude: %v", err)
	}
	if c.Memory.IntervalS <= 0 {
		return invalid("memory.interval_s must be positive, got %d", c.Memory.IntervalS)
	}
	if c.Memory.WarningMB <= 0 {
		return invalid("memory.warning_mb must be positive, got %d", c.Memory.WarningMB)
	}
	if c.Memory.CriticalMB <= c.Memory.WarningMB {
		return invalid("memory.critical_mb (%d) must exceed memory.warning_mb (%d)", c.Memory.CriticalMB, c.Memory.WarningMB)
	}
	if _, err := watcher.CompileIgnore(c.Watch.Ignore); err != nil {
		return invalid("watch.ignore: %v", err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// LoggerConfig returns the logger settings.
func (c *Config) LoggerConfig() util.LoggerConfig {
	cfg := util.DefaultLoggerConfig()
	cfg.Level = util.LogLevel(strings.ToLower(c.Log.Level))
	cfg.Format = util.LogFormat(c.Log.Format)
	return cfg
}

// ScanOptions returns the scanner settings.
func (c *Config) ScanOptions() scanner.Options {
	return scanner.Options{
		SkipDirs: append([]string(nil), c.Scan.SkipDirs...),
		Exclude:  append([]string(nil), c.Scan.Exclude...),
		Workers:  c.Scan.Workers,
		Executor: scanner.ExecutorKind(c.Scan.Executor),
	}
}

// WatchOptions returns the watcher settings.
func (c *Config) WatchOptions() watcher.Options {
	return watcher.Options{
		SkipDirs: append([]string(nil), c.Scan.SkipDirs...),
		Ignore:   append([]string(nil), c.Watch.Ignore...),
	}
}

// Workspace returns the service settings.
func (c *Config) Workspace() workspace.Config {
	cfg := workspace.DefaultConfig()

	cfg.Cache.MaxSizeBytes = int64(c.Cache.MaxSizeMB) * 1024 * 1024
	cfg.Cache.MaxEntries = c.Cache.MaxEntries
	cfg.DebounceDelay = time.Duration(c.Debounce.DelayMs) * time.Millisecond
	cfg.Scan = c.ScanOptions()

	cfg.Memory = monitor.DefaultMemoryConfig()
	cfg.Memory.Interval = time.Duration(c.Memory.IntervalS) * time.Second
	cfg.Memory.WarningBytes = uint64(c.Memory.WarningMB) * 1024 * 1024
	cfg.Memory.CriticalBytes = uint64(c.Memory.CriticalMB) * 1024 * 1024

	return cfg
}
