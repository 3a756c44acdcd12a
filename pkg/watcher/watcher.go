// Package watcher turns file system events into workspace change
// notifications.
package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Target receives the notifications. workspace.Service implements it and
// debounces bursts per file.
type Target interface {
	Supports(path string) bool
	NotifyFileChanged(path string) bool
	NotifyFileDeleted(path string)
}

// Options configures which paths are watched.
type Options struct {
	// SkipDirs are directory names that are never watched.
	SkipDirs []string

	// Ignore holds glob patterns matched against file base names, e.g. "*.swp".
	Ignore []string
}

// DefaultIgnore are editor swap and temporary files.
var DefaultIgnore = []string{"*.swp", "*.tmp", "*~"}

// CompileIgnore compiles glob patterns, failing on the first invalid one.
func CompileIgnore(patterns []string) ([]glob.Glob, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return compiled, nil
}

// FileWatcher watches a directory tree and forwards changes to a Target.
//
// **Events:**
//   - Write, Create of a supported file → NotifyFileChanged
//   - Remove, Rename of a supported file → NotifyFileDeleted
//   - Create of a directory → the directory is watched, and files already in
//     it are reported as changed
//
// **Usage:**
//
//	fw, err := NewFileWatcher(service, opts, logger)
//	if err != nil {
//	    return err
//	}
//	if err := fw.Start(root); err != nil {
//	    return err
//	}
//	defer fw.Stop()
type FileWatcher struct {
	watcher *fsnotify.Watcher
	target  Target
	skip    map[string]struct{}
	ignore  []glob.Glob
	logger  *slog.Logger

	// Lifecycle
	mu      sync.Mutex
	started bool
	stopped bool
	done    chan struct{}

	// Statistics
	events    atomic.Int64
	changes   atomic.Int64
	deletions atomic.Int64
	watched   atomic.Int64
}

// NewFileWatcher creates a watcher. Nothing is watched until Start.
func NewFileWatcher(target Target, options Options, logger *slog.Logger) (*FileWatcher, error) {
	if target == nil {
		return nil, errors.New("watcher target is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	ignore, err := CompileIgnore(options.Ignore)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	skip := make(map[string]struct{}, len(options.SkipDirs))
	for _, name := range options.SkipDirs {
		skip[name] = struct{}{}
	}

	return &FileWatcher{
		watcher: w,
		target:  target,
		skip:    skip,
		ignore:  ignore,
		logger:  logger,
		done:    make(chan struct{}),
	}, nil
}

// Start watches root and every directory below it, then processes events
// in the background until Stop.
func (fw *FileWatcher) Start(root string) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.stopped {
		return errors.New("watcher already stopped")
	}
	if fw.started {
		return errors.New("watcher already started")
	}

	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to watch %s: not a directory", root)
	}

	if err := fw.addTree(root, false); err != nil {
		return fmt.Errorf("failed to setup watches: %w", err)
	}

	fw.started = true
	go fw.eventLoop()

	fw.logger.Info("file watcher started", "root", root, "directories", fw.watched.Load())
	return nil
}

// addTree watches dir and its subdirectories. With report set, supported
// files found on the way are forwarded as changes.
func (fw *FileWatcher) addTree(dir string, report bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			fw.logger.Warn("walk error", "path", path, "error", err)
			return nil
		}

		if d.IsDir() {
			if path != dir && fw.skipDir(d.Name()) {
				return filepath.SkipDir
			}
			if err := fw.watcher.Add(path); err != nil {
				fw.logger.Warn("failed to watch directory", "path", path, "error", err)
				return nil
			}
			fw.watched.Add(1)
			return nil
		}

		if report && fw.relevant(path) {
			fw.changed(path)
		}
		return nil
	})
}

// Stop closes the watcher and waits for the event loop to exit. Safe to
// call more than once.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if fw.stopped {
		fw.mu.Unlock()
		return nil
	}
	fw.stopped = true
	started := fw.started
	fw.mu.Unlock()

	err := fw.watcher.Close()
	if started {
		<-fw.done
	}

	fw.logger.Info("file watcher stopped",
		"events", fw.events.Load(),
		"changes", fw.changes.Load(),
		"deletions", fw.deletions.Load())
	return err
}

func (fw *FileWatcher) eventLoop() {
	defer close(fw.done)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("file watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	fw.events.Add(1)
	path := event.Name

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if fw.skipDir(info.Name()) {
				return
			}
			fw.logger.Debug("watching new directory", "path", path)
			if err := fw.addTree(path, true); err != nil {
				fw.logger.Warn("failed to watch new directory", "path", path, "error", err)
			}
			return
		}
	}

	if !fw.relevant(path) {
		return
	}

	fw.logger.Debug("file event", "op", event.Op.String(), "file", path)

	switch {
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		fw.changed(path)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		fw.deletions.Add(1)
		fw.target.NotifyFileDeleted(path)
	}
}

func (fw *FileWatcher) changed(path string) {
	if fw.target.NotifyFileChanged(path) {
		fw.changes.Add(1)
	}
}

// relevant reports whether path is a supported file not matched by an ignore pattern.
func (fw *FileWatcher) relevant(path string) bool {
	base := filepath.Base(path)
	for _, g := range fw.ignore {
		if g.Match(base) {
			return false
		}
	}
	return fw.target.Supports(path)
}

func (fw *FileWatcher) skipDir(name string) bool {
	_, ok := fw.skip[name]
	return ok
}

// Stats returns watcher counters.
func (fw *FileWatcher) Stats() Stats {
	fw.mu.Lock()
	running := fw.started && !fw.stopped
	fw.mu.Unlock()

	return Stats{
		Running:     running,
		Directories: fw.watched.Load(),
		Events:      fw.events.Load(),
		Changes:     fw.changes.Load(),
		Deletions:   fw.deletions.Load(),
	}
}

// Stats contains file watcher statistics.
type Stats struct {
	Running     bool  `json:"running"`
	Directories int64 `json:"directories"`
	Events      int64 `json:"events"`
	Changes     int64 `json:"changes"`
	Deletions   int64 `json:"deletions"`
}
