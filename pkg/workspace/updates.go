package workspace

import (
	"context"

	"github.com/gnana997/varscan/pkg/parser"
	"github.com/gnana997/varscan/pkg/scanner"
)

// UpdateKind says what triggered an Update.
type UpdateKind string

const (
	UpdateFile      UpdateKind = "file"
	UpdateDeleted   UpdateKind = "deleted"
	UpdateWorkspace UpdateKind = "workspace"
)

// Update is delivered to listeners after a debounced rescan or a deletion.
type Update struct {
	Kind UpdateKind
	Path string

	// Variables is set for UpdateFile.
	Variables []parser.VariableInfo

	// Files and Stats are set for UpdateWorkspace.
	Files map[string][]parser.VariableInfo
	Stats *scanner.ScanStats

	Err error
}

// UpdateListener receives updates.
type UpdateListener func(Update)

// OnUpdate registers a listener for every subsequent update.
func (s *Service) OnUpdate(fn UpdateListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.listeners = append(s.listeners, fn)
	}
}

func (s *Service) publish(u Update) {
	s.mu.RLock()
	listeners := append([]UpdateListener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(u)
	}
}

// NotifyFileChanged schedules a rescan of path once changes to it settle.
// Returns false for unsupported files or after Close.
func (s *Service) NotifyFileChanged(path string) bool {
	if !s.Supports(path) {
		return false
	}

	return s.debounce.DebounceFileUpdate(path, func() {
		// A notified change is authoritative even when the mtime did not advance.
		s.cache.Invalidate(path)
		s.extractor.Forget(path)

		vars, err := s.ScanFile(context.Background(), path)
		if err != nil {
			s.logger.Warn("rescan failed", "file", path, "error", err)
		}
		s.publish(Update{Kind: UpdateFile, Path: path, Variables: vars, Err: err})
	})
}

// NotifyFileDeleted cancels any pending rescan of path and drops its cached state.
func (s *Service) NotifyFileDeleted(path string) {
	s.debounce.CancelPendingUpdate(path)
	removed := s.cache.Invalidate(path)
	s.extractor.Forget(path)

	s.logger.Debug("file deleted", "file", path, "was_cached", removed)
	s.publish(Update{Kind: UpdateDeleted, Path: path})
}

// NotifyWorkspaceChanged schedules a full rescan of root once changes settle.
func (s *Service) NotifyWorkspaceChanged(root string) bool {
	return s.debounce.DebounceWorkspaceUpdate(func() {
		files, stats, err := s.ScanWorkspace(context.Background(), root)
		s.publish(Update{Kind: UpdateWorkspace, Path: root, Files: files, Stats: stats, Err: err})
	})
}

// PendingUpdates returns the number of debounced updates not yet run.
func (s *Service) PendingUpdates() int {
	return s.debounce.PendingCount()
}
