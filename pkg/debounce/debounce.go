// Package debounce coalesces bursts of change notifications into one
// trailing-edge callback per key.
package debounce

import (
	"log/slog"
	"time"

	"github.com/gnana997/varscan/pkg/schedule"
)

const (
	// DefaultDelay is the quiet period after the last call before a
	// callback fires.
	DefaultDelay = 300 * time.Millisecond

	// WorkspaceKey is the reserved key for workspace-wide updates.
	WorkspaceKey = "__workspace__"

	keyPrefix = "debounce:"
)

// Manager schedules one independent timer per key on a shared Scheduler.
// A call for a pending key cancels and restarts its timer.
type Manager struct {
	sched  *schedule.Scheduler
	owned  bool
	delay  time.Duration
	logger *slog.Logger
}

// NewManager creates a debounce manager. A non-positive delay means
// DefaultDelay. When sched is nil the manager creates its own scheduler
// and closes it in Dispose.
func NewManager(delay time.Duration, sched *schedule.Scheduler, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	owned := false
	if sched == nil {
		sched = schedule.New(logger)
		owned = true
	}

	return &Manager{
		sched:  sched,
		owned:  owned,
		delay:  delay,
		logger: logger,
	}
}

// Delay returns the configured quiet period.
func (m *Manager) Delay() time.Duration {
	return m.delay
}

// DebounceFileUpdate runs callback once, Delay after the most recent call
// for key. Returns false once the manager is disposed.
func (m *Manager) DebounceFileUpdate(key string, callback func()) bool {
	return m.sched.After(keyPrefix+key, m.delay, callback)
}

// DebounceWorkspaceUpdate debounces callback under WorkspaceKey.
func (m *Manager) DebounceWorkspaceUpdate(callback func()) bool {
	return m.DebounceFileUpdate(WorkspaceKey, callback)
}

// CancelPendingUpdate cancels the timer for key without firing it.
func (m *Manager) CancelPendingUpdate(key string) bool {
	return m.sched.Cancel(keyPrefix + key)
}

// CancelAllPendingUpdates cancels every debounce timer. Other tasks on a
// shared scheduler are left alone.
func (m *Manager) CancelAllPendingUpdates() int {
	n := m.sched.CancelPrefix(keyPrefix)
	if n > 0 {
		m.logger.Debug("cancelled pending updates", "count", n)
	}
	return n
}

// IsPending reports whether an update for key is waiting to fire.
func (m *Manager) IsPending(key string) bool {
	return m.sched.IsPending(keyPrefix + key)
}

// PendingCount returns the number of waiting updates.
func (m *Manager) PendingCount() int {
	return m.sched.Pending(keyPrefix)
}

// Dispose cancels everything and, when the scheduler is owned, closes it.
func (m *Manager) Dispose() {
	m.CancelAllPendingUpdates()
	if m.owned {
		m.sched.Close()
	}
}
