// Package schedule owns keyed, cancellable timers.
//
// Every debounce timer and monitoring interval in the process is registered
// with one Scheduler, so shutdown can cancel all outstanding work in a single
// call. Scheduling a key that is already pending replaces the old task.
package schedule

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// Scheduler runs callbacks after a delay or at a fixed interval.
//
// **Thread Safety:** all methods are safe for concurrent use. Callbacks run
// on timer goroutines without the scheduler lock held, so they may schedule
// or cancel other tasks. Close must not be called from a callback.
type Scheduler struct {
	mu     sync.Mutex
	tasks  map[string]*task
	nextID uint64
	closed bool

	// running counts callbacks currently executing.
	running sync.WaitGroup

	logger *slog.Logger
}

// task is one pending timer. id distinguishes successive tasks with the
// same key so a timer that fires after being replaced is ignored.
type task struct {
	id       uint64
	timer    *time.Timer
	interval time.Duration
}

// New creates a scheduler. A nil logger uses slog.Default().
func New(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		tasks:  make(map[string]*task),
		logger: logger,
	}
}

// After runs fn once, d after the most recent After call for key.
// Returns false if the scheduler is closed.
func (s *Scheduler) After(key string, d time.Duration, fn func()) bool {
	return s.schedule(key, d, 0, fn)
}

// Every runs fn every interval until the key is cancelled. The first run
// happens one interval from now. Returns false if the scheduler is closed
// or interval is not positive.
func (s *Scheduler) Every(key string, interval time.Duration, fn func()) bool {
	if interval <= 0 {
		return false
	}
	return s.schedule(key, interval, interval, fn)
}

func (s *Scheduler) schedule(key string, d, interval time.Duration, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	if old, ok := s.tasks[key]; ok {
		old.timer.Stop()
	}

	s.nextID++
	id := s.nextID
	t := &task{id: id, interval: interval}
	t.timer = time.AfterFunc(d, func() { s.fire(key, id, fn) })
	s.tasks[key] = t

	return true
}

func (s *Scheduler) fire(key string, id uint64, fn func()) {
	s.mu.Lock()
	t, ok := s.tasks[key]
	if !ok || t.id != id || s.closed {
		s.mu.Unlock()
		return
	}
	if t.interval == 0 {
		delete(s.tasks, key)
	}
	s.running.Add(1)
	s.mu.Unlock()

	defer s.running.Done()
	s.run(key, fn)

	if t.interval > 0 {
		s.mu.Lock()
		if cur, ok := s.tasks[key]; ok && cur.id == id && !s.closed {
			cur.timer.Reset(cur.interval)
		}
		s.mu.Unlock()
	}
}

// run executes fn, logging and swallowing any panic.
func (s *Scheduler) run(key string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled task panicked",
				"key", key,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	fn()
}

// Cancel stops the task for key. Returns whether a task was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[key]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(s.tasks, key)
	return true
}

// CancelPrefix stops every task whose key starts with prefix and returns
// how many were cancelled.
func (s *Scheduler) CancelPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, t := range s.tasks {
		if strings.HasPrefix(key, prefix) {
			t.timer.Stop()
			delete(s.tasks, key)
			n++
		}
	}
	return n
}

// CancelAll stops every pending task.
func (s *Scheduler) CancelAll() int {
	return s.CancelPrefix("")
}

// IsPending reports whether a task is scheduled for key.
func (s *Scheduler) IsPending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tasks[key]
	return ok
}

// Pending returns the number of scheduled tasks whose key starts with prefix.
func (s *Scheduler) Pending(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.tasks {
		if strings.HasPrefix(key, prefix) {
			n++
		}
	}
	return n
}

// Close cancels every task, rejects further scheduling, and waits for
// callbacks already running to return.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	for key, t := range s.tasks {
		t.timer.Stop()
		delete(s.tasks, key)
	}
	s.mu.Unlock()

	s.running.Wait()
}
