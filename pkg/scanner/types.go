// Package scanner walks a workspace, fans file scans out to an Executor and
// collects the results into a file → variables mapping.
package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gnana997/varscan/pkg/parser"
)

// ErrPoolStopped is returned by Submit after the executor stopped accepting jobs.
var ErrPoolStopped = errors.New("executor is stopped")

// ExecutorKind selects the executor implementation.
type ExecutorKind string

const (
	// ExecutorPool runs jobs on a fixed set of worker goroutines.
	ExecutorPool ExecutorKind = "pool"

	// ExecutorInline runs each job on the goroutine that submits it.
	ExecutorInline ExecutorKind = "inline"
)

// Valid reports whether k names a known executor.
func (k ExecutorKind) Valid() bool {
	return k == ExecutorPool || k == ExecutorInline
}

// Processor scans a single file.
//
// Implementations must be safe for concurrent use when driven by a pool.
type Processor interface {
	// Supports reports whether path has a registered parser.
	Supports(path string) bool

	// ScanFile returns the variables declared in path.
	ScanFile(ctx context.Context, path string) ([]parser.VariableInfo, error)
}

// FileJob is one file queued for scanning.
type FileJob struct {
	FilePath string
	JobID    int
}

// FileResult carries the variables of one scanned file.
type FileResult struct {
	FilePath  string
	Variables []parser.VariableInfo
	JobID     int
}

// FileError records a file that could not be scanned.
type FileError struct {
	FilePath string
	JobID    int
	Err      error
}

func (e FileError) Error() string {
	return e.FilePath + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error { return e.Err }

// MarshalJSON renders the error as its message.
func (e FileError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		FilePath string `json:"filePath"`
		Error    string `json:"error"`
	}{e.FilePath, e.Err.Error()})
}

// Options configures discovery and execution.
type Options struct {
	// SkipDirs are directory names that are never descended into.
	SkipDirs []string

	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the scan root. A matching directory is skipped whole.
	Exclude []string

	// Workers is the pool size; 0 picks util.DefaultWorkerCount.
	Workers int

	// Executor selects how jobs run. Empty means ExecutorPool.
	Executor ExecutorKind
}

// DefaultSkipDirs are the build and VCS folders never scanned.
var DefaultSkipDirs = []string{"node_modules", ".git", "dist", "build"}

// DefaultOptions returns the standard skip list with a goroutine pool.
func DefaultOptions() Options {
	return Options{
		SkipDirs: append([]string(nil), DefaultSkipDirs...),
		Executor: ExecutorPool,
	}
}

// ScanStats describes a completed workspace scan.
type ScanStats struct {
	Root            string        `json:"root"`
	FilesDiscovered int           `json:"filesDiscovered"`
	FilesScanned    int           `json:"filesScanned"`
	FilesFailed     int           `json:"filesFailed"`
	Variables       int           `json:"variables"`
	Workers         int           `json:"workers"`
	Executor        ExecutorKind  `json:"executor"`
	DiscoveryTime   time.Duration `json:"discoveryTimeNs"`
	TotalTime       time.Duration `json:"totalTimeNs"`
	Errors          []FileError   `json:"errors"`
	Cancelled       bool          `json:"cancelled"`
}

// ExecutorStats is a snapshot of executor counters.
type ExecutorStats struct {
	Workers       int   `json:"workers"`
	JobsSubmitted int64 `json:"jobsSubmitted"`
	JobsProcessed int64 `json:"jobsProcessed"`
	JobsFailed    int64 `json:"jobsFailed"`
}
