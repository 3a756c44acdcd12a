package util

import "runtime"

const (
	minWorkers = 2
	maxWorkers = 16
)

// DefaultWorkerCount returns the number of scan workers used when none is
// configured.
//
// Formula: min(max(runtime.NumCPU(), 2), 16)
//
// Scanning is a read followed by regex matching, so one worker per core keeps
// the CPU busy; the cap bounds open file handles on very wide machines.
func DefaultWorkerCount() int {
	n := runtime.NumCPU()
	if n < minWorkers {
		n = minWorkers
	}
	if n > maxWorkers {
		n = maxWorkers
	}
	return n
}

// WorkerCount returns override when it is positive and DefaultWorkerCount
// otherwise.
func WorkerCount(override int) int {
	if override > 0 {
		return override
	}
	return DefaultWorkerCount()
}
