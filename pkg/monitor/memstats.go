package monitor

import (
	"runtime"
	"runtime/debug"
	"time"
)

const mb = 1024 * 1024

// MemoryStats is one sample of process memory.
type MemoryStats struct {
	HeapUsed  uint64    `json:"heapUsed"`
	HeapTotal uint64    `json:"heapTotal"`
	Sys       uint64    `json:"sys"`
	NumGC     uint32    `json:"numGC"`
	Timestamp time.Time `json:"timestamp"`
}

// HeapUsedMB returns HeapUsed in mebibytes.
func (s MemoryStats) HeapUsedMB() float64 {
	return float64(s.HeapUsed) / mb
}

// MemoryReader samples process memory.
type MemoryReader func() MemoryStats

// ReadRuntimeMemory samples the Go runtime's heap statistics.
func ReadRuntimeMemory() MemoryStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return MemoryStats{
		HeapUsed:  ms.HeapAlloc,
		HeapTotal: ms.HeapSys,
		Sys:       ms.Sys,
		NumGC:     ms.NumGC,
		Timestamp: time.Now(),
	}
}

// ForceGC runs a collection and returns freed pages to the OS.
func ForceGC() {
	runtime.GC()
	debug.FreeOSMemory()
}
