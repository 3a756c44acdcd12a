package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gnana997/varscan/pkg/parser"
)

// Scanner scans whole workspaces.
//
// **Pipeline:**
//  1. File discovery - walk the tree, drop skipped directories and
//     unsupported extensions
//  2. Fan-out - submit one job per file to a fresh Executor
//  3. Fan-in - collect exactly one outcome per submitted job
//
// A file that fails to read or scan is logged, recorded in ScanStats.Errors
// and left out of the mapping; it never aborts the scan.
type Scanner struct {
	processor Processor
	options   Options
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a scanner that runs processor over discovered files.
func New(processor Processor, options Options, logger *slog.Logger) (*Scanner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if options.Executor == "" {
		options.Executor = ExecutorPool
	}
	if !options.Executor.Valid() {
		return nil, fmt.Errorf("unknown executor %q", options.Executor)
	}
	if options.Workers < 0 {
		return nil, fmt.Errorf("workers must not be negative, got %d", options.Workers)
	}
	if err := ValidatePatterns(options.Exclude); err != nil {
		return nil, err
	}

	return &Scanner{
		processor: processor,
		options:   options,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Options returns the scanner configuration.
func (s *Scanner) Options() Options {
	return s.options
}

// ScanWorkspace scans every supported file below root.
//
// The returned mapping is complete once every dispatched job has reported.
// An error is returned only when root cannot be walked or ctx is cancelled;
// in the latter case the partial mapping and stats are still returned.
func (s *Scanner) ScanWorkspace(ctx context.Context, root string) (map[string][]parser.VariableInfo, *ScanStats, error) {
	start := s.now()
	stats := &ScanStats{
		Root:     root,
		Executor: s.options.Executor,
		Errors:   make([]FileError, 0),
	}

	s.logger.Info("starting workspace scan", "root", root, "executor", s.options.Executor)

	files, err := DiscoverFiles(root, s.options, s.processor.Supports, s.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("file discovery failed: %w", err)
	}
	stats.FilesDiscovered = len(files)
	stats.DiscoveryTime = s.now().Sub(start)

	results := make(map[string][]parser.VariableInfo, len(files))
	if len(files) == 0 {
		stats.TotalTime = s.now().Sub(start)
		s.logger.Info("no supported files found", "root", root)
		return results, stats, nil
	}

	exec, err := NewExecutor(s.options.Executor, s.options.Workers, s.processor, s.logger)
	if err != nil {
		return nil, nil, err
	}
	stats.Workers = exec.Stats().Workers

	err = s.run(ctx, exec, files, results, stats)
	stats.TotalTime = s.now().Sub(start)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			stats.Cancelled = true
		}
		s.logger.Warn("workspace scan interrupted",
			"root", root,
			"files_scanned", stats.FilesScanned,
			"error", err)
		return results, stats, err
	}

	s.logger.Info("workspace scan complete",
		"root", root,
		"files_scanned", stats.FilesScanned,
		"files_failed", stats.FilesFailed,
		"variables", stats.Variables,
		"duration_ms", stats.TotalTime.Milliseconds())

	return results, stats, nil
}

// run fans files out to exec and gathers one outcome per file. The collector
// starts before submission so a full queue can never block the submitter.
func (s *Scanner) run(
	ctx context.Context,
	exec Executor,
	files []string,
	results map[string][]parser.VariableInfo,
	stats *ScanStats,
) error {
	exec.Start(ctx)
	defer exec.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer exec.FinishSubmitting()

		for i, file := range files {
			if err := exec.Submit(gctx, FileJob{FilePath: file, JobID: i}); err != nil {
				return fmt.Errorf("failed to submit %s: %w", file, err)
			}
		}
		return nil
	})

	// A failed submission cancels gctx, so the collector never waits on a
	// job that was not dispatched.
	g.Go(func() error {
		for received := 0; received < len(files); {
			select {
			case <-gctx.Done():
				return gctx.Err()

			case result := <-exec.Results():
				received++
				results[result.FilePath] = result.Variables
				stats.FilesScanned++
				stats.Variables += len(result.Variables)

			case fileErr := <-exec.Errors():
				received++
				stats.FilesFailed++
				stats.Errors = append(stats.Errors, fileErr)
				s.logger.Warn("file scan failed", "file", fileErr.FilePath, "error", fileErr.Err)
			}
		}
		return nil
	})

	return g.Wait()
}

// ProcessorFunc adapts a function and a support predicate to Processor.
type ProcessorFunc struct {
	SupportsFunc func(path string) bool
	ScanFunc     func(ctx context.Context, path string) ([]parser.VariableInfo, error)
}

func (f ProcessorFunc) Supports(path string) bool {
	if f.SupportsFunc == nil {
		return true
	}
	return f.SupportsFunc(path)
}

func (f ProcessorFunc) ScanFile(ctx context.Context, path string) ([]parser.VariableInfo, error) {
	return f.ScanFunc(ctx, path)
}
