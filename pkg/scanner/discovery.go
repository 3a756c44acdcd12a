package scanner

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidatePatterns reports the first malformed doublestar pattern.
func ValidatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	return nil
}

// DiscoverFiles walks root and returns the absolute paths of files accepted
// by supports, sorted for deterministic output.
//
// Directories named in opts.SkipDirs, and paths matching opts.Exclude, are
// not descended into. Unreadable entries below root are logged and skipped;
// only a failure to walk root itself is returned.
func DiscoverFiles(root string, opts Options, supports func(string) bool, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := ValidatePatterns(opts.Exclude); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	skip := make(map[string]struct{}, len(opts.SkipDirs))
	for _, name := range opts.SkipDirs {
		skip[name] = struct{}{}
	}

	var files []string

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			logger.Warn("walk error", "path", path, "error", err)
			return nil
		}

		if d.IsDir() && path != absRoot {
			if _, ok := skip[d.Name()]; ok {
				return filepath.SkipDir
			}
		}

		if len(opts.Exclude) > 0 && path != absRoot {
			relPath, relErr := filepath.Rel(absRoot, path)
			if relErr != nil {
				relPath = path
			}
			relPath = filepath.ToSlash(relPath)

			for _, pattern := range opts.Exclude {
				if matched, _ := doublestar.Match(pattern, relPath); matched {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
			}
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if supports != nil && !supports(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", absRoot, err)
	}

	sort.Strings(files)
	return files, nil
}
