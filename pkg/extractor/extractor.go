package extractor

import (
	"fmt"
	"log/slog"

	"github.com/gnana997/varscan/pkg/parser"
	"github.com/gnana997/varscan/pkg/util"
)

// Extractor performs per-file extraction through a parser registry.
//
// Usage:
//
//	extractor := NewExtractor(registry, fileCache, logger)
//	result, err := extractor.ExtractPath(filePath)
//	if err != nil {
//	    return err
//	}
//	// Use result.Variables, result.Imports
type Extractor struct {
	registry  *parser.Registry
	fileCache util.FileCache
	logger    *slog.Logger
}

// NewExtractor creates an extractor. fileCache may be nil, in which case
// ExtractPath reads through an unbounded cache owned by the extractor.
func NewExtractor(registry *parser.Registry, fileCache util.FileCache, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = parser.NewDefaultRegistry(logger)
	}
	if fileCache == nil {
		cfg := util.UnboundedFileCacheConfig()
		cfg.Logger = logger
		fileCache = util.NewFileCache(cfg)
	}

	return &Extractor{
		registry:  registry,
		fileCache: fileCache,
		logger:    logger,
	}
}

// Registry returns the parser registry used for extension lookup.
func (e *Extractor) Registry() *parser.Registry {
	return e.registry
}

// Supports reports whether filePath has a registered parser.
func (e *Extractor) Supports(filePath string) bool {
	return e.registry.IsSupported(filePath)
}

// ExtractFile parses content as the file at filePath.
//
// Returns parser.ErrUnsupportedFile (wrapped) for unknown extensions.
func (e *Extractor) ExtractFile(filePath, content string) (*PerFileResult, error) {
	p, ok := e.registry.GetParserForFile(filePath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", parser.ErrUnsupportedFile, filePath)
	}

	vars := p.ParseVariables(content, filePath)
	imports := p.ParseImports(content)

	e.logger.Debug("extracted file",
		"file", filePath,
		"language", p.Language(),
		"variables", len(vars),
		"imports", len(imports))

	return &PerFileResult{
		FilePath:     filePath,
		Language:     p.Language(),
		LanguageName: p.Language().String(),
		Variables:    vars,
		Imports:      imports,
		Refactorings: p.GetSupportedRefactorings(),
	}, nil
}

// ExtractPath reads filePath through the file cache and extracts it.
func (e *Extractor) ExtractPath(filePath string) (*PerFileResult, error) {
	if !e.registry.IsSupported(filePath) {
		return nil, fmt.Errorf("%w: %s", parser.ErrUnsupportedFile, filePath)
	}

	content, err := e.fileCache.Content(filePath)
	if err != nil {
		return nil, err
	}
	return e.ExtractFile(filePath, content)
}

// References returns every occurrence of name in the file at filePath.
func (e *Extractor) References(filePath, name string) ([]parser.ReferenceInfo, error) {
	p, ok := e.registry.GetParserForFile(filePath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", parser.ErrUnsupportedFile, filePath)
	}

	content, err := e.fileCache.Content(filePath)
	if err != nil {
		return nil, err
	}
	return p.GetVariableReferences(content, name), nil
}

// Forget drops any cached content for filePath.
func (e *Extractor) Forget(filePath string) {
	e.fileCache.Invalidate(filePath)
}

// Close releases the file cache.
func (e *Extractor) Close() error {
	return e.fileCache.Close()
}

// ReleaseContent drops every cached file mapping. The extractor stays usable
// and reloads files on demand.
func (e *Extractor) ReleaseContent() error {
	return e.fileCache.Close()
}
