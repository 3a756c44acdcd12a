// Package parser implements pattern-based variable, import, and reference
// extraction for JavaScript/TypeScript, Python, Vue, JSON, and YAML.
//
// Each language lives behind the Parser interface; a Registry dispatches by
// file extension. Extraction is textual: there is no AST and no scope
// resolution beyond the heuristics documented on each parser.
package parser

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupportedFile is returned when no parser is registered for a file's extension.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Parser is the capability set every language variant implements.
//
// Implementations are safe for concurrent use; they hold no per-call state.
type Parser interface {
	// Language identifies the variant.
	Language() Language

	// FileExtensions lists the extensions (with leading dot) this parser handles.
	FileExtensions() []string

	// ParseVariables extracts declarations from content. It never fails:
	// unparseable input yields an empty or partial result.
	ParseVariables(content, filePath string) []VariableInfo

	// ParseImports extracts import-like statements. Languages without an
	// import concept return an empty slice.
	ParseImports(content string) []ImportInfo

	// GetVariableReferences finds every word-boundary occurrence of name.
	GetVariableReferences(content, name string) []ReferenceInfo

	// GetSupportedRefactorings advertises the refactorings the UI may offer.
	GetSupportedRefactorings() []RefactoringType
}

// Registry maps file extensions to Parser instances.
//
// Multiple extensions may share one parser. Registering an extension that
// is already mapped replaces the previous parser.
//
// Thread Safety: Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// NewDefaultRegistry creates a registry with all built-in parsers registered.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	js := NewJavaScriptParser()
	r := NewRegistry()
	r.RegisterParser(js)
	r.RegisterParser(NewPythonParser())
	r.RegisterParser(NewVueParser(js))
	r.RegisterParser(NewJSONParser(logger))
	r.RegisterParser(NewYAMLParser())
	return r
}

// RegisterParser maps every extension p declares to p, overwriting any
// existing mapping.
func (r *Registry) RegisterParser(p Parser) {
	r.RegisterParserFor(p, p.FileExtensions()...)
}

// RegisterParserFor maps the given extensions to p. Extensions are
// lower-cased; a missing leading dot is added.
func (r *Registry) RegisterParserFor(p Parser, extensions ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range extensions {
		r.parsers[normalizeExtension(ext)] = p
	}
}

// GetParser returns the parser registered for ext, or nil, false.
func (r *Registry) GetParser(ext string) (Parser, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.parsers[normalizeExtension(ext)]
	return p, ok
}

// GetParserForFile resolves the parser by the extension of filePath.
func (r *Registry) GetParserForFile(filePath string) (Parser, bool) {
	return r.GetParser(Extension(filePath))
}

// GetSupportedExtensions returns the registered extensions, sorted.
func (r *Registry) GetSupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.parsers))
	for ext := range r.parsers {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupported reports whether filePath has a registered parser.
func (r *Registry) IsSupported(filePath string) bool {
	_, ok := r.GetParserForFile(filePath)
	return ok
}

func normalizeExtension(ext string) string {
	if ext == "" {
		return ext
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	return strings.ToLower(ext)
}
