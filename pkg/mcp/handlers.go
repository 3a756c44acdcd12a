package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gnana997/varscan/pkg/extractor"
	"github.com/gnana997/varscan/pkg/monitor"
	"github.com/gnana997/varscan/pkg/parser"
	"github.com/gnana997/varscan/pkg/scanner"
)

// ScanWorkspaceResult is the scan_workspace response.
type ScanWorkspaceResult struct {
	Stats   *scanner.ScanStats               `json:"stats"`
	Summary extractor.Summary                `json:"summary"`
	Files   map[string][]parser.VariableInfo `json:"files,omitempty"`
}

// ReferencesResult is the find_references response.
type ReferencesResult struct {
	Name       string                 `json:"name"`
	FilePath   string                 `json:"filePath"`
	References []parser.ReferenceInfo `json:"references"`
}

// MemoryStatusResult is the get_memory_status response.
type MemoryStatusResult struct {
	Usage      monitor.MemoryStats `json:"usage"`
	HeapUsedMB float64             `json:"heapUsedMB"`
	Pressure   monitor.Pressure    `json:"pressure"`
}

func (s *Server) handleScanWorkspace(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root := s.resolve(req.GetString("root", ""))
	if root == "" {
		return mcp.NewToolResultError("root is required when the server has no workspace root"), nil
	}

	files, stats, err := s.service.ScanWorkspace(ctx, root)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := ScanWorkspaceResult{Stats: stats, Summary: extractor.Summarize(files)}
	if !req.GetBool("summary_only", false) {
		result.Files = files
	}
	return jsonResult(result)
}

func (s *Server) handleParseFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.ParseFile(ctx, s.resolve(path))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

func (s *Server) handleFindReferences(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path = s.resolve(path)
	refs, err := s.service.FindReferences(path, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if refs == nil {
		refs = []parser.ReferenceInfo{}
	}
	return jsonResult(ReferencesResult{Name: name, FilePath: path, References: refs})
}

func (s *Server) handleListImports(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	imports, err := s.service.Imports(ctx, s.resolve(path))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if imports == nil {
		imports = []parser.ImportInfo{}
	}
	return jsonResult(imports)
}

func (s *Server) handleGetRefactorings(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	refactorings, err := s.service.Refactorings(s.resolve(path))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(refactorings)
}

func (s *Server) handleGetCacheStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.service.CacheStats())
}

func (s *Server) handleGetPerformanceReport(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.service.PerformanceReport())
}

func (s *Server) handleGetMemoryStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	usage := s.service.MemoryUsage()
	return jsonResult(MemoryStatusResult{
		Usage:      usage,
		HeapUsedMB: usage.HeapUsedMB(),
		Pressure:   s.service.Memory().PressureFor(usage.HeapUsed),
	})
}

// resolve joins a relative path onto the workspace root. An empty path
// resolves to the root itself.
func (s *Server) resolve(path string) string {
	if path == "" {
		return s.root
	}
	if filepath.IsAbs(path) || s.root == "" {
		return path
	}
	return filepath.Join(s.root, path)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
