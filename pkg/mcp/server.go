// Package mcp exposes the workspace service as MCP tools over stdio.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/gnana997/varscan/pkg/workspace"
)

const serverVersion = "0.1.0-dev"

// Server implements the MCP server for varscan, exposing scan, lookup and
// diagnostics tools.
type Server struct {
	mcpServer *server.MCPServer
	service   *workspace.Service
	root      string
	tools     []server.ServerTool
	callLog   *CallLog // nil disables call logging
	logger    *slog.Logger
}

// NewServer creates a server backed by svc. Relative tool paths resolve
// against root. callLog may be nil.
func NewServer(svc *workspace.Service, root string, callLog *CallLog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{service: svc, root: root, callLog: callLog, logger: logger}

	opts := []server.ServerOption{
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	}
	if callLog != nil {
		opts = append(opts, server.WithToolHandlerMiddleware(s.callLogMiddleware()))
	}

	s.mcpServer = server.NewMCPServer("varscan", serverVersion, opts...)

	s.tools = []server.ServerTool{
		{Tool: scanWorkspaceTool(), Handler: s.handleScanWorkspace},
		{Tool: parseFileTool(), Handler: s.handleParseFile},
		{Tool: findReferencesTool(), Handler: s.handleFindReferences},
		{Tool: listImportsTool(), Handler: s.handleListImports},
		{Tool: getRefactoringsTool(), Handler: s.handleGetRefactorings},
		{Tool: getCacheStatsTool(), Handler: s.handleGetCacheStats},
		{Tool: getPerformanceReportTool(), Handler: s.handleGetPerformanceReport},
		{Tool: getMemoryStatusTool(), Handler: s.handleGetMemoryStatus},
	}
	s.mcpServer.AddTools(s.tools...)

	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
