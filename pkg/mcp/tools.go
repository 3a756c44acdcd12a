package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Tool names.
const (
	ToolScanWorkspace        = "scan_workspace"
	ToolParseFile            = "parse_file"
	ToolFindReferences       = "find_references"
	ToolListImports          = "list_imports"
	ToolGetRefactorings      = "get_refactorings"
	ToolGetCacheStats        = "get_cache_stats"
	ToolGetPerformanceReport = "get_performance_report"
	ToolGetMemoryStatus      = "get_memory_status"
)

const pathDescription = "File path, absolute or relative to the workspace root"

func scanWorkspaceTool() mcp.Tool {
	return mcp.NewTool(ToolScanWorkspace,
		mcp.WithDescription("Scan every supported file below a directory and return the variables declared in each, with scan statistics."),
		mcp.WithString("root", mcp.Description("Directory to scan. Defaults to the workspace root.")),
		mcp.WithBoolean("summary_only", mcp.Description("Return counts by type, declaration and scope instead of every variable.")),
	)
}

func parseFileTool() mcp.Tool {
	return mcp.NewTool(ToolParseFile,
		mcp.WithDescription("Extract the variables, imports and supported refactorings of one file."),
		mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
	)
}

func findReferencesTool() mcp.Tool {
	return mcp.NewTool(ToolFindReferences,
		mcp.WithDescription("Find every whole-word occurrence of an identifier in a file."),
		mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
		mcp.WithString("name", mcp.Required(), mcp.Description("Identifier to look for")),
	)
}

func listImportsTool() mcp.Tool {
	return mcp.NewTool(ToolListImports,
		mcp.WithDescription("List the import and require statements of a file."),
		mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
	)
}

func getRefactoringsTool() mcp.Tool {
	return mcp.NewTool(ToolGetRefactorings,
		mcp.WithDescription("List the refactorings supported for a file's language."),
		mcp.WithString("path", mcp.Required(), mcp.Description(pathDescription)),
	)
}

func getCacheStatsTool() mcp.Tool {
	return mcp.NewTool(ToolGetCacheStats,
		mcp.WithDescription("Result cache hits, misses, evictions and size."),
	)
}

func getPerformanceReportTool() mcp.Tool {
	return mcp.NewTool(ToolGetPerformanceReport,
		mcp.WithDescription("Average scan time, memory trend, cache efficiency, error rate and recommendations."),
	)
}

func getMemoryStatusTool() mcp.Tool {
	return mcp.NewTool(ToolGetMemoryStatus,
		mcp.WithDescription("Current heap usage and memory pressure level."),
	)
}
