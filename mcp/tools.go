package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all dupscan MCP tools with the server
func RegisterTools(s *server.MCPServer, handlers *HandlerSet) {
	// Tool 1: scan_duplicates - near-duplicate detection
	s.AddTool(mcp.NewTool("scan_duplicates",
		mcp.WithDescription("Find near-duplicate Python functions, classes and modules using SimHash fingerprints and weighted token similarity"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to Python code (file or directory) to scan")),
		mcp.WithNumber("similarity_threshold",
			mcp.Description("Minimum similarity for a duplicate pair 0.0-1.0 (default: 0.7)")),
		mcp.WithString("mode",
			mcp.Enum("fast", "exhaustive"),
			mcp.Description("Search strategy: fast uses the fingerprint index, exhaustive scores all pairs (default: fast)")),
		mcp.WithNumber("top_percent",
			mcp.Description("Return the top fraction (0-100] of most similar pairs instead of using a threshold")),
		mcp.WithBoolean("include_trivial",
			mcp.Description("Include trivial and test records (default: false)")),
		mcp.WithBoolean("recursive",
			mcp.Description("Recursively scan directories (default: true)")),
	), handlers.HandleScanDuplicates)

	// Tool 2: similarity_graph - similarity graph construction
	s.AddTool(mcp.NewTool("similarity_graph",
		mcp.WithDescription("Build a similarity graph over Python code units, optionally finding the threshold adaptively for a target edge count"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to Python code (file or directory) to scan")),
		mcp.WithNumber("similarity_threshold",
			mcp.Description("Fixed similarity threshold for graph edges 0.0-1.0 (default: 0.7)")),
		mcp.WithNumber("target_edges",
			mcp.Description("Desired edge count; enables adaptive threshold search when > 0")),
		mcp.WithNumber("max_edges",
			mcp.Description("Upper edge bound for the adaptive search (default: 10x target_edges)")),
		mcp.WithBoolean("include_trivial",
			mcp.Description("Include trivial and test records (default: false)")),
		mcp.WithBoolean("recursive",
			mcp.Description("Recursively scan directories (default: true)")),
	), handlers.HandleSimilarityGraph)
}
