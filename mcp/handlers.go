package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/analyzer"
	"github.com/ludo-technologies/dupscan/internal/extractor"
	"github.com/ludo-technologies/dupscan/service"
	"github.com/mark3labs/mcp-go/mcp"
)

// HandlerSet exposes MCP tool handlers with shared dependencies.
type HandlerSet struct {
	store domain.RecordStore
}

// NewHandlerSet constructs a handler set. The store may be nil, in which
// case scans run purely in memory.
func NewHandlerSet(store domain.RecordStore) *HandlerSet {
	return &HandlerSet{store: store}
}

// newDuplicateService builds a fresh service per call so every tool
// invocation scans from an empty engine.
func (h *HandlerSet) newDuplicateService() domain.DuplicateService {
	return service.NewDuplicateService(service.NewFileReader(), extractor.New(), analyzer.NewEngine(h.store), nil)
}

func (h *HandlerSet) newGraphService() domain.GraphService {
	return service.NewGraphService(service.NewFileReader(), extractor.New(), analyzer.NewEngine(h.store), nil)
}

// HandleScanDuplicates handles the scan_duplicates tool
func (h *HandlerSet) HandleScanDuplicates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}

	req := domain.DefaultDuplicateRequest()
	req.Paths = []string{path}
	if threshold, ok := args["similarity_threshold"].(float64); ok {
		req.SimilarityThreshold = threshold
	}
	if mode, ok := args["mode"].(string); ok {
		req.UseFastMode = mode != domain.SearchModeExhaustive.String()
	}
	if topPercent, ok := args["top_percent"].(float64); ok {
		req.TopPercent = topPercent
	}
	if includeTrivial, ok := args["include_trivial"].(bool); ok {
		req.IncludeTrivial = includeTrivial
	}
	if recursive, ok := args["recursive"].(bool); ok {
		req.Recursive = recursive
	}

	response, err := h.newDuplicateService().FindDuplicates(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("duplicate detection failed: %v", err)), nil
	}

	return toolResultJSON(response)
}

// HandleSimilarityGraph handles the similarity_graph tool
func (h *HandlerSet) HandleSimilarityGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}

	req := domain.DefaultGraphRequest()
	req.Paths = []string{path}
	if threshold, ok := args["similarity_threshold"].(float64); ok {
		req.SimilarityThreshold = threshold
	}
	if targetEdges, ok := args["target_edges"].(float64); ok {
		req.TargetEdges = int(targetEdges)
		req.MaxEdges = req.TargetEdges * 10
	}
	if maxEdges, ok := args["max_edges"].(float64); ok {
		req.MaxEdges = int(maxEdges)
	}
	if includeTrivial, ok := args["include_trivial"].(bool); ok {
		req.IncludeTrivial = includeTrivial
	}
	if recursive, ok := args["recursive"].(bool); ok {
		req.Recursive = recursive
	}

	response, err := h.newGraphService().BuildGraph(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph construction failed: %v", err)), nil
	}

	return toolResultJSON(response)
}

func toolResultJSON(payload interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
