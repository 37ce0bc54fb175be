package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/clipstash/clipstash/internal/searcher"
	"github.com/clipstash/clipstash/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
)

// handleSaveEntry handles the save_entry tool invocation
func (s *Server) handleSaveEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	content, ok := args["content"].(string)
	if !ok || content == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "content parameter is required", map[string]interface{}{
			"param":  "content",
			"reason": "missing or empty",
		})
	}
	contentType, ok := args["content_type"].(string)
	if !ok || contentType == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "content_type parameter is required", map[string]interface{}{
			"param":  "content_type",
			"reason": "missing or empty",
		})
	}

	entry := &types.Entry{
		Content:     content,
		ContentType: contentType,
		Timestamp:   int64(getIntDefault(args, "timestamp", int(time.Now().UnixMilli()))),
		SourceApp:   getStringDefault(args, "source_app", ""),
		Metadata:    getMetadata(args),
	}

	id, err := s.store.Save(ctx, entry)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "save failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"id":         id,
		"created_at": entry.CreatedAt,
	})), nil
}

// handleSearchEntries handles the search_entries tool invocation
func (s *Server) handleSearchEntries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required", map[string]interface{}{
			"param":  "query",
			"reason": "missing",
		})
	}

	req := searcher.SearchRequest{
		Query:       query,
		ContentType: getStringDefault(args, "content_type", ""),
		Limit:       getIntDefault(args, "limit", 0),
	}
	if since, ok := args["since"].(float64); ok {
		sinceTs := int64(since)
		req.Since = &sinceTs
	}

	response, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"entries":     response.Entries,
		"total":       len(response.Entries),
		"mode":        string(response.Mode),
		"duration_ms": response.Duration.Milliseconds(),
	})), nil
}

// handleGetRecent handles the get_recent tool invocation
func (s *Server) handleGetRecent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	limit := getIntDefault(args, "limit", 0)
	contentType := getStringDefault(args, "content_type", "")

	var entries []*types.Entry
	var err error
	if contentType != "" {
		entries, err = s.store.GetRecentByType(ctx, limit, contentType)
	} else {
		entries, err = s.store.GetRecent(ctx, limit)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "listing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})), nil
}

// handleGetStats handles the get_stats tool invocation
func (s *Server) handleGetStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "count failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	byType, err := s.store.CountByType(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "count by type failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	version, err := s.store.SchemaVersion(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "schema version failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"total_entries":   count,
		"counts_by_type":  byType,
		"schema_version":  version,
		"search_mode":     string(s.searcher.Mode()),
		"sweeper_running": s.sweeper.Running(),
	})), nil
}

// handleDeleteEntry handles the delete_entry tool invocation
func (s *Server) handleDeleteEntry(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	id, ok := args["id"].(string)
	if !ok || id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "id parameter is required", map[string]interface{}{
			"param":  "id",
			"reason": "missing or empty",
		})
	}

	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "delete failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"deleted": deleted,
	})), nil
}

// handleClearEntries handles the clear_entries tool invocation
func (s *Server) handleClearEntries(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deleted, err := s.store.Clear(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "clear failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"deleted": deleted,
	})), nil
}

// handleRunCleanup handles the run_cleanup tool invocation
func (s *Server) handleRunCleanup(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	deleted := s.sweeper.Sweep(ctx)

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"deleted": deleted,
	})), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// getMetadata extracts the opaque metadata object, nil when absent
func getMetadata(args map[string]interface{}) map[string]string {
	raw, ok := args["metadata"].(map[string]interface{})
	if !ok {
		return nil
	}
	metadata := make(map[string]string, len(raw))
	for k, v := range raw {
		if str, ok := v.(string); ok {
			metadata[k] = str
		}
	}
	return metadata
}
