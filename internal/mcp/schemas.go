package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// saveEntryTool returns the tool definition for save_entry
func saveEntryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "save_entry",
		Description: "Persist a captured text entry. Content is stored opaquely; upstream is responsible for filtering sensitive material.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"content": map[string]interface{}{
					"type":        "string",
					"description": "The captured text",
				},
				"content_type": map[string]interface{}{
					"type":        "string",
					"description": "Short type tag (e.g. text, url, code)",
				},
				"timestamp": map[string]interface{}{
					"type":        "integer",
					"description": "Capture time in Unix milliseconds; defaults to now",
				},
				"source_app": map[string]interface{}{
					"type":        "string",
					"description": "Application the content was captured from",
				},
				"metadata": map[string]interface{}{
					"type":        "object",
					"description": "Opaque string-keyed metadata, stored verbatim",
					"additionalProperties": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"content", "content_type"},
		},
	}
}

// searchEntriesTool returns the tool definition for search_entries
func searchEntriesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_entries",
		Description: "Keyword search over stored entries. All whitespace-separated tokens must match.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Whitespace-separated keywords, ANDed together",
				},
				"content_type": map[string]interface{}{
					"type":        "string",
					"description": "Restrict to entries of this exact type",
				},
				"since": map[string]interface{}{
					"type":        "integer",
					"description": "Only entries captured at or after this Unix millisecond timestamp",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"query"},
		},
	}
}

// getRecentTool returns the tool definition for get_recent
func getRecentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_recent",
		Description: "List the most recently captured entries, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of entries to return",
					"default":     10,
				},
				"content_type": map[string]interface{}{
					"type":        "string",
					"description": "Restrict to entries of this exact type",
				},
			},
		},
	}
}

// getStatsTool returns the tool definition for get_stats
func getStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_stats",
		Description: "Report entry counts, per-type counts, schema version and the active search mode",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// deleteEntryTool returns the tool definition for delete_entry
func deleteEntryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "delete_entry",
		Description: "Delete one entry by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Entry id as returned by save_entry",
				},
			},
			Required: []string{"id"},
		},
	}
}

// clearEntriesTool returns the tool definition for clear_entries
func clearEntriesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "clear_entries",
		Description: "Delete every stored entry",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// runCleanupTool returns the tool definition for run_cleanup
func runCleanupTool() mcp.Tool {
	return mcp.Tool{
		Name:        "run_cleanup",
		Description: "Run one retention sweep immediately and report how many entries were removed",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
