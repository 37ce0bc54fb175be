package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServer(Config{
		DBPath:    filepath.Join(t.TempDir(), "clipstash-test.db"),
		Retention: 7 * 24 * time.Hour,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.store.Close() })
	return server
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultPayload decodes the JSON text content of a tool result.
func resultPayload(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "tool results are text content")

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func TestNewServer_Wiring(t *testing.T) {
	server := testServer(t)

	assert.NotNil(t, server.mcp)
	assert.NotNil(t, server.store)
	assert.NotNil(t, server.searcher)
	assert.NotNil(t, server.sweeper)
}

func TestResolveDBPath(t *testing.T) {
	path, err := resolveDBPath("/data/clip.db")
	require.NoError(t, err)
	assert.Equal(t, "/data/clip.db", path)

	path, err = resolveDBPath("/data/store")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/data/store", "clipstash.db"), path)
}

func TestSaveEntry_RoundTrip(t *testing.T) {
	server := testServer(t)
	ctx := context.Background()

	result, err := server.handleSaveEntry(ctx, callRequest("save_entry", map[string]interface{}{
		"content":      "hello world",
		"content_type": "text",
		"timestamp":    float64(1000),
		"source_app":   "Terminal",
		"metadata":     map[string]interface{}{"window": "main"},
	}))
	require.NoError(t, err)

	payload := resultPayload(t, result)
	id, _ := payload["id"].(string)
	assert.NotEmpty(t, id)

	result, err = server.handleGetRecent(ctx, callRequest("get_recent", nil))
	require.NoError(t, err)
	payload = resultPayload(t, result)
	assert.Equal(t, float64(1), payload["total"])

	entries, ok := payload["entries"].([]interface{})
	require.True(t, ok)
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, id, entry["id"])
	assert.Equal(t, "hello world", entry["content"])
	assert.Equal(t, "Terminal", entry["source_app"])
}

func TestSaveEntry_MissingParams(t *testing.T) {
	server := testServer(t)
	ctx := context.Background()

	_, err := server.handleSaveEntry(ctx, callRequest("save_entry", map[string]interface{}{
		"content_type": "text",
	}))
	require.Error(t, err)

	_, err = server.handleSaveEntry(ctx, callRequest("save_entry", map[string]interface{}{
		"content": "no type",
	}))
	require.Error(t, err)
}

func TestSearchEntries(t *testing.T) {
	server := testServer(t)
	ctx := context.Background()

	for _, content := range []string{"hello world", "hello there", "world peace"} {
		_, err := server.handleSaveEntry(ctx, callRequest("save_entry", map[string]interface{}{
			"content":      content,
			"content_type": "text",
		}))
		require.NoError(t, err)
	}

	result, err := server.handleSearchEntries(ctx, callRequest("search_entries", map[string]interface{}{
		"query": "hello world",
	}))
	require.NoError(t, err)

	payload := resultPayload(t, result)
	assert.Equal(t, float64(1), payload["total"])
	entries := payload["entries"].([]interface{})
	entry := entries[0].(map[string]interface{})
	assert.Equal(t, "hello world", entry["content"])
}

func TestDeleteEntry(t *testing.T) {
	server := testServer(t)
	ctx := context.Background()

	result, err := server.handleSaveEntry(ctx, callRequest("save_entry", map[string]interface{}{
		"content":      "doomed",
		"content_type": "text",
	}))
	require.NoError(t, err)
	id := resultPayload(t, result)["id"].(string)

	result, err = server.handleDeleteEntry(ctx, callRequest("delete_entry", map[string]interface{}{"id": id}))
	require.NoError(t, err)
	assert.Equal(t, true, resultPayload(t, result)["deleted"])

	result, err = server.handleDeleteEntry(ctx, callRequest("delete_entry", map[string]interface{}{"id": id}))
	require.NoError(t, err)
	assert.Equal(t, false, resultPayload(t, result)["deleted"])
}

func TestClearAndStats(t *testing.T) {
	server := testServer(t)
	ctx := context.Background()

	for _, ct := range []string{"text", "text", "url"} {
		_, err := server.handleSaveEntry(ctx, callRequest("save_entry", map[string]interface{}{
			"content":      "payload",
			"content_type": ct,
		}))
		require.NoError(t, err)
	}

	result, err := server.handleGetStats(ctx, callRequest("get_stats", nil))
	require.NoError(t, err)
	payload := resultPayload(t, result)
	assert.Equal(t, float64(3), payload["total_entries"])
	byType := payload["counts_by_type"].(map[string]interface{})
	assert.Equal(t, float64(2), byType["text"])
	assert.Equal(t, float64(1), byType["url"])

	result, err = server.handleClearEntries(ctx, callRequest("clear_entries", nil))
	require.NoError(t, err)
	assert.Equal(t, float64(3), resultPayload(t, result)["deleted"])
}

func TestRunCleanup(t *testing.T) {
	server := testServer(t)
	ctx := context.Background()

	old := time.Now().Add(-30 * 24 * time.Hour).UnixMilli()
	_, err := server.handleSaveEntry(ctx, callRequest("save_entry", map[string]interface{}{
		"content":      "stale",
		"content_type": "text",
		"timestamp":    float64(old),
	}))
	require.NoError(t, err)

	result, err := server.handleRunCleanup(ctx, callRequest("run_cleanup", nil))
	require.NoError(t, err)
	assert.Equal(t, float64(1), resultPayload(t, result)["deleted"])
}
