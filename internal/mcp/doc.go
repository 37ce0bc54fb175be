// Package mcp exposes the entry store's consumer contract as MCP tools over
// stdio.
//
// The layer is intentionally thin: handlers extract arguments, call the
// store, searcher or sweeper, and serialize the result. No content
// validation happens here; upstream is responsible for filtering and typing
// content before it reaches the store.
package mcp
