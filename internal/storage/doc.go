// Package storage provides SQLite-based persistence for captured entries.
//
// The storage layer manages:
//   - The entries table (content, type, capture timestamp, opaque metadata)
//   - Schema versioning and ordered all-or-nothing migrations
//   - The FTS5 shadow index and the triggers that keep it synchronized
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migration history (current = MAX(version))
//   - entries: one row per immutable captured entry
//   - entries_fts: FTS5 external-content index over entries.content
//     (full-text mode only)
//
// # Dual-mode search
//
// One migration step probes the engine for FTS5 support. On success the
// shadow index and its INSERT/DELETE triggers are created, so the index can
// never diverge from the primary table. On failure the store records
// fallback mode (structurally: no entries_fts table) and search degrades to
// case-insensitive substring matching against the content column. The mode
// is decided once at open time and never re-checked per call.
//
// # Basic Usage
//
//	store, err := storage.Open("~/.clipstash/clipstash.db", logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	id, err := store.Save(ctx, &types.Entry{
//	    Content:     "hello world",
//	    ContentType: "text",
//	    Timestamp:   time.Now().UnixMilli(),
//	})
//
// Entries are immutable: there is no update path, only Save and the delete
// operations (DeleteByID, DeleteOlderThan, Clear).
package storage
