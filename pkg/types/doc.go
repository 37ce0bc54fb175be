// Package types provides shared type definitions for the clipstash entry store.
//
// This package defines the domain types used across components: the immutable
// Entry record, the EntryFilter query options, and the sentinel errors
// surfaced by the
// storage layer.
//
// # Core Types
//
// Entry represents one captured content record. Entries are immutable once
// stored: they are created by Save and destroyed by delete operations, never
// updated.
//
//	entry := &types.Entry{
//	    Content:     "SELECT * FROM users;",
//	    ContentType: "code",
//	    Timestamp:   time.Now().UnixMilli(),
//	    SourceApp:   "Terminal",
//	}
//
// The store assigns ID and CreatedAt at insert time.
package types
