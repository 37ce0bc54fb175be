//go:build sqlite_fts
// +build sqlite_fts

package storage

// This file is compiled when building with CGO and the sqlite_fts tag.
// It uses the C SQLite library, which ships with FTS5 compiled in.
//
// Build command:
//   CGO_ENABLED=1 go build -tags "sqlite_fts fts5" ./...
//
// Driver used: github.com/mattn/go-sqlite3

import (
	_ "github.com/mattn/go-sqlite3"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite3"

	// BuildMode describes the current build configuration
	BuildMode = "cgo"
)
