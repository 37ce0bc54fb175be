package types

import "errors"

// Domain errors surfaced by the storage layer
var (
	// ErrStorageClosed is returned by every operation issued after Close.
	ErrStorageClosed = errors.New("storage is closed")
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
)
