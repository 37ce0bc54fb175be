package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/clipstash/clipstash/pkg/types"
)

const (
	// DefaultRecentLimit caps GetRecent and GetRecentByType when the caller
	// passes no limit.
	DefaultRecentLimit = 10
	// DefaultSinceLimit caps GetSince when the caller passes no limit.
	DefaultSinceLimit = 100

	// MemoryPath opens an ephemeral in-memory store, used by tests.
	MemoryPath = ":memory:"
)

// entryColumns is the scan order shared by every entry query.
const entryColumns = "id, content, content_type, timestamp, source_app, metadata, created_at"

// entryOrder lists newest capture first; seq (insertion order) breaks
// timestamp ties so the ordering is total.
const entryOrder = "ORDER BY timestamp DESC, seq DESC"

// Store is the SQLite-backed entry store. It owns its database handle
// exclusively; after Close every operation fails fast with
// types.ErrStorageClosed.
//
// The store provides no cross-process write coordination beyond SQLite's WAL
// mode. Concurrent external writers are not supported.
type Store struct {
	db       *sql.DB
	logger   *slog.Logger
	fullText bool
	closed   atomic.Bool
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

// Open opens (or creates) the entry store at path, creating parent
// directories as needed, and runs all pending schema migrations. Pass
// MemoryPath for an ephemeral in-memory store. A nil logger defaults to
// slog.Default().
//
// Migration failure is fatal: no partially migrated store is ever returned.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := openDatabase(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx := context.Background()
	if err := applyMigrations(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	fullText, err := detectFullText(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger, fullText: fullText}, nil
}

// Close closes the database connection. Subsequent operations return
// types.ErrStorageClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// FullTextEnabled reports whether the store runs with the FTS5 shadow index.
// The mode is fixed at open time for the life of the handle.
func (s *Store) FullTextEnabled() bool {
	return s.fullText
}

// SchemaVersion returns the persisted schema version, 0 if unset.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	return schemaVersion(ctx, s.db)
}

func (s *Store) checkOpen() error {
	if s.closed.Load() {
		return types.ErrStorageClosed
	}
	return nil
}

// Save persists a new entry, assigning its ID and CreatedAt, and returns the
// ID. The passed entry is updated in place with the assigned fields. Content,
// type and metadata are stored opaquely.
func (s *Store) Save(ctx context.Context, entry *types.Entry) (string, error) {
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now().UnixMilli()

	metadata, err := encodeMetadata(entry.Metadata)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}

	query := `
		INSERT INTO entries (id, content, content_type, timestamp, source_app, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID, entry.Content, entry.ContentType, entry.Timestamp,
		entry.SourceApp, metadata, entry.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("failed to save entry: %w", err)
	}
	return entry.ID, nil
}

// GetByID returns the entry with the given id, or nil if it doesn't exist.
// Absence is not an error.
func (s *Store) GetByID(ctx context.Context, id string) (*types.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM entries WHERE id = ?", id)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return entry, nil
}

// GetRecent returns up to limit entries ordered by capture timestamp
// descending. A non-positive limit means DefaultRecentLimit.
func (s *Store) GetRecent(ctx context.Context, limit int) ([]*types.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	query := "SELECT " + entryColumns + " FROM entries " + entryOrder + " LIMIT ?"
	return s.queryEntries(ctx, query, limit)
}

// GetRecentByType is GetRecent filtered by exact content type match.
func (s *Store) GetRecentByType(ctx context.Context, limit int, contentType string) ([]*types.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	query := "SELECT " + entryColumns + " FROM entries WHERE content_type = ? " + entryOrder + " LIMIT ?"
	return s.queryEntries(ctx, query, contentType, limit)
}

// GetSince returns entries with timestamp >= sinceTs ordered by timestamp
// descending. A non-positive limit means DefaultSinceLimit.
func (s *Store) GetSince(ctx context.Context, sinceTs int64, limit int) ([]*types.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSinceLimit
	}

	query := "SELECT " + entryColumns + " FROM entries WHERE timestamp >= ? " + entryOrder + " LIMIT ?"
	return s.queryEntries(ctx, query, sinceTs, limit)
}

// DeleteByID removes an entry, reporting whether a row was removed.
func (s *Store) DeleteByID(ctx context.Context, id string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("failed to delete entry: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// DeleteOlderThan removes entries with timestamp strictly below cutoffTs and
// returns how many were removed. Entries with timestamp == cutoffTs are
// retained.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoffTs int64) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE timestamp < ?", cutoffTs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Clear removes all entries and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM entries")
	if err != nil {
		return 0, fmt.Errorf("failed to clear entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

// Count returns the total number of stored entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// CountByType returns entry counts keyed by content type. Types with no
// entries are absent from the map.
func (s *Store) CountByType(ctx context.Context) (map[string]int, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT content_type, COUNT(*) FROM entries GROUP BY content_type")
	if err != nil {
		return nil, fmt.Errorf("failed to count entries by type: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[string]int)
	for rows.Next() {
		var contentType string
		var count int
		if err := rows.Scan(&contentType, &count); err != nil {
			return nil, err
		}
		counts[contentType] = count
	}
	return counts, rows.Err()
}

// SearchFullText runs an FTS5 MATCH query against the shadow index and
// returns full entries. Callers build the match expression; the searcher
// package owns tokenization.
func (s *Store) SearchFullText(ctx context.Context, match string, filter types.EntryFilter) ([]*types.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(`
		SELECT e.id, e.content, e.content_type, e.timestamp, e.source_app, e.metadata, e.created_at
		FROM entries e
		JOIN entries_fts f ON e.seq = f.rowid
		WHERE f.entries_fts MATCH ?`)
	args := []interface{}{match}
	appendFilter(&sb, &args, "e.", filter)
	sb.WriteString(" ORDER BY e.timestamp DESC, e.seq DESC LIMIT ?")
	args = append(args, searchLimit(filter))

	return s.queryEntries(ctx, sb.String(), args...)
}

// SearchSubstring matches every token as a case-insensitive substring of the
// primary content column. Used when full-text mode is unavailable.
func (s *Store) SearchSubstring(ctx context.Context, tokens []string, filter types.EntryFilter) ([]*types.Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + entryColumns + " FROM entries WHERE 1=1")
	var args []interface{}
	for _, token := range tokens {
		// instr avoids LIKE wildcard escaping for tokens containing % or _.
		sb.WriteString(" AND instr(lower(content), ?) > 0")
		args = append(args, strings.ToLower(token))
	}
	appendFilter(&sb, &args, "", filter)
	sb.WriteString(" " + entryOrder + " LIMIT ?")
	args = append(args, searchLimit(filter))

	return s.queryEntries(ctx, sb.String(), args...)
}

// appendFilter adds the shared type/since predicates to a search query.
func appendFilter(sb *strings.Builder, args *[]interface{}, prefix string, filter types.EntryFilter) {
	if filter.ContentType != "" {
		sb.WriteString(" AND " + prefix + "content_type = ?")
		*args = append(*args, filter.ContentType)
	}
	if filter.Since != nil {
		sb.WriteString(" AND " + prefix + "timestamp >= ?")
		*args = append(*args, *filter.Since)
	}
}

func searchLimit(filter types.EntryFilter) int {
	if filter.Limit <= 0 {
		return DefaultRecentLimit
	}
	return filter.Limit
}

// queryEntries executes a query and scans the result into entries.
func (s *Store) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*types.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*types.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanEntry scans a single row in entryColumns order.
func scanEntry(row rowScanner) (*types.Entry, error) {
	var entry types.Entry
	var metadata sql.NullString
	err := row.Scan(
		&entry.ID, &entry.Content, &entry.ContentType, &entry.Timestamp,
		&entry.SourceApp, &metadata, &entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return &entry, nil
}

// encodeMetadata JSON-encodes the opaque metadata map, NULL for nil.
func encodeMetadata(metadata map[string]string) (interface{}, error) {
	if metadata == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}
