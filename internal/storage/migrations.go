package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const (
	// CurrentSchemaVersion is the schema version a fully migrated store carries
	CurrentSchemaVersion = 2

	// ftsTableName is the FTS5 shadow index over entries.content
	ftsTableName = "entries_fts"
)

// Migration represents one all-or-nothing schema step. Steps are applied
// strictly in increasing version order; a failed step leaves the version
// unadvanced and aborts Open.
type Migration struct {
	Version int
	Apply   func(ctx context.Context, db *sql.DB, logger *slog.Logger) error
}

// allMigrations contains all schema migrations in order
var allMigrations = []Migration{
	{Version: 1, Apply: applyBaseSchema},
	{Version: 2, Apply: applyFullTextProbe},
}

const versionTableSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL,
    applied_at INTEGER NOT NULL
);
`

const baseSchema = `
CREATE TABLE IF NOT EXISTS entries (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    content TEXT NOT NULL,
    content_type TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    source_app TEXT NOT NULL DEFAULT '',
    metadata TEXT,
    created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_entries_type ON entries(content_type);
CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);
`

// ftsSchema creates the external-content FTS5 index, backfills rows that
// predate it, and installs the triggers that keep it synchronized with the
// primary table. Entries are immutable, so no UPDATE trigger exists.
const ftsSchema = `
CREATE VIRTUAL TABLE entries_fts USING fts5(
    content,
    content='entries',
    content_rowid='seq'
);

INSERT INTO entries_fts(rowid, content)
    SELECT seq, content FROM entries;

CREATE TRIGGER entries_ai AFTER INSERT ON entries BEGIN
    INSERT INTO entries_fts(rowid, content)
    VALUES (new.seq, new.content);
END;

CREATE TRIGGER entries_ad AFTER DELETE ON entries BEGIN
    INSERT INTO entries_fts(entries_fts, rowid, content)
    VALUES ('delete', old.seq, old.content);
END;
`

const ftsCleanup = `
DROP TRIGGER IF EXISTS entries_ad;
DROP TRIGGER IF EXISTS entries_ai;
DROP TABLE IF EXISTS entries_fts;
`

// applyMigrations runs all pending migrations and records each advanced
// version. Re-running on an already-current store is a no-op.
func applyMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	if _, err := db.ExecContext(ctx, versionTableSchema); err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	current, err := schemaVersion(ctx, db)
	if err != nil {
		return err
	}

	for _, migration := range allMigrations {
		if migration.Version <= current {
			continue // Already applied
		}

		if err := migration.Apply(ctx, db, logger); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}

		_, err = db.ExecContext(ctx,
			"INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
			migration.Version, time.Now().UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		current = migration.Version
	}

	return nil
}

// schemaVersion returns the highest recorded version, or 0 if none has been
// recorded yet.
func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema_version: %w", err)
	}
	return version, nil
}

// applyBaseSchema creates the entries table and its indexes inside one
// transaction.
func applyBaseSchema(ctx context.Context, db *sql.DB, _ *slog.Logger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, baseSchema); err != nil {
		return err
	}
	return tx.Commit()
}

// applyFullTextProbe attempts to create the FTS5 shadow index and its sync
// triggers. Failure is non-fatal: partial constructs are dropped, the store
// permanently runs in substring-fallback mode, and the migration still
// advances so the probe is never repeated for this store.
func applyFullTextProbe(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, ftsSchema); err != nil {
		_ = tx.Rollback()
		// Rollback alone may leave constructs behind on engines that
		// auto-commit DDL; drop explicitly.
		_, _ = db.ExecContext(ctx, ftsCleanup)
		logger.Warn("full-text index unavailable, search falls back to substring matching",
			"error", err)
		return nil
	}
	return tx.Commit()
}

// detectFullText reports whether the FTS5 shadow index exists, which is the
// persisted outcome of the capability probe.
func detectFullText(ctx context.Context, db *sql.DB) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
		ftsTableName).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to probe for %s: %w", ftsTableName, err)
	}
	return true, nil
}
