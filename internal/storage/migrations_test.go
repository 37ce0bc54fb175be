package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clipstash/clipstash/pkg/types"
)

// newV1Store writes a store file as migration version 1 left it: entries
// table present, no FTS index, one pre-existing row.
func newV1Store(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open(DriverName, path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(versionTableSchema)
	require.NoError(t, err)
	_, err = db.Exec(baseSchema)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO schema_version (version, applied_at) VALUES (1, 0)")
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO entries (id, content, content_type, timestamp, source_app, created_at)
		VALUES ('legacy-id', 'legacy searchable payload', 'text', 1000, '', 1000)`)
	require.NoError(t, err)

	return path
}

func TestApplyMigrations_FreshStoreReachesCurrentVersion(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestApplyMigrations_ReopenIsNoOp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.db")
	ctx := context.Background()

	store, err := Open(path, testLogger())
	require.NoError(t, err)
	entry := saveEntry(t, store, "persisted", "text", 42)
	require.NoError(t, store.Close())

	reopened, err := Open(path, testLogger())
	require.NoError(t, err)
	defer reopened.Close()

	version, err := reopened.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	got, err := reopened.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "persisted", got.Content)
}

func TestApplyMigrations_ForwardMigrationBackfillsIndex(t *testing.T) {
	path := newV1Store(t)
	ctx := context.Background()

	store, err := Open(path, testLogger())
	require.NoError(t, err)
	defer store.Close()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, CurrentSchemaVersion, version)

	// Pre-existing rows survive the migration unchanged.
	got, err := store.GetByID(ctx, "legacy-id")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "legacy searchable payload", got.Content)
	assert.Equal(t, int64(1000), got.Timestamp)

	if !store.FullTextEnabled() {
		t.Skip("FTS5 not available in this build")
	}

	// Rows that predate the index were backfilled into it.
	matches, err := store.SearchFullText(ctx, `"payload"`, types.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "legacy-id", matches[0].ID)
}

func TestOpen_FallbackModePersistsAcrossReopen(t *testing.T) {
	// A store whose probe recorded fallback (version advanced, no FTS
	// table) must stay in fallback mode on reopen even when the engine
	// could support FTS now.
	path := newV1Store(t)

	db, err := sql.Open(DriverName, path)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO schema_version (version, applied_at) VALUES (2, 0)")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	store, err := Open(path, testLogger())
	require.NoError(t, err)
	defer store.Close()

	assert.False(t, store.FullTextEnabled())

	// Substring search still reaches the pre-existing row.
	matches, err := store.SearchSubstring(context.Background(),
		[]string{"legacy", "payload"}, types.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "legacy-id", matches[0].ID)
}

func TestDetectFullText(t *testing.T) {
	store := setupTestStore(t)

	enabled, err := detectFullText(context.Background(), store.db)
	require.NoError(t, err)
	assert.Equal(t, store.FullTextEnabled(), enabled)
}
