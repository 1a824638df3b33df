package iocache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/huangsam/slick/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateStore_NoneBackend(t *testing.T) {
	err := MigrateStore(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateStore_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test_migration.db")

	// Run migration to latest version
	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))

	_, err := os.Stat(dbPath)
	assert.NoError(t, err)

	// Run migration again (should be a no-op)
	assert.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))

	// Step down to version 1, then roll everything back
	assert.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, 1))
	assert.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, 0))

	// Migrate back up to the latest version
	assert.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))
}

func TestMigrateStore_CompatibleWithRecordStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "store.db")
	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))

	store, err := NewRecordStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 0, status.TotalRecords)
}

func TestMigrateStore_SQLiteInMemory(t *testing.T) {
	require.NoError(t, MigrateStore(schema.SQLiteBackend, ":memory:", -1))
}

func TestMigrationFilesPerBackend(t *testing.T) {
	for _, backend := range []schema.DatabaseBackend{schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend} {
		entries, err := migrationsFS.ReadDir("migrations/" + string(backend))
		require.NoError(t, err)
		assert.Len(t, entries, 4, "backend %s", backend)
	}
}
