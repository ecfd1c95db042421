package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "triage.sqlite3"))
	assert.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "   ")
	assert.Error(t, err)
}

func TestOpen_CreatesAndMigrates(t *testing.T) {
	store := openTestStore(t)

	var ver int
	err := store.DB().QueryRow("PRAGMA user_version;").Scan(&ver)
	assert.NoError(t, err)
	assert.Equal(t, 2, ver)

	for _, table := range []string{"action_overrides", "override_history"} {
		var name string
		err := store.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "triage.sqlite3")

	store, err := Open(ctx, dbPath)
	assert.NoError(t, err)
	assert.NoError(t, store.Close())

	store, err = Open(ctx, dbPath)
	assert.NoError(t, err)
	defer store.Close()

	var ver int
	assert.NoError(t, store.DB().QueryRow("PRAGMA user_version;").Scan(&ver))
	assert.Equal(t, 2, ver)
}

func TestClose_NilStore(t *testing.T) {
	var store *Store
	assert.NoError(t, store.Close())
}
