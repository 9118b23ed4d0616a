package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteDB(t *testing.T) {
	dir := t.TempDir()
	userPath := filepath.Join(dir, "users.db")
	gamePath := filepath.Join(dir, "games.db")

	store, err := NewStore(Options{
		UserDBPath: userPath,
		UserTable:  "users",
		GameDBPath: gamePath,
		GameTable:  "games",
	})
	require.NoError(t, err)

	require.FileExists(t, userPath)
	require.FileExists(t, gamePath)

	require.NoError(t, store.DeleteDB())
	assert.NoFileExists(t, userPath)
	assert.NoFileExists(t, gamePath)
}

func TestDeleteDBMissingFiles(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(Options{
		UserDBPath: filepath.Join(dir, "users.db"),
		UserTable:  "users",
		GameDBPath: filepath.Join(dir, "games.db"),
		GameTable:  "games",
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDB())
	// Deleting again finds nothing to remove and still succeeds
	assert.NoError(t, store.DeleteDB())
}
