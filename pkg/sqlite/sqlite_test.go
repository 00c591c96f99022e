package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadimbarashkov/shortlink/migrations"
)

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shortlink.db")

	db, err := New(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	assert.Equal(t, defaultMaxOpenConns, db.Stats().MaxOpenConnections)

	var timeout int
	require.NoError(t, db.Get(&timeout, "PRAGMA busy_timeout"))
	assert.Equal(t, int(defaultBusyTimeout.Milliseconds()), timeout)
}

func TestRunMigrations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shortlink.db")

	require.NoError(t, RunMigrations(migrations.FS, "sqlite", path))
	require.NoError(t, RunMigrations(migrations.FS, "sqlite", path), "second run must be a no-op")

	db, err := New(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close()
	})

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM links"))
	assert.Zero(t, count)
}

func TestRunMigrations_MissingSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shortlink.db")

	err := RunMigrations(migrations.FS, "mysql", path)

	assert.Error(t, err)
}
