package db

import (
	"testing"
	"testing/fstest"

	"github.com/ibnizhaku/ip.loomora.ch-2.0-sub003/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverMigrations_SortsAndSkipsNonSQL(t *testing.T) {
	files := fstest.MapFS{
		"002_second.sql": {Data: []byte("SELECT 2")},
		"001_first.sql":  {Data: []byte("SELECT 1")},
		"migrations.go":  {Data: []byte("package migrations")},
	}

	names, err := discoverMigrations(files)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_first.sql", "002_second.sql"}, names)
}

func TestDiscoverMigrations_DuplicateVersion(t *testing.T) {
	files := fstest.MapFS{
		"001_first.sql": {Data: []byte("SELECT 1")},
		"001_other.sql": {Data: []byte("SELECT 1")},
	}

	_, err := discoverMigrations(files)
	assert.ErrorContains(t, err, "duplicate migration version 001")
}

func TestMigrationVersion_RejectsBadName(t *testing.T) {
	_, err := migrationVersion("schema.sql")
	assert.Error(t, err)

	v, err := migrationVersion("010_add_index.sql")
	require.NoError(t, err)
	assert.Equal(t, "010", v)
}

func TestEmbeddedMigrationsAreDiscoverable(t *testing.T) {
	names, err := discoverMigrations(migrations.Files)
	require.NoError(t, err)
	assert.NotEmpty(t, names)
	assert.Equal(t, "001_core_schema.sql", names[0])
}
