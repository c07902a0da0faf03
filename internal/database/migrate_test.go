package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"000002_orders.up.sql":   {Data: []byte("SELECT 2")},
		"000001_init.up.sql":     {Data: []byte("SELECT 1")},
		"000001_init.down.sql":   {Data: []byte("SELECT -1")},
		"000002_orders.down.sql": {Data: []byte("SELECT -2")},
		"README.md":              {Data: []byte("notes")},
	}

	up, err := MigrationFiles(fsys, "up")
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init.up.sql", "000002_orders.up.sql"}, up)

	down, err := MigrationFiles(fsys, "down")
	require.NoError(t, err)
	assert.Equal(t, []string{"000002_orders.down.sql", "000001_init.down.sql"}, down)

	_, err = MigrationFiles(fsys, "sideways")
	assert.Error(t, err)
}
