package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql":            {Data: []byte("CREATE INDEX a ON t (c);")},
		"001_patient_reports.sql":      {Data: []byte("CREATE TABLE t (c INT);")},
		"001_patient_reports_down.sql": {Data: []byte("DROP TABLE t;")},
		"README.md":                    {Data: []byte("docs")},
		"archive/000_old.sql":          {Data: []byte("SELECT 1;")},
	}

	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "patient reports", migrations[0].Description)
	assert.Equal(t, "CREATE TABLE t (c INT);", migrations[0].SQL)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, "002_add_index.sql", migrations[1].Filename)
}

func TestLoadMigrations_InvalidName(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"initial.sql": {Data: []byte("SELECT 1;")}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid migration filename format")
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{
		"001_a.sql": {Data: []byte("SELECT 1;")},
		"001_b.sql": {Data: []byte("SELECT 2;")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate migration version 1")
}

func TestPending(t *testing.T) {
	migrations := []Migration{{Version: 1}, {Version: 2}, {Version: 3}}

	assert.Len(t, Pending(migrations, 0), 3)
	assert.Equal(t, []Migration{{Version: 3}}, Pending(migrations, 2))
	assert.Empty(t, Pending(migrations, 3))
	assert.NotNil(t, Pending(nil, 0))
}
