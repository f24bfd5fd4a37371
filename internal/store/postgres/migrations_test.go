package postgres

import (
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_SortsByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"10_sync_jobs.sql":     {Data: []byte("CREATE TABLE sync_jobs ();")},
		"2_copilot.sql":        {Data: []byte("CREATE TABLE copilot_sessions ();")},
		"1_initial_schema.sql": {Data: []byte("CREATE TABLE schema_migrations ();")},
		"README.md":            {Data: []byte("not a migration")},
		"fixtures/3_extra.sql": {Data: []byte("SELECT 1;")},
	}

	migrations, err := loadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 3)

	var versions []int
	for _, m := range migrations {
		versions = append(versions, m.version)
	}
	require.Equal(t, []int{1, 2, 10}, versions)
	require.Equal(t, "2_copilot.sql", migrations[1].file)
	require.Equal(t, "CREATE TABLE copilot_sessions ();", migrations[1].sql)
}

func TestLoadMigrations_Rejects(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{name: "missing version", fsys: fstest.MapFS{"initial.sql": {}}},
		{name: "non numeric version", fsys: fstest.MapFS{"v1_initial.sql": {}}},
		{name: "duplicate version", fsys: fstest.MapFS{"1_a.sql": {}, "01_b.sql": {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadMigrations(tt.fsys)
			require.Error(t, err)
		})
	}
}

func TestLoadMigrations_Embedded(t *testing.T) {
	dir, err := fs.Sub(migrationsFS, "migrations")
	require.NoError(t, err)

	migrations, err := loadMigrations(dir)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	require.Equal(t, 1, migrations[0].version)
	require.Contains(t, migrations[0].sql, "schema_migrations")
}
