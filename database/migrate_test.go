package database

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMigrateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "postgres://u:p@localhost:5432/db?sslmode=disable", want: "pgx5://u:p@localhost:5432/db?sslmode=disable"},
		{in: "postgresql://u:p@localhost/db", want: "pgx5://u:p@localhost/db"},
		{in: "pgx5://u:p@localhost/db", want: "pgx5://u:p@localhost/db"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, toMigrateURL(tt.in))
		})
	}
}

func TestMigrationsArePaired(t *testing.T) {
	t.Parallel()

	ups, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrationsFS, "migrations/*.down.sql")
	require.NoError(t, err)

	assert.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func TestMigrations(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, cleanupFunc := SetupTestDBContainer(t, ctx)
	t.Cleanup(cleanupFunc)

	connString := db.Config().ConnString()

	m, err := GetMigrate(connString)
	require.NoError(t, err)
	defer func() {
		_, _ = m.Close()
	}()

	fnames, err := fs.Glob(migrationsFS, "migrations/*.up.sql")
	require.NoError(t, err)

	for i := 1; i <= len(fnames); i++ {
		assert.NoError(t, m.Steps(i))
		assert.NoError(t, m.Steps(-i))
		assert.NoError(t, m.Steps(i))
	}

	version, dirty, err := GetVersion(connString)
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Equal(t, uint(len(fnames)), version)
}
