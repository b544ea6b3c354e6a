package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcu-ap03/birdsync/internal/storage/memory"
	"github.com/jcu-ap03/birdsync/internal/storage/sqlite"
)

func sqliteConfig(t *testing.T) (string, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "birdsync.db")
	return writeConfig(t, `
source:
  name: ALA
storage:
  type: sqlite
  sqlite:
    path: `+dbPath+`
`), dbPath
}

func TestSeedCmd_DryRun(t *testing.T) {
	t.Parallel()

	cfgPath, _ := sqliteConfig(t)
	out, err := execute(t, "", "seed", "--config", cfgPath, "--wipe", "--with-debug-species", "--dry-run")
	require.NoError(t, err)

	assert.Equal(t, `would wipe all occurrences, species and sources
would ensure source "ALA" exists
would add species Gymnorhina tibicen (Australian Magpie)
would add species Motacilla flava (Yellow Wagtail)
would add species Ninox strenua (Powerful Owl)
would add species Falco hypoleucos (Grey Falcon)
`, out)
}

func TestSeedCmd_SQLite(t *testing.T) {
	t.Parallel()

	cfgPath, dbPath := sqliteConfig(t)

	// seeding twice leaves a single copy of everything
	for range 2 {
		_, err := execute(t, "", "seed", "--config", cfgPath, "--with-debug-species")
		require.NoError(t, err)
	}

	ctx := context.Background()
	store, err := sqlite.Open(ctx, dbPath)
	require.NoError(t, err)

	species, err := store.SelectAllSpecies(ctx)
	require.NoError(t, err)
	assert.Len(t, species, len(debugSpecies))

	src, err := store.GetSource(ctx, "ALA")
	require.NoError(t, err)
	assert.Nil(t, src.LastImportTime)
	require.NoError(t, store.Close())

	out, err := execute(t, "", "seed", "--config", cfgPath, "--wipe")
	require.NoError(t, err)
	assert.Contains(t, out, "wipe all occurrences, species and sources")

	store, err = sqlite.Open(ctx, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	species, err = store.SelectAllSpecies(ctx)
	require.NoError(t, err)
	assert.Empty(t, species)
	_, err = store.GetSource(ctx, "ALA")
	assert.NoError(t, err, "the source is recreated after the wipe")
}

func TestPlanSeed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		wipe      bool
		withDebug bool
		wantSteps int
	}{
		{name: "source only", wantSteps: 1},
		{name: "wipe", wipe: true, wantSteps: 2},
		{name: "debug species", withDebug: true, wantSteps: 5},
		{name: "everything", wipe: true, withDebug: true, wantSteps: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			steps := planSeed("ALA", tt.wipe, tt.withDebug)
			require.Len(t, steps, tt.wantSteps)

			repo := memory.New()
			for _, step := range steps {
				require.NoError(t, step.apply(context.Background(), repo), step.description)
			}

			_, err := repo.GetSource(context.Background(), "ALA")
			require.NoError(t, err)

			species, err := repo.SelectAllSpecies(context.Background())
			require.NoError(t, err)
			if tt.withDebug {
				assert.Len(t, species, len(debugSpecies))
			} else {
				assert.Empty(t, species)
			}
		})
	}
}
