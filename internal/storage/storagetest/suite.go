// Package storagetest holds the behaviour every storage.Repository backend
// must share. Backend packages run it from their own tests.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcu-ap03/birdsync/internal/domain"
	"github.com/jcu-ap03/birdsync/internal/storage"
)

// Factory returns an empty repository. Cleanup is registered on t.
type Factory func(t *testing.T) storage.Repository

// Run executes the shared repository tests
func Run(t *testing.T, newRepo Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, repo storage.Repository)
	}{
		{name: "species", fn: testSpecies},
		{name: "sources", fn: testSources},
		{name: "keyed_occurrences", fn: testKeyedOccurrences},
		{name: "append_only_occurrences", fn: testAppendOnlyOccurrences},
		{name: "delete_species_cascades", fn: testDeleteSpeciesCascades},
		{name: "wipe", fn: testWipe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newRepo(t))
		})
	}
}

func testSpecies(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	falcon, err := repo.InsertSpecies(ctx, "Falco hypoleucos", "Grey Falcon")
	require.NoError(t, err)
	parrot, err := repo.InsertSpecies(ctx, "Pezoporus occidentalis", "")
	require.NoError(t, err)
	assert.NotEqual(t, falcon, parrot)

	_, err = repo.InsertSpecies(ctx, "Falco hypoleucos", "Grey Falcon")
	assert.Error(t, err, "scientific names are unique")

	species, err := repo.SelectAllSpecies(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.Species{
		{ID: falcon, ScientificName: "Falco hypoleucos", CommonName: "Grey Falcon"},
		{ID: parrot, ScientificName: "Pezoporus occidentalis"},
	}, species)

	require.NoError(t, repo.DeleteSpecies(ctx, falcon))
	assert.ErrorIs(t, repo.DeleteSpecies(ctx, falcon), domain.ErrNotFound)

	species, err = repo.SelectAllSpecies(ctx)
	require.NoError(t, err)
	require.Len(t, species, 1)
	assert.Equal(t, "Pezoporus occidentalis", species[0].ScientificName)
}

func testSources(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	_, err := repo.GetSource(ctx, "ALA")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	created, err := repo.InsertSource(ctx, "ALA")
	require.NoError(t, err)
	assert.Equal(t, "ALA", created.Name)
	assert.Nil(t, created.LastImportTime)

	_, err = repo.InsertSource(ctx, "ALA")
	assert.Error(t, err)

	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	require.NoError(t, repo.SetSourceWatermark(ctx, created.ID, at))

	got, err := repo.GetSource(ctx, "ALA")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	require.NotNil(t, got.LastImportTime)
	assert.True(t, at.Equal(*got.LastImportTime), "watermark %s != %s", got.LastImportTime, at)

	assert.ErrorIs(t, repo.SetSourceWatermark(ctx, created.ID+1000, at), domain.ErrNotFound)
}

func testKeyedOccurrences(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	speciesID, err := repo.InsertSpecies(ctx, "Falco hypoleucos", "")
	require.NoError(t, err)
	otherSpecies, err := repo.InsertSpecies(ctx, "Falco cenchroides", "")
	require.NoError(t, err)
	src, err := repo.InsertSource(ctx, "ALA")
	require.NoError(t, err)
	otherSrc, err := repo.InsertSource(ctx, "eBird")
	require.NoError(t, err)

	key := uuid.MustParse("8ed2d35f-1c4e-4a9b-9b6f-2d7a5c3e1f00")

	count, err := repo.CountOccurrences(ctx, src.ID, key)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.InsertOccurrence(ctx, domain.Occurrence{
		Latitude:  -23.5,
		Longitude: 133.9,
		Rating:    domain.RatingGood,
		SpeciesID: speciesID,
		SourceID:  src.ID,
		RecordKey: &key,
	})
	require.NoError(t, err)

	count, err = repo.CountOccurrences(ctx, src.ID, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountOccurrences(ctx, otherSrc.ID, key)
	require.NoError(t, err)
	assert.Zero(t, count, "keys are scoped by source")

	_, err = repo.InsertOccurrence(ctx, domain.Occurrence{
		Latitude:  0,
		Longitude: 0,
		Rating:    domain.RatingGood,
		SpeciesID: speciesID,
		SourceID:  src.ID,
		RecordKey: &key,
	})
	assert.Error(t, err, "(source, record key) is unique")

	require.NoError(t, repo.UpdateOccurrence(ctx, domain.Occurrence{
		Latitude:  -31.9,
		Longitude: 115.8,
		Rating:    domain.RatingSuspect,
		SpeciesID: otherSpecies,
		SourceID:  src.ID,
		RecordKey: &key,
	}))

	count, err = repo.CountOccurrences(ctx, src.ID, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	missing := uuid.MustParse("00000000-0000-4000-8000-000000000001")
	err = repo.UpdateOccurrence(ctx, domain.Occurrence{
		Rating:    domain.RatingGood,
		SpeciesID: speciesID,
		SourceID:  src.ID,
		RecordKey: &missing,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.Error(t, repo.UpdateOccurrence(ctx, domain.Occurrence{SourceID: src.ID, SpeciesID: speciesID}))
}

func testAppendOnlyOccurrences(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	speciesID, err := repo.InsertSpecies(ctx, "Falco hypoleucos", "")
	require.NoError(t, err)
	src, err := repo.InsertSource(ctx, "ALA")
	require.NoError(t, err)

	occ := domain.Occurrence{
		Latitude:  -12.5,
		Longitude: 130.8,
		Rating:    domain.RatingGood,
		SpeciesID: speciesID,
		SourceID:  src.ID,
	}
	first, err := repo.InsertOccurrence(ctx, occ)
	require.NoError(t, err)
	second, err := repo.InsertOccurrence(ctx, occ)
	require.NoError(t, err)
	assert.NotEqual(t, first, second, "records without a key are appended")
}

func testDeleteSpeciesCascades(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	speciesID, err := repo.InsertSpecies(ctx, "Falco hypoleucos", "")
	require.NoError(t, err)
	src, err := repo.InsertSource(ctx, "ALA")
	require.NoError(t, err)

	key := uuid.MustParse("11111111-2222-4333-8444-555555555555")
	_, err = repo.InsertOccurrence(ctx, domain.Occurrence{
		Rating:    domain.RatingGood,
		SpeciesID: speciesID,
		SourceID:  src.ID,
		RecordKey: &key,
	})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteSpecies(ctx, speciesID))

	count, err := repo.CountOccurrences(ctx, src.ID, key)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func testWipe(t *testing.T, repo storage.Repository) {
	ctx := context.Background()

	_, err := repo.InsertSpecies(ctx, "Falco hypoleucos", "")
	require.NoError(t, err)
	_, err = repo.InsertSource(ctx, "ALA")
	require.NoError(t, err)

	require.NoError(t, repo.Wipe(ctx))

	species, err := repo.SelectAllSpecies(ctx)
	require.NoError(t, err)
	assert.Empty(t, species)

	_, err = repo.GetSource(ctx, "ALA")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, repo.Ping(ctx))
}
