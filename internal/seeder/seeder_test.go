package seeder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkbio/internal/events"
	"linkbio/internal/links"
	"linkbio/internal/seeder"
	"linkbio/internal/testsupport"
	"linkbio/internal/users"
)

const fixtureYAML = `
profile:
  id: demo-profile
  name: Ada Lovelace
  title: Mathematician
links:
  - title: Notes
    url: https://example.com/notes
  - title: Engine
    url: https://example.com/engine
    description: The analytical engine
  - title: Archive
    url: https://example.com/archive
    inactive: true
`

func TestParseFixture(t *testing.T) {
	t.Run("valid fixture", func(t *testing.T) {
		fixture, err := seeder.ParseFixture([]byte(fixtureYAML))
		require.NoError(t, err)
		assert.Equal(t, "demo-profile", fixture.Profile.ID)
		assert.Equal(t, "Ada Lovelace", fixture.Profile.Name)
		require.Len(t, fixture.Links, 3)
		assert.Equal(t, "The analytical engine", fixture.Links[1].Description)
		assert.True(t, fixture.Links[2].Inactive)
	})

	t.Run("missing profile name", func(t *testing.T) {
		_, err := seeder.ParseFixture([]byte("links: []\n"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, err := seeder.ParseFixture([]byte("profile: [unterminated"))
		assert.Error(t, err)
	})
}

func TestSeederRun(t *testing.T) {
	dbManager, logger := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()
	ctx := context.Background()

	fixture, err := seeder.ParseFixture([]byte(fixtureYAML))
	require.NoError(t, err)

	profile, err := seeder.NewSeeder(dbManager, logger, 200).WithSeed(42).Run(ctx, fixture)
	require.NoError(t, err)
	assert.Equal(t, "demo-profile", profile.ID)

	owners, err := users.CountOwners(db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), owners)

	seededLinks, err := links.ListLinks(db, profile.ID)
	require.NoError(t, err)
	require.Len(t, seededLinks, 3)
	assert.False(t, seededLinks[2].IsActive)

	store := events.NewStore(dbManager, logger)
	count, err := store.Count(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), count)

	all, err := store.Query(ctx, profile.ID, nil, nil)
	require.NoError(t, err)
	for _, evt := range all {
		if linkID, ok := evt.LinkID(); ok {
			assert.NotEqual(t, seededLinks[2].ID, linkID, "inactive links never receive clicks")
		}
		assert.Equal(t, events.ClassifyDevice(evt.UserAgent), evt.DeviceType)
	}

	t.Run("second run reuses profile and links", func(t *testing.T) {
		again, err := seeder.NewSeeder(dbManager, logger, 10).Run(ctx, fixture)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, again.ID)

		relisted, err := links.ListLinks(db, profile.ID)
		require.NoError(t, err)
		assert.Len(t, relisted, 3)

		count, err := store.Count(ctx, profile.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(210), count)
	})
}
