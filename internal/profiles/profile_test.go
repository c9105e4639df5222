package profiles_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkbio/internal/profiles"
	"linkbio/internal/testsupport"
)

func TestGetProfileOrNotFound(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	created := testsupport.CreateTestProfile(t, db, "Ada")

	t.Run("existing profile", func(t *testing.T) {
		profile, err := profiles.GetProfileOrNotFound(db, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", profile.Name)
	})

	t.Run("missing profile", func(t *testing.T) {
		profile, err := profiles.GetProfileOrNotFound(db, "missing")
		assert.Nil(t, profile)

		var notFound *profiles.ProfileNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "missing", notFound.ID)
	})
}

func TestCreateAndUpdateProfile(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	profile := &profiles.Profile{Name: "  Grace  ", Subtitle: "Engineer"}
	require.NoError(t, profiles.CreateProfile(db, profile))
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "Grace", profile.Name)
	assert.Equal(t, profiles.DefaultBackgroundColor, profile.BackgroundColor)
	assert.Equal(t, profiles.DefaultButtonTextColor, profile.ButtonTextColor)

	profile.Title = "Links"
	profile.ButtonColor = "#ff0000"
	require.NoError(t, profiles.UpdateProfile(db, profile))

	stored, err := profiles.GetProfileOrNotFound(db, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "Links", stored.Title)
	assert.Equal(t, "#ff0000", stored.ButtonColor)
	assert.Equal(t, "Engineer", stored.Subtitle)

	assert.Error(t, profiles.CreateProfile(db, &profiles.Profile{Name: " "}))

	var notFound *profiles.ProfileNotFoundError
	assert.ErrorAs(t, profiles.UpdateProfile(db, &profiles.Profile{ID: "missing", Name: "x"}), &notFound)
}

func TestGetProfilesWithStats(t *testing.T) {
	dbManager, _ := testsupport.SetupTestDBManager(t)
	db := dbManager.GetConnection()

	first := testsupport.CreateTestProfile(t, db, "First")
	second := testsupport.CreateTestProfile(t, db, "Second")
	testsupport.InsertRecentEvents(t, dbManager, first.ID, 3)

	result, err := profiles.GetProfilesWithStats(db, 30)
	require.NoError(t, err)
	require.Len(t, result, 2)

	counts := map[string]int64{}
	for _, p := range result {
		counts[p.ID] = p.EventCount
	}
	assert.Equal(t, int64(3), counts[first.ID])
	assert.Equal(t, int64(0), counts[second.ID])
}
