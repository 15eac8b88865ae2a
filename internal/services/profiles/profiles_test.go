// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package profiles_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/oliverandrich/unsocial/internal/repository"
	"codeberg.org/oliverandrich/unsocial/internal/services/profiles"
	"codeberg.org/oliverandrich/unsocial/internal/testutil"
)

func newProfilesService(t *testing.T) (*profiles.Service, *repository.Repository, *testutil.FakeStore) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	store := testutil.NewFakeStore()
	return profiles.NewService(repo, store), repo, store
}

func tempImage(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "image-*")
	require.NoError(t, err)
	_, err = f.WriteString("fake image bytes")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestGet(t *testing.T) {
	svc, repo, _ := newProfilesService(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "Jane Doe", "jane@example.com")
	other := testutil.NewTestUser(t, repo, "John Smith", "john@example.com")

	profile, err := svc.Get(ctx, user.ID, user.ID)
	require.NoError(t, err)
	assert.True(t, profile.Myself)
	assert.False(t, profile.Followed)

	profile, err = svc.Get(ctx, other.ID, user.ID)
	require.NoError(t, err)
	assert.False(t, profile.Myself)
	assert.False(t, profile.Followed)
}

func TestGet_FollowedFlag(t *testing.T) {
	svc, repo, _ := newProfilesService(t)
	ctx := context.Background()

	requester := testutil.NewTestUser(t, repo, "Jane Doe", "jane@example.com")
	target := testutil.NewTestUser(t, repo, "John Smith", "john@example.com")

	require.NoError(t, repo.CreateFollow(ctx, target.ID, requester.ID))

	profile, err := svc.Get(ctx, target.ID, requester.ID)

	require.NoError(t, err)
	assert.True(t, profile.Followed)
}

func TestGet_NotFound(t *testing.T) {
	svc, repo, _ := newProfilesService(t)

	requester := testutil.NewTestUser(t, repo, "Jane Doe", "jane@example.com")

	_, err := svc.Get(context.Background(), uuid.NewString(), requester.ID)

	assert.ErrorIs(t, err, profiles.ErrNotFound)
}

func TestUpdate_TextFields(t *testing.T) {
	svc, repo, _ := newProfilesService(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "Jane Doe", "jane@example.com")

	fullName := "Jane Q. Doe"
	about := "Hello there."
	updated, err := svc.Update(ctx, user.ID, profiles.UpdateParams{
		FullName: &fullName,
		About:    &about,
	})

	require.NoError(t, err)
	assert.Equal(t, fullName, updated.FullName)
	require.NotNil(t, updated.About)
	assert.Equal(t, about, *updated.About)
}

func TestUpdate_ClearsAbout(t *testing.T) {
	svc, repo, _ := newProfilesService(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "Jane Doe", "jane@example.com")

	about := "Hello there."
	_, err := svc.Update(ctx, user.ID, profiles.UpdateParams{About: &about})
	require.NoError(t, err)

	empty := ""
	updated, err := svc.Update(ctx, user.ID, profiles.UpdateParams{About: &empty})

	require.NoError(t, err)
	assert.Nil(t, updated.About)
}

func TestUpdate_UploadsProfilePicture(t *testing.T) {
	svc, repo, store := newProfilesService(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "Jane Doe", "jane@example.com")
	path := tempImage(t)

	updated, err := svc.Update(ctx, user.ID, profiles.UpdateParams{
		ProfilePicture: &profiles.ImageUpload{TempPath: path, ContentType: "image/png"},
	})

	require.NoError(t, err)
	require.NotNil(t, updated.ProfilePicture)
	assert.Equal(t, "https://store.test/PROFILE_PICTURES/"+user.ID+".png", *updated.ProfilePicture)
	assert.Equal(t, "image/png", store.Objects["PROFILE_PICTURES/"+user.ID+".png"])

	// The spooled file is removed afterwards.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestUpdate_RemovesCoverPicture(t *testing.T) {
	svc, repo, store := newProfilesService(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "Jane Doe", "jane@example.com")

	_, err := svc.Update(ctx, user.ID, profiles.UpdateParams{
		CoverPicture: &profiles.ImageUpload{TempPath: tempImage(t), ContentType: "image/jpeg"},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, user.ID, profiles.UpdateParams{RemoveCoverPicture: true})

	require.NoError(t, err)
	assert.Nil(t, updated.CoverPicture)
	assert.Contains(t, store.Removed, "COVER_PICTURES/"+user.ID+".jpeg")
}

func TestUpdate_UploadFailureCleansTempFile(t *testing.T) {
	svc, repo, store := newProfilesService(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "Jane Doe", "jane@example.com")
	store.UploadErr = os.ErrPermission
	path := tempImage(t)

	_, err := svc.Update(ctx, user.ID, profiles.UpdateParams{
		ProfilePicture: &profiles.ImageUpload{TempPath: path, ContentType: "image/png"},
	})
	require.Error(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDirectory(t *testing.T) {
	svc, repo, _ := newProfilesService(t)
	ctx := context.Background()

	requester := testutil.NewTestUser(t, repo, "Jane Doe", "jane@example.com")
	smith := testutil.NewTestUser(t, repo, "John Smith", "john@example.com")
	testutil.NewTestUser(t, repo, "Mary Major", "mary@example.com")

	page, err := svc.Directory(ctx, requester.ID, 1, 50, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Len(t, page.Users, 2)

	page, err = svc.Directory(ctx, requester.ID, 1, 50, "smith")
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Users, 1)
	assert.Equal(t, smith.ID, page.Users[0].ID)
}
