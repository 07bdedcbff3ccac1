package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/folklorico-media/pkg/dancemedia"
	"github.com/tendant/folklorico-media/pkg/dancemedia/repo/memory"
)

func TestMemoryRepository_MediaOperations(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	uploader := uuid.New()

	item := &dancemedia.MediaItem{
		Title:      "Son Jarocho",
		FilePath:   "https://media.test/videos/a.mp4",
		MediaType:  dancemedia.MediaTypeVideo,
		UploaderID: uploader,
		UserID:     uploader,
	}
	require.NoError(t, repo.CreateMedia(ctx, item))
	assert.NotEqual(t, uuid.Nil, item.ID)
	assert.False(t, item.CreatedAt.IsZero())

	got, err := repo.GetMedia(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Title, got.Title)
	assert.Equal(t, uploader, got.UploaderID)

	got.Title = "mutated"
	again, err := repo.GetMedia(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Son Jarocho", again.Title)

	assert.Len(t, repo.ListMedia(ctx), 1)

	require.NoError(t, repo.DeleteMedia(ctx, item.ID))
	_, err = repo.GetMedia(ctx, item.ID)
	assert.ErrorIs(t, err, dancemedia.ErrMediaNotFound)
	assert.ErrorIs(t, repo.DeleteMedia(ctx, item.ID), dancemedia.ErrMediaNotFound)
}

func TestMemoryRepository_Profiles(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()

	admin := uuid.New()
	repo.SetProfile(admin, dancemedia.RoleAdmin)
	role, err := repo.GetProfileRole(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, dancemedia.RoleAdmin, role)

	odd := uuid.New()
	repo.SetProfile(odd, dancemedia.Role("choreographer"))
	role, err = repo.GetProfileRole(ctx, odd)
	require.NoError(t, err)
	assert.Equal(t, dancemedia.RoleDancer, role)

	_, err = repo.GetProfileRole(ctx, uuid.New())
	assert.ErrorIs(t, err, dancemedia.ErrProfileNotFound)
}

func TestMemoryRepository_FailureInjection(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	boom := errors.New("boom")

	repo.FailCreates(boom)
	assert.ErrorIs(t, repo.CreateMedia(ctx, &dancemedia.MediaItem{Title: "x"}), boom)
	repo.FailCreates(nil)

	item := &dancemedia.MediaItem{Title: "x"}
	require.NoError(t, repo.CreateMedia(ctx, item))

	repo.FailDeletes(boom)
	assert.ErrorIs(t, repo.DeleteMedia(ctx, item.ID), boom)
	_, err := repo.GetMedia(ctx, item.ID)
	assert.NoError(t, err)
}
