package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galleryapp/gallery-server/internal/domain"
	domainerrors "github.com/galleryapp/gallery-server/internal/errors"
)

func TestTagService_CreateTag(t *testing.T) {
	ctx := context.Background()
	f := newGalleryFixture(t)
	svc := NewTagService(f.store, f.search, nil)

	tag, err := svc.CreateTag(ctx, CreateTagRequest{Name: "Nature Shots"}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "nature-shots", tag.Slug)
	assert.Equal(t, domain.DefaultTagIcon, tag.Icon)

	explicit, err := svc.CreateTag(ctx, CreateTagRequest{Name: "Streets", Slug: "urban", Icon: "fa-city"}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "urban", explicit.Slug)
	assert.Equal(t, "fa-city", explicit.Icon)

	_, err = svc.CreateTag(ctx, CreateTagRequest{Name: "Nature Shots"}, f.admin)
	assert.True(t, errors.Is(err, domainerrors.ErrAlreadyExists))

	_, err = svc.CreateTag(ctx, CreateTagRequest{Name: "!!!"}, f.admin)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation), "no slug characters")

	_, err = svc.CreateTag(ctx, CreateTagRequest{Name: ""}, f.admin)
	assert.True(t, errors.Is(err, domainerrors.ErrValidation))

	_, err = svc.CreateTag(ctx, CreateTagRequest{Name: "Sky"}, f.member)
	assert.True(t, errors.Is(err, domainerrors.ErrPermissionDenied))
}

func TestTagService_UpdateTagKeepsSlug(t *testing.T) {
	ctx := context.Background()
	f := newGalleryFixture(t)
	svc := NewTagService(f.store, f.search, nil)

	tag, err := svc.CreateTag(ctx, CreateTagRequest{Name: "Nature Shots"}, f.admin)
	require.NoError(t, err)
	img := f.upload(t, "pine", tag.ID)

	name := "Wildlife"
	updated, err := svc.UpdateTag(ctx, tag.ID, UpdateTagRequest{Name: &name}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, "Wildlife", updated.Name)
	assert.Equal(t, "nature-shots", updated.Slug, "slug is never recomputed")

	stored, err := svc.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "nature-shots", stored.Slug)

	hits, err := f.search.Search(ctx, "wildlife", 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{img.ID}, imageIDs(hits), "renamed tag is searchable")

	empty := ""
	updated, err = svc.UpdateTag(ctx, tag.ID, UpdateTagRequest{Icon: &empty}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultTagIcon, updated.Icon)

	_, err = svc.UpdateTag(ctx, 999, UpdateTagRequest{Name: &name}, f.admin)
	assert.True(t, errors.Is(err, domainerrors.ErrNotFound))
}

func TestTagService_DeleteTagDetachesImages(t *testing.T) {
	ctx := context.Background()
	f := newGalleryFixture(t)
	svc := NewTagService(f.store, f.search, nil)

	tag, err := svc.CreateTag(ctx, CreateTagRequest{Name: "Nature"}, f.admin)
	require.NoError(t, err)
	img := f.upload(t, "pine", tag.ID)

	assert.True(t, errors.Is(svc.DeleteTag(ctx, tag.ID, f.member), domainerrors.ErrPermissionDenied))
	require.NoError(t, svc.DeleteTag(ctx, tag.ID, f.admin))

	got, err := f.svc.GetImage(ctx, img.ID)
	require.NoError(t, err, "image survives tag deletion")
	assert.Empty(t, got.Tags)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.Empty(t, tags)

	assert.True(t, errors.Is(svc.DeleteTag(ctx, tag.ID, f.admin), domainerrors.ErrNotFound))
}
