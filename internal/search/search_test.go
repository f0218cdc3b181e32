package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galleryapp/gallery-server/internal/domain"
)

func setupTestIndex(t *testing.T) *Index {
	t.Helper()

	index, err := Open(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return index
}

func hitIDs(hits []Hit) []int64 {
	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ImageID
	}
	return ids
}

func TestIndex_SearchTitlesAndTags(t *testing.T) {
	index := setupTestIndex(t)
	now := time.Now()

	nature := &domain.Tag{ID: 1, Name: "Nature Shots", Slug: "nature-shots"}
	require.NoError(t, index.IndexImages([]*Document{
		NewDocument(&domain.Image{ID: 1, Title: "Mountain sunsets", UploadedAt: now, Tags: []*domain.Tag{nature}}),
		NewDocument(&domain.Image{ID: 2, Title: "City lights", UploadedAt: now}),
	}))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	hits, err := index.Search(context.Background(), "sunset", 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, hitIDs(hits), "stemmed title match")

	hits, err = index.Search(context.Background(), "nature-shots", 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, hitIDs(hits), "exact slug match")

	hits, err = index.Search(context.Background(), "cit", 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, hitIDs(hits), "title prefix match")

	hits, err = index.Search(context.Background(), "   ", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_DeleteAndRebuild(t *testing.T) {
	index := setupTestIndex(t)

	require.NoError(t, index.IndexImage(NewDocument(&domain.Image{ID: 7, Title: "Harbour"})))
	require.NoError(t, index.DeleteImage(7))
	require.NoError(t, index.DeleteImage(404))

	hits, err := index.Search(context.Background(), "harbour", 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	require.NoError(t, index.IndexImage(NewDocument(&domain.Image{ID: 8, Title: "Harbour"})))
	require.NoError(t, index.Rebuild())

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestOpen_ReopensExistingIndex(t *testing.T) {
	dir := t.TempDir()

	index, err := Open(Options{DataPath: dir})
	require.NoError(t, err)
	require.NoError(t, index.IndexImage(NewDocument(&domain.Image{ID: 1, Title: "Dunes"})))
	require.NoError(t, index.Close())

	index, err = Open(Options{DataPath: dir})
	require.NoError(t, err)
	defer index.Close()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}
