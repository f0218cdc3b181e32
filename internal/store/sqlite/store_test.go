package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := Open(filepath.Join(t.TempDir(), "gallery.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createTag(t *testing.T, s *Store, name string) *domain.Tag {
	t.Helper()
	tag := &domain.Tag{Name: name, Slug: name}
	require.NoError(t, s.CreateTag(context.Background(), tag))
	return tag
}

func createImage(t *testing.T, s *Store, publicID string, at time.Time, tags ...*domain.Tag) *domain.Image {
	t.Helper()
	img := &domain.Image{Title: publicID, PublicID: publicID, UploadedAt: at, Tags: tags}
	require.NoError(t, s.CreateImage(context.Background(), img))
	return img
}

func imageIDs(images []*domain.Image) []int64 {
	ids := make([]int64, len(images))
	for i, img := range images {
		ids[i] = img.ID
	}
	return ids
}

func TestImages_CreateGetDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	nature := createTag(t, s, "nature")
	city := createTag(t, s, "city")
	img := createImage(t, s, "gallery_images/abc", time.Now(), nature, city)
	require.NotZero(t, img.ID)

	got, err := s.GetImage(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, "gallery_images/abc", got.PublicID)
	assert.Equal(t, []int64{city.ID, nature.ID}, got.TagIDs(), "tags ordered by name")

	require.NoError(t, s.DeleteImage(ctx, img.ID))

	_, err = s.GetImage(ctx, img.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, s.DeleteImage(ctx, img.ID), store.ErrImageNotFound)

	// Association rows cascade with the image.
	tags, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, tags, 2)
}

func TestListImages_Ordering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := createImage(t, s, "a", base.Add(2*time.Hour))
	b := createImage(t, s, "b", base)
	c := createImage(t, s, "c", base.Add(time.Hour))
	d := createImage(t, s, "d", base) // ties with b

	newest, err := s.ListImages(ctx, store.ImageFilter{Order: store.OrderUploadedDesc})
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, c.ID, d.ID, b.ID}, imageIDs(newest))

	oldest, err := s.ListImages(ctx, store.ImageFilter{Order: store.OrderUploadedAsc})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID, d.ID, c.ID, a.ID}, imageIDs(oldest))

	byID, err := s.ListImages(ctx, store.ImageFilter{Order: store.OrderIDDesc})
	require.NoError(t, err)
	assert.Equal(t, []int64{d.ID, c.ID, b.ID, a.ID}, imageIDs(byID))

	natural, err := s.ListImages(ctx, store.ImageFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.ID, b.ID, c.ID, d.ID}, imageIDs(natural))
}

func TestListImages_TagFilterDoesNotDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	nature := createTag(t, s, "nature")
	city := createTag(t, s, "city")
	now := time.Now()
	both := createImage(t, s, "both", now, nature, city)
	createImage(t, s, "city-only", now, city)

	got, err := s.ListImages(ctx, store.ImageFilter{HasTag: true, TagID: nature.ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, both.ID, got[0].ID)
	assert.Len(t, got[0].Tags, 2, "all tags are attached, not only the filtered one")

	got, err = s.ListImages(ctx, store.ImageFilter{HasTag: true, TagID: 9999})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.ListImages(ctx, store.ImageFilter{HasTag: true})
	require.NoError(t, err)
	assert.Empty(t, got, "tag id zero matches nothing")
}

func TestCreateImage_MissingTagLeavesNoRow(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	nature := createTag(t, s, "nature")
	gone := &domain.Tag{ID: nature.ID + 100, Name: "gone"}

	img := &domain.Image{Title: "x", PublicID: "gallery/x", UploadedAt: time.Now(), Tags: []*domain.Tag{nature, gone}}
	err := s.CreateImage(ctx, img)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)

	all, err := s.ListImages(ctx, store.ImageFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "image insert is rolled back with the tag association")
}

func TestListImages_UploadedSince(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	recent := createImage(t, s, "recent", now.Add(-24*time.Hour))
	createImage(t, s, "old", now.Add(-30*24*time.Hour))

	got, err := s.ListImages(ctx, store.ImageFilter{
		Order:         store.OrderIDDesc,
		UploadedSince: now.Add(-domain.TrendingWindow),
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{recent.ID}, imageIDs(got))
}

func TestImageTags_AddRemoveIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tag := createTag(t, s, "nature")
	img := createImage(t, s, "x", time.Now())

	require.NoError(t, s.AddImageTags(ctx, img.ID, []int64{tag.ID}))
	require.NoError(t, s.AddImageTags(ctx, img.ID, []int64{tag.ID}))

	got, err := s.GetImage(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{tag.ID}, got.TagIDs())

	require.NoError(t, s.RemoveImageTag(ctx, img.ID, tag.ID))
	require.NoError(t, s.RemoveImageTag(ctx, img.ID, tag.ID))

	got, err = s.GetImage(ctx, img.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestUpdateImage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	img := createImage(t, s, "x", time.Now().Add(-time.Hour))
	img.Title = "Sunset"
	img.Touch()
	require.NoError(t, s.UpdateImage(ctx, img))

	got, err := s.GetImage(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunset", got.Title)
	assert.WithinDuration(t, img.UploadedAt, got.UploadedAt, time.Microsecond)

	assert.ErrorIs(t, s.UpdateImage(ctx, &domain.Image{ID: 404}), store.ErrNotFound)
}

func TestTags_Unique(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	createTag(t, s, "nature")
	err := s.CreateTag(ctx, &domain.Tag{Name: "nature", Slug: "nature-2"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := s.GetTagsByIDs(ctx, []int64{1, 42})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, domain.DefaultTagIcon, got[0].Icon)
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &domain.User{Username: "alice", PasswordHash: "hash", IsActive: true}
	require.NoError(t, s.CreateUser(ctx, u))
	assert.ErrorIs(t, s.CreateUser(ctx, &domain.User{Username: "alice", PasswordHash: "x"}), store.ErrUsernameTaken)

	got, err := s.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.True(t, got.LastLogin.IsZero())

	at := time.Now()
	require.NoError(t, s.UpdateUserLastLogin(ctx, u.ID, at))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.WithinDuration(t, at, got.LastLogin, time.Microsecond)

	_, err = s.GetUserByUsername(ctx, "bob")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	u := &domain.User{Username: "alice", PasswordHash: "hash", IsActive: true}
	require.NoError(t, s.CreateUser(ctx, u))

	now := time.Now().UTC()
	live := &domain.Session{ID: "live", UserID: u.ID, CreatedAt: now, LastSeenAt: now, ExpiresAt: now.Add(time.Hour), DeviceClass: "mobile"}
	dead := &domain.Session{ID: "dead", UserID: u.ID, CreatedAt: now, LastSeenAt: now, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, s.CreateSession(ctx, live))
	require.NoError(t, s.CreateSession(ctx, dead))

	got, err := s.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "mobile", got.DeviceClass)

	require.NoError(t, s.TouchSession(ctx, "live", now.Add(time.Minute)))

	n, err := s.DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetSession(ctx, "dead")
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	require.NoError(t, s.DeleteSession(ctx, "live"))
	require.NoError(t, s.DeleteSession(ctx, "live"))
}
