package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/events"
	"github.com/galleryapp/gallery-server/internal/media"
	"github.com/galleryapp/gallery-server/internal/search"
	"github.com/galleryapp/gallery-server/internal/store"
	"github.com/galleryapp/gallery-server/internal/store/sqlite"
)

// fakeMedia is an in-memory media store with scripted delete outcomes.
type fakeMedia struct {
	mu           sync.Mutex
	objects      map[string][]byte
	next         int
	uploadErr    error
	deleteErr    error
	deleteResult string // overrides the natural outcome when set
	deleted      []string
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: make(map[string][]byte)}
}

func (f *fakeMedia) Upload(_ context.Context, _ string, data []byte) (*media.Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.next++
	publicID := fmt.Sprintf("%s/obj%03d", media.Folder, f.next)
	f.objects[publicID] = data
	return &media.Asset{PublicID: publicID, URL: f.url(publicID), Bytes: len(data)}, nil
}

func (f *fakeMedia) Delete(_ context.Context, publicID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return "", f.deleteErr
	}
	f.deleted = append(f.deleted, publicID)
	if f.deleteResult != "" {
		return f.deleteResult, nil
	}
	if _, ok := f.objects[publicID]; !ok {
		return media.ResultNotFound, nil
	}
	delete(f.objects, publicID)
	return media.ResultOK, nil
}

func (f *fakeMedia) URL(publicID string) string {
	return f.url(publicID)
}

func (f *fakeMedia) url(publicID string) string { return "/media/" + publicID }

func (f *fakeMedia) has(publicID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[publicID]
	return ok
}

// recordingEmitter captures emitted events.
type recordingEmitter struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingEmitter) Emit(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingEmitter) Close() error { return nil }

func (r *recordingEmitter) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// recordingQueue captures enqueued tasks.
type recordingQueue struct {
	mu           sync.Mutex
	mediaDeletes []string
	imagePurges  []int64
}

func (q *recordingQueue) EnqueueMediaDelete(_ context.Context, publicID string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.mediaDeletes = append(q.mediaDeletes, publicID)
	return "task-media", nil
}

func (q *recordingQueue) EnqueueImagePurge(_ context.Context, imageID int64) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.imagePurges = append(q.imagePurges, imageID)
	return "task-purge", nil
}

func (q *recordingQueue) Ping(context.Context) error { return nil }
func (q *recordingQueue) Close() error               { return nil }

// failingDeleteStore fails DeleteImage to exercise compensation.
type failingDeleteStore struct {
	store.Store
}

func (failingDeleteStore) DeleteImage(context.Context, int64) error {
	return errors.New("database is locked")
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(t.TempDir()+"/gallery.db", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func newTestSearch(t *testing.T, s store.Store) *SearchService {
	t.Helper()
	index, err := search.Open(search.Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	return NewSearchService(index, s, nil)
}

type galleryFixture struct {
	svc    *GalleryService
	store  store.Store
	media  *fakeMedia
	events *recordingEmitter
	queue  *recordingQueue
	search *SearchService
	admin  *domain.User
	member *domain.User
}

func newGalleryFixture(t *testing.T) *galleryFixture {
	t.Helper()
	s := newTestStore(t)
	f := &galleryFixture{
		store:  s,
		media:  newFakeMedia(),
		events: &recordingEmitter{},
		queue:  &recordingQueue{},
		search: newTestSearch(t, s),
		admin:  &domain.User{ID: 1, Username: "admin", IsActive: true, IsSuperuser: true},
		member: &domain.User{ID: 2, Username: "member", IsActive: true},
	}
	f.svc = NewGalleryService(s, f.media, nil, f.search, f.events, f.queue, nil)
	return f
}

func (f *galleryFixture) tag(t *testing.T, name string) *domain.Tag {
	t.Helper()
	tag := &domain.Tag{Name: name, Slug: name}
	require.NoError(t, f.store.CreateTag(context.Background(), tag))
	return tag
}

func (f *galleryFixture) upload(t *testing.T, title string, tagIDs ...int64) *domain.Image {
	t.Helper()
	img, err := f.svc.Upload(context.Background(), UploadRequest{
		Title:    title,
		Filename: title + ".bin",
		Data:     []byte("bytes of " + title),
		TagIDs:   tagIDs,
	})
	require.NoError(t, err)
	return img
}

// backdate rewrites an image's upload time directly in the store.
func (f *galleryFixture) backdate(t *testing.T, img *domain.Image, at time.Time) {
	t.Helper()
	img.UploadedAt = at
	require.NoError(t, f.store.UpdateImage(context.Background(), img))
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imageIDs(imgs []*domain.Image) []int64 {
	ids := make([]int64, len(imgs))
	for i, img := range imgs {
		ids[i] = img.ID
	}
	return ids
}
