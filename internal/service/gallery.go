package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/galleryapp/gallery-server/internal/domain"
	domainerrors "github.com/galleryapp/gallery-server/internal/errors"
	"github.com/galleryapp/gallery-server/internal/events"
	"github.com/galleryapp/gallery-server/internal/media"
	"github.com/galleryapp/gallery-server/internal/media/images"
	"github.com/galleryapp/gallery-server/internal/queue"
	"github.com/galleryapp/gallery-server/internal/store"
)

// Sort tokens accepted by ListImages.
const (
	SortNewest   = "newest"
	SortOldest   = "oldest"
	SortTrending = "trending"
)

// CategoryAll disables the tag filter.
const CategoryAll = "all"

// ErrNoFile is returned by Upload when no bytes were submitted.
var ErrNoFile = domainerrors.Validation("no file")

// GalleryService is the application core: listing, upload, deletion and
// tagging of images.
type GalleryService struct {
	store     store.Store
	media     media.Store
	processor *images.Processor // nil disables derived metadata
	search    *SearchService
	events    events.Emitter
	queue     queue.Enqueuer
	logger    *slog.Logger
}

// NewGalleryService creates a new gallery service. processor and search may
// be nil.
func NewGalleryService(
	store store.Store,
	mediaStore media.Store,
	processor *images.Processor,
	search *SearchService,
	emitter events.Emitter,
	enqueuer queue.Enqueuer,
	logger *slog.Logger,
) *GalleryService {
	logger = orDiscard(logger)
	if emitter == nil {
		emitter = events.Noop{Logger: logger}
	}
	if enqueuer == nil {
		enqueuer = queue.Noop{Logger: logger}
	}
	return &GalleryService{
		store:     store,
		media:     mediaStore,
		processor: processor,
		search:    search,
		events:    emitter,
		queue:     enqueuer,
		logger:    logger,
	}
}

// ListImagesRequest selects the ordering and filter of a listing.
type ListImagesRequest struct {
	Sort     string // newest (default), oldest, trending; anything else leaves rows unordered
	Category string // "all", empty, or a tag id
	Now      time.Time
}

// ListImagesResult is a listing plus every tag, for the filter menu.
type ListImagesResult struct {
	Images []*domain.Image `json:"images"`
	Tags   []*domain.Tag   `json:"tags"`
}

// ListImages returns the gallery listing. It never fails on unknown sort
// tokens or unparseable categories; those are simply not applied.
func (s *GalleryService) ListImages(ctx context.Context, req ListImagesRequest) (*ListImagesResult, error) {
	filter := store.ImageFilter{}

	switch req.Sort {
	case "", SortNewest:
		filter.Order = store.OrderUploadedDesc
	case SortOldest:
		filter.Order = store.OrderUploadedAsc
	case SortTrending:
		now := req.Now
		if now.IsZero() {
			now = time.Now()
		}
		filter.Order = store.OrderIDDesc
		filter.UploadedSince = now.Add(-domain.TrendingWindow)
	default:
		filter.Order = store.OrderNone
	}

	if c := strings.TrimSpace(req.Category); c != "" && c != CategoryAll {
		if tagID, err := strconv.ParseInt(c, 10, 64); err == nil {
			filter.HasTag, filter.TagID = true, tagID
		}
	}

	imgs, err := s.store.ListImages(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	return &ListImagesResult{Images: imgs, Tags: tags}, nil
}

// GetImage returns one image with its tags.
func (s *GalleryService) GetImage(ctx context.Context, imageID int64) (*domain.Image, error) {
	img, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, notFound(err, "Image not found")
	}
	return img, nil
}

// UploadRequest is a new image submission.
type UploadRequest struct {
	Title    string  `form:"title" validate:"max=100"`
	Filename string  `form:"-"`
	Data     []byte  `form:"-"`
	TagIDs   []int64 `form:"tags"`
}

// Upload stores the bytes in the media store, then records the image.
// Unknown tag ids are ignored.
func (s *GalleryService) Upload(ctx context.Context, req UploadRequest) (*domain.Image, error) {
	if len(req.Data) == 0 {
		return nil, ErrNoFile
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	asset, err := s.media.Upload(ctx, req.Filename, req.Data)
	if err != nil {
		return nil, mediaError("upload", err)
	}

	img := &domain.Image{
		Title:    req.Title,
		PublicID: asset.PublicID,
	}
	s.deriveMetadata(ctx, img, req.Data)

	if len(req.TagIDs) > 0 {
		tags, err := s.store.GetTagsByIDs(ctx, dedupe(req.TagIDs))
		if err != nil {
			s.discardAssets(ctx, img)
			return nil, fmt.Errorf("resolve tags: %w", err)
		}
		img.Tags = tags
	}

	if err := s.store.CreateImage(ctx, img); err != nil {
		s.discardAssets(ctx, img)
		return nil, fmt.Errorf("create image: %w", err)
	}

	s.logger.Info("image uploaded",
		"image_id", img.ID,
		"public_id", img.PublicID,
		"bytes", len(req.Data),
		"tags", len(img.Tags),
	)

	s.search.IndexImage(img)
	emit(ctx, s.events, s.logger, events.Event{Type: events.TypeImageUploaded, ImageID: img.ID})

	return img, nil
}

// deriveMetadata fills dimensions, blurhash and thumbnail. Failures are
// logged; an image the decoder cannot read is still a valid upload.
func (s *GalleryService) deriveMetadata(ctx context.Context, img *domain.Image, data []byte) {
	if s.processor == nil {
		return
	}

	res, err := s.processor.Process(ctx, data)
	if err != nil {
		s.logger.Warn("image processing failed", "public_id", img.PublicID, "error", err)
		return
	}
	img.Width = res.Width
	img.Height = res.Height
	img.BlurHash = res.BlurHash

	if len(res.Thumbnail) == 0 {
		return
	}
	thumb, err := s.media.Upload(ctx, "thumbnail.jpg", res.Thumbnail)
	if err != nil {
		s.logger.Warn("thumbnail upload failed", "public_id", img.PublicID, "error", err)
		return
	}
	img.ThumbnailID = thumb.PublicID
}

// discardAssets removes media objects of an image that was never recorded.
func (s *GalleryService) discardAssets(ctx context.Context, img *domain.Image) {
	for _, publicID := range []string{img.PublicID, img.ThumbnailID} {
		if publicID == "" {
			continue
		}
		if _, err := s.media.Delete(ctx, publicID); err != nil {
			s.logger.Warn("failed to discard orphaned media", "public_id", publicID, "error", err)
		}
	}
}

// DeleteResult reports a completed deletion. Warning is non-empty when the
// record was removed but the media service reported something other than
// "ok" or "not found".
type DeleteResult struct {
	Warning string `json:"warning,omitempty"`
}

// DeleteImage removes an image from the media store and then its record.
// Only administrators may delete.
func (s *GalleryService) DeleteImage(ctx context.Context, imageID int64, actor *domain.User) (*DeleteResult, error) {
	if err := requireAdmin(actor, "You do not have permission to delete images"); err != nil {
		return nil, err
	}

	img, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, notFound(err, "Image not found")
	}

	result, err := s.media.Delete(ctx, img.PublicID)
	if err != nil {
		return nil, mediaError("delete", err)
	}

	out := &DeleteResult{}
	switch result {
	case media.ResultOK, media.ResultNotFound:
	default:
		out.Warning = fmt.Sprintf("Image deleted, but the media service reported: %s", result)
		s.logger.Warn("media delete returned unexpected result",
			"image_id", img.ID,
			"public_id", img.PublicID,
			"result", result,
		)
		if _, err := s.queue.EnqueueMediaDelete(ctx, img.PublicID); err != nil {
			s.logger.Error("failed to enqueue media delete", "public_id", img.PublicID, "error", err)
		}
	}

	if img.ThumbnailID != "" {
		if res, err := s.media.Delete(ctx, img.ThumbnailID); err != nil || (res != media.ResultOK && res != media.ResultNotFound) {
			s.logger.Warn("thumbnail delete failed", "public_id", img.ThumbnailID, "result", res, "error", err)
		}
	}

	if err := s.store.DeleteImage(ctx, img.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		// The media object is gone; have the worker remove the record later.
		s.logger.Error("metadata delete failed after media delete", "image_id", img.ID, "error", err)
		if _, qerr := s.queue.EnqueueImagePurge(ctx, img.ID); qerr != nil {
			s.logger.Error("failed to enqueue image purge", "image_id", img.ID, "error", qerr)
		}
		return nil, fmt.Errorf("delete image %d: %w", img.ID, err)
	}

	s.logger.Info("image deleted", "image_id", img.ID, "public_id", img.PublicID, "actor", actor.Username)

	s.search.RemoveImage(img.ID)
	emit(ctx, s.events, s.logger, events.Event{Type: events.TypeImageDeleted, ImageID: img.ID})

	return out, nil
}

// PurgeImage removes an image record whose media is already gone. A missing
// record counts as purged.
func (s *GalleryService) PurgeImage(ctx context.Context, imageID int64) error {
	if err := s.store.DeleteImage(ctx, imageID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("purge image %d: %w", imageID, err)
	}
	s.search.RemoveImage(imageID)
	return nil
}

// Toggle actions.
const (
	ActionAdd    = "add"
	ActionRemove = "remove"
)

// ToggleTagRequest attaches or detaches one tag.
type ToggleTagRequest struct {
	ImageID int64  `json:"image_id"`
	TagID   int64  `json:"tag_id"`
	Action  string `json:"action"`
}

// ToggleTag adds or removes a tag on an image. Both directions are
// idempotent. Only administrators may retag.
func (s *GalleryService) ToggleTag(ctx context.Context, req ToggleTagRequest, actor *domain.User) error {
	if err := requireAdmin(actor, "You do not have permission to edit tags"); err != nil {
		return err
	}

	if _, err := s.store.GetImage(ctx, req.ImageID); err != nil {
		return notFound(err, "Image not found")
	}
	if _, err := s.store.GetTag(ctx, req.TagID); err != nil {
		return notFound(err, "Tag not found")
	}

	switch req.Action {
	case ActionAdd:
		if err := s.store.AddImageTags(ctx, req.ImageID, []int64{req.TagID}); err != nil {
			return fmt.Errorf("add tag: %w", err)
		}
	case ActionRemove:
		if err := s.store.RemoveImageTag(ctx, req.ImageID, req.TagID); err != nil {
			return fmt.Errorf("remove tag: %w", err)
		}
	default:
		return domainerrors.Validation("Invalid action")
	}

	if img, err := s.store.GetImage(ctx, req.ImageID); err == nil {
		s.search.IndexImage(img)
	}
	emit(ctx, s.events, s.logger, events.Event{
		Type:    events.TypeTagToggled,
		ImageID: req.ImageID,
		TagID:   req.TagID,
		Action:  req.Action,
	})

	return nil
}

// UpdateImageRequest edits an image. Nil fields are left unchanged.
type UpdateImageRequest struct {
	Title *string `json:"title,omitempty" validate:"omitempty,max=100"`
}

// UpdateImage edits an image's title. Every update bumps UploadedAt.
func (s *GalleryService) UpdateImage(ctx context.Context, imageID int64, req UpdateImageRequest, actor *domain.User) (*domain.Image, error) {
	if err := requireAdmin(actor, "You do not have permission to edit images"); err != nil {
		return nil, err
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	img, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, notFound(err, "Image not found")
	}

	if req.Title != nil {
		img.Title = *req.Title
	}
	img.Touch()

	if err := s.store.UpdateImage(ctx, img); err != nil {
		return nil, notFound(err, "Image not found")
	}

	s.search.IndexImage(img)
	emit(ctx, s.events, s.logger, events.Event{Type: events.TypeImageUpdated, ImageID: img.ID})

	return img, nil
}

// Search returns images whose title or tags match q.
func (s *GalleryService) Search(ctx context.Context, q string, limit int) ([]*domain.Image, error) {
	return s.search.Search(ctx, q, limit)
}

// MediaURL resolves a media reference to a retrieval URL.
func (s *GalleryService) MediaURL(publicID string) string {
	if publicID == "" {
		return ""
	}
	return s.media.URL(publicID)
}

func mediaError(op string, err error) error {
	if errors.Is(err, media.ErrNotConfigured) {
		return domainerrors.Unavailable("media store not configured").WithCause(err)
	}
	return fmt.Errorf("media %s: %w", op, err)
}

func dedupe(ids []int64) []int64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}
