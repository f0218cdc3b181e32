package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/search"
	"github.com/galleryapp/gallery-server/internal/store"
)

// SearchService bridges the search index with the metadata store. A nil
// *SearchService is valid and does nothing, so callers need no guards.
type SearchService struct {
	index  *search.Index
	store  store.Store
	logger *slog.Logger
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.Index, store store.Store, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  store,
		logger: orDiscard(logger),
	}
}

// Search returns images whose title or tags match q, best match first.
func (s *SearchService) Search(ctx context.Context, q string, limit int) ([]*domain.Image, error) {
	if s == nil {
		return []*domain.Image{}, nil
	}

	hits, err := s.index.Search(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	if len(hits) == 0 {
		return []*domain.Image{}, nil
	}

	ids := make([]int64, len(hits))
	for i, h := range hits {
		ids[i] = h.ImageID
	}
	imgs, err := s.store.GetImagesByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load search hits: %w", err)
	}

	// Keep the index's ranking; drop hits whose rows are gone.
	byID := make(map[int64]*domain.Image, len(imgs))
	for _, img := range imgs {
		byID[img.ID] = img
	}
	out := make([]*domain.Image, 0, len(imgs))
	for _, id := range ids {
		if img, ok := byID[id]; ok {
			out = append(out, img)
		}
	}
	return out, nil
}

// IndexImage indexes or re-indexes one image. Failures are logged.
func (s *SearchService) IndexImage(img *domain.Image) {
	if s == nil || img == nil {
		return
	}
	if err := s.index.IndexImage(search.NewDocument(img)); err != nil {
		s.logger.Warn("failed to index image", "image_id", img.ID, "error", err)
		return
	}
	s.logger.Debug("indexed image", "image_id", img.ID, "title", img.Title)
}

// IndexImages re-indexes a batch of images. Failures are logged.
func (s *SearchService) IndexImages(imgs []*domain.Image) {
	if s == nil || len(imgs) == 0 {
		return
	}
	docs := make([]*search.Document, len(imgs))
	for i, img := range imgs {
		docs[i] = search.NewDocument(img)
	}
	if err := s.index.IndexImages(docs); err != nil {
		s.logger.Warn("failed to index images", "count", len(docs), "error", err)
	}
}

// RemoveImage drops an image from the index. Failures are logged.
func (s *SearchService) RemoveImage(imageID int64) {
	if s == nil {
		return
	}
	if err := s.index.DeleteImage(imageID); err != nil {
		s.logger.Warn("failed to remove image from index", "image_id", imageID, "error", err)
	}
}

// RebuildIfEmpty indexes every stored image when the index holds no
// documents, e.g. on first start or after the index directory was removed.
// It returns the number of images indexed.
func (s *SearchService) RebuildIfEmpty(ctx context.Context) (int, error) {
	if s == nil {
		return 0, nil
	}

	count, err := s.index.DocumentCount()
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	if count > 0 {
		return 0, nil
	}
	return s.Reindex(ctx)
}

// Reindex drops the index and indexes every stored image.
func (s *SearchService) Reindex(ctx context.Context) (int, error) {
	if s == nil {
		return 0, nil
	}

	if err := s.index.Rebuild(); err != nil {
		return 0, err
	}

	imgs, err := s.store.ListImages(ctx, store.ImageFilter{})
	if err != nil {
		return 0, fmt.Errorf("list images: %w", err)
	}

	docs := make([]*search.Document, len(imgs))
	for i, img := range imgs {
		docs[i] = search.NewDocument(img)
	}
	if err := s.index.IndexImages(docs); err != nil {
		return 0, fmt.Errorf("index images: %w", err)
	}

	s.logger.Info("search index rebuilt", "images", len(docs))
	return len(docs), nil
}

// DocumentCount reports how many images the index holds.
func (s *SearchService) DocumentCount() (uint64, error) {
	if s == nil {
		return 0, nil
	}
	return s.index.DocumentCount()
}
