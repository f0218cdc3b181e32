package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/galleryapp/gallery-server/internal/domain"
	domainerrors "github.com/galleryapp/gallery-server/internal/errors"
	"github.com/galleryapp/gallery-server/internal/store"
	"github.com/galleryapp/gallery-server/internal/util"
)

// TagService orchestrates tag management. Tags are global; only
// administrators create, edit or delete them.
type TagService struct {
	store  store.Store
	search *SearchService
	logger *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(store store.Store, search *SearchService, logger *slog.Logger) *TagService {
	return &TagService{
		store:  store,
		search: search,
		logger: orDiscard(logger),
	}
}

// CreateTagRequest describes a new tag. An empty Slug is derived from Name.
type CreateTagRequest struct {
	Name string `json:"name" validate:"required,max=50"`
	Slug string `json:"slug,omitempty" validate:"omitempty,max=50"`
	Icon string `json:"icon,omitempty" validate:"omitempty,max=50"`
}

// UpdateTagRequest edits a tag. Nil fields are left unchanged. There is no
// slug field: the slug is fixed at creation.
type UpdateTagRequest struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Icon *string `json:"icon,omitempty" validate:"omitempty,max=50"`
}

// ListTags returns all tags ordered by name.
func (s *TagService) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	return s.store.ListTags(ctx)
}

// GetTag returns one tag.
func (s *TagService) GetTag(ctx context.Context, tagID int64) (*domain.Tag, error) {
	t, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, notFound(err, "Tag not found")
	}
	return t, nil
}

// CreateTag creates a tag, deriving its slug from the name when none is
// given. This is the only place a slug is ever computed.
func (s *TagService) CreateTag(ctx context.Context, req CreateTagRequest, actor *domain.User) (*domain.Tag, error) {
	if err := requireAdmin(actor, "You do not have permission to create tags"); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = util.Slugify(req.Name)
	}
	if slug == "" {
		return nil, domainerrors.Validationf("tag name %q has no characters usable in a slug", req.Name)
	}

	tag := &domain.Tag{
		Name: req.Name,
		Slug: slug,
		Icon: req.Icon,
	}
	if err := s.store.CreateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("A tag with this name or slug already exists").WithCause(err)
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}

	s.logger.Info("tag created", "tag_id", tag.ID, "slug", tag.Slug, "actor", actor.Username)
	return tag, nil
}

// UpdateTag renames or re-icons a tag. The slug is left as created.
func (s *TagService) UpdateTag(ctx context.Context, tagID int64, req UpdateTagRequest, actor *domain.User) (*domain.Tag, error) {
	if err := requireAdmin(actor, "You do not have permission to edit tags"); err != nil {
		return nil, err
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	tag, err := s.store.GetTag(ctx, tagID)
	if err != nil {
		return nil, notFound(err, "Tag not found")
	}

	renamed := false
	if req.Name != nil && *req.Name != tag.Name {
		tag.Name = *req.Name
		renamed = true
	}
	if req.Icon != nil {
		tag.Icon = *req.Icon
		if tag.Icon == "" {
			tag.Icon = domain.DefaultTagIcon
		}
	}
	tag.Touch()

	if err := s.store.UpdateTag(ctx, tag); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("A tag with this name already exists").WithCause(err)
		}
		return nil, notFound(err, "Tag not found")
	}

	if renamed {
		s.reindexTagged(ctx, tag.ID)
	}
	return tag, nil
}

// DeleteTag deletes a tag and detaches it from every image.
func (s *TagService) DeleteTag(ctx context.Context, tagID int64, actor *domain.User) error {
	if err := requireAdmin(actor, "You do not have permission to delete tags"); err != nil {
		return err
	}

	tagged, err := s.store.ListImages(ctx, store.ImageFilter{HasTag: true, TagID: tagID})
	if err != nil {
		return fmt.Errorf("list tagged images: %w", err)
	}

	if err := s.store.DeleteTag(ctx, tagID); err != nil {
		return notFound(err, "Tag not found")
	}

	s.logger.Info("tag deleted", "tag_id", tagID, "images", len(tagged), "actor", actor.Username)

	if len(tagged) > 0 {
		ids := make([]int64, len(tagged))
		for i, img := range tagged {
			ids[i] = img.ID
		}
		s.reindexImages(ctx, ids)
	}
	return nil
}

// reindexTagged refreshes search documents of images carrying tagID.
func (s *TagService) reindexTagged(ctx context.Context, tagID int64) {
	if s.search == nil {
		return
	}
	imgs, err := s.store.ListImages(ctx, store.ImageFilter{HasTag: true, TagID: tagID})
	if err != nil {
		s.logger.Warn("failed to list images for reindex", "tag_id", tagID, "error", err)
		return
	}
	s.search.IndexImages(imgs)
}

func (s *TagService) reindexImages(ctx context.Context, ids []int64) {
	if s.search == nil {
		return
	}
	imgs, err := s.store.GetImagesByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("failed to load images for reindex", "count", len(ids), "error", err)
		return
	}
	s.search.IndexImages(imgs)
}
