package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/galleryapp/gallery-server/internal/domain"
	"github.com/galleryapp/gallery-server/internal/search"
	"github.com/galleryapp/gallery-server/internal/service"
)

func (s *Server) registerImageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listImages",
		Method:      http.MethodGet,
		Path:        "/api/v1/images",
		Summary:     "List images",
		Description: "Returns the gallery listing with sort and tag filter, plus all tags",
		Tags:        []string{"Images"},
	}, s.handleListImages)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchImages",
		Method:      http.MethodGet,
		Path:        "/api/v1/images/search",
		Summary:     "Search images",
		Description: "Full-text search over image titles and tag names",
		Tags:        []string{"Images"},
	}, s.handleSearchImages)

	huma.Register(s.api, huma.Operation{
		OperationID: "getImage",
		Method:      http.MethodGet,
		Path:        "/api/v1/images/{id}",
		Summary:     "Get image",
		Description: "Returns an image with its tags",
		Tags:        []string{"Images"},
	}, s.handleGetImage)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateImage",
		Method:      http.MethodPatch,
		Path:        "/api/v1/images/{id}",
		Summary:     "Update image",
		Description: "Updates an image's title (admin only). Bumps uploaded_at.",
		Tags:        []string{"Images"},
		Security:    []map[string][]string{{"session": {}}},
	}, s.handleUpdateImage)
}

// === DTOs ===

// ImageResponse contains image data in API responses.
type ImageResponse struct {
	ID           int64         `json:"id" doc:"Image ID"`
	Title        string        `json:"title" doc:"Image title"`
	PublicID     string        `json:"public_id" doc:"Media store reference"`
	URL          string        `json:"url" doc:"Retrieval URL"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty" doc:"Thumbnail URL"`
	UploadedAt   time.Time     `json:"uploaded_at" doc:"Upload (or last update) time"`
	Width        int           `json:"width,omitempty" doc:"Width in pixels"`
	Height       int           `json:"height,omitempty" doc:"Height in pixels"`
	BlurHash     string        `json:"blurhash,omitempty" doc:"BlurHash placeholder"`
	Tags         []TagResponse `json:"tags" doc:"Tags on this image"`
}

// ListImagesInput contains parameters for listing images.
type ListImagesInput struct {
	Sort     string `query:"sort" doc:"newest (default), oldest or trending"`
	Category string `query:"category" doc:"all, or a tag ID"`
}

// ListImagesResponse contains a listing and every tag.
type ListImagesResponse struct {
	Images []ImageResponse `json:"images" doc:"Images"`
	Tags   []TagResponse   `json:"tags" doc:"All tags, ordered by name"`
}

// ListImagesOutput wraps the listing for Huma.
type ListImagesOutput struct {
	Body ListImagesResponse
}

// SearchImagesInput contains search parameters.
type SearchImagesInput struct {
	Query string `query:"q" doc:"Search text"`
	Limit int    `query:"limit" minimum:"0" maximum:"200" doc:"Maximum results (default 50)"`
}

// SearchImagesOutput wraps search results for Huma.
type SearchImagesOutput struct {
	Body struct {
		Images []ImageResponse `json:"images" doc:"Matching images, best first"`
	}
}

// GetImageInput contains parameters for getting an image.
type GetImageInput struct {
	ID int64 `path:"id" doc:"Image ID"`
}

// ImageOutput wraps one image for Huma.
type ImageOutput struct {
	Body ImageResponse
}

// UpdateImageInput wraps an image update for Huma.
type UpdateImageInput struct {
	ID   int64 `path:"id" doc:"Image ID"`
	Body struct {
		Title *string `json:"title,omitempty" maxLength:"100" doc:"New title"`
	}
}

// === Handlers ===

func (s *Server) handleListImages(ctx context.Context, input *ListImagesInput) (*ListImagesOutput, error) {
	res, err := s.services.Gallery.ListImages(ctx, service.ListImagesRequest{
		Sort:     input.Sort,
		Category: input.Category,
		Now:      time.Now(),
	})
	if err != nil {
		return nil, err
	}

	return &ListImagesOutput{Body: ListImagesResponse{
		Images: s.imageResponses(res.Images),
		Tags:   tagResponses(res.Tags),
	}}, nil
}

func (s *Server) handleSearchImages(ctx context.Context, input *SearchImagesInput) (*SearchImagesOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = search.DefaultLimit
	}

	imgs, err := s.services.Gallery.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, err
	}

	out := &SearchImagesOutput{}
	out.Body.Images = s.imageResponses(imgs)
	return out, nil
}

func (s *Server) handleGetImage(ctx context.Context, input *GetImageInput) (*ImageOutput, error) {
	img, err := s.services.Gallery.GetImage(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ImageOutput{Body: s.imageResponse(img)}, nil
}

func (s *Server) handleUpdateImage(ctx context.Context, input *UpdateImageInput) (*ImageOutput, error) {
	user, err := RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	img, err := s.services.Gallery.UpdateImage(ctx, input.ID, service.UpdateImageRequest{
		Title: input.Body.Title,
	}, user)
	if err != nil {
		return nil, err
	}
	return &ImageOutput{Body: s.imageResponse(img)}, nil
}

// === Helpers ===

func (s *Server) imageResponse(img *domain.Image) ImageResponse {
	resp := ImageResponse{
		ID:         img.ID,
		Title:      img.Title,
		PublicID:   img.PublicID,
		URL:        s.services.Gallery.MediaURL(img.PublicID),
		UploadedAt: img.UploadedAt,
		Width:      img.Width,
		Height:     img.Height,
		BlurHash:   img.BlurHash,
		Tags:       tagResponses(img.Tags),
	}
	if img.ThumbnailID != "" {
		resp.ThumbnailURL = s.services.Gallery.MediaURL(img.ThumbnailID)
	}
	return resp
}

func (s *Server) imageResponses(imgs []*domain.Image) []ImageResponse {
	out := make([]ImageResponse, len(imgs))
	for i, img := range imgs {
		out[i] = s.imageResponse(img)
	}
	return out
}
