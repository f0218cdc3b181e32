package api

import (
	"github.com/galleryapp/gallery-server/internal/service"
)

// Services groups the business services used by the HTTP server.
type Services struct {
	Gallery *service.GalleryService
	Tags    *service.TagService
	Auth    *service.AuthService
	Search  *service.SearchService // nil disables the search health check
}
