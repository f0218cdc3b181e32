package providers

import (
	"net/http"

	"github.com/samber/do/v2"

	"github.com/galleryapp/gallery-server/internal/config"
	"github.com/galleryapp/gallery-server/internal/logger"
	"github.com/galleryapp/gallery-server/internal/media"
	"github.com/galleryapp/gallery-server/internal/media/images"
	"github.com/galleryapp/gallery-server/internal/media/local"
)

// MediaHandle holds the media store and, for the local backend, the handler
// serving /media/*.
type MediaHandle struct {
	Store   media.Store
	Handler http.Handler // nil when the backend serves its own URLs
}

// ProvideMedia provides the media store. An empty MEDIA_URL leaves uploads
// and deletes failing with media.ErrNotConfigured; the gallery still lists.
func ProvideMedia(i do.Injector) (*MediaHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Media.URL == "" {
		log.Warn("MEDIA_URL is empty; uploads and deletes are disabled")
		return &MediaHandle{Store: media.Unconfigured{}}, nil
	}

	storage, err := local.FromURL(cfg.Media.URL)
	if err != nil {
		return nil, err
	}

	log.Info("Media storage initialized", "root", storage.Root())

	return &MediaHandle{
		Store:   media.NewRetrying(storage, mediaRetryAttempts, mediaRetryBackoff, log.Logger),
		Handler: storage,
	}, nil
}

// ProvideImageProcessor provides the processor deriving dimensions,
// BlurHash and thumbnails for uploads.
func ProvideImageProcessor(i do.Injector) (*images.Processor, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return images.NewProcessor(0, 0, log.Logger), nil
}
