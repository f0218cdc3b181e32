package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/galleryapp/gallery-server/internal/auth"
	"github.com/galleryapp/gallery-server/internal/config"
	"github.com/galleryapp/gallery-server/internal/media/images"
	"github.com/galleryapp/gallery-server/internal/logger"
	"github.com/galleryapp/gallery-server/internal/service"
)

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, cfg.Auth.SessionDuration, log.Logger), nil
}

// ProvideGalleryService provides the gallery service.
func ProvideGalleryService(i do.Injector) (*service.GalleryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	mediaHandle := do.MustInvoke[*MediaHandle](i)
	processor := do.MustInvoke[*images.Processor](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	emitter := do.MustInvoke[*EventEmitterHandle](i)
	queue := do.MustInvoke[*QueueClientHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGalleryService(
		storeHandle.Store,
		mediaHandle.Store,
		processor,
		searchService,
		emitter.Emitter,
		queue.Enqueuer,
		log.Logger,
	), nil
}

// ProvideTagService provides the tag service.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchService := do.MustInvoke[*service.SearchService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTagService(storeHandle.Store, searchService, log.Logger), nil
}

// AdminBootstrap records whether the configured administrator was created.
type AdminBootstrap struct {
	Created bool
}

// ProvideAdminBootstrap creates the ADMIN_USERNAME superuser on first start.
func ProvideAdminBootstrap(i do.Injector) (*AdminBootstrap, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authService := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Admin.Enabled() {
		log.Info("No administrator configured; set ADMIN_USERNAME and ADMIN_PASSWORD to create one")
		return &AdminBootstrap{}, nil
	}

	created, err := authService.BootstrapAdmin(context.Background(), cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.Email)
	if err != nil {
		return nil, err
	}
	if !created {
		log.Info("Administrator already exists", "username", cfg.Admin.Username)
	}

	return &AdminBootstrap{Created: created}, nil
}
