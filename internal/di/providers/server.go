package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/galleryapp/gallery-server/internal/api"
	"github.com/galleryapp/gallery-server/internal/config"
	"github.com/galleryapp/gallery-server/internal/logger"
	"github.com/galleryapp/gallery-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	mediaHandle := do.MustInvoke[*MediaHandle](i)
	queueHandle := do.MustInvoke[*QueueClientHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Gallery: do.MustInvoke[*service.GalleryService](i),
		Tags:    do.MustInvoke[*service.TagService](i),
		Auth:    do.MustInvoke[*service.AuthService](i),
		Search:  do.MustInvoke[*service.SearchService](i),
	}

	deps := api.Deps{
		Store: storeHandle.Store,
		Media: mediaHandle.Handler,
	}
	if queueHandle.Configured {
		deps.Queue = queueHandle.Enqueuer
	}

	handler, err := api.NewServer(cfg, services, deps, log.Logger)
	if err != nil {
		return nil, err
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
