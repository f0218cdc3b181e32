package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/galleryapp/gallery-server/internal/config"
	"github.com/galleryapp/gallery-server/internal/logger"
	"github.com/galleryapp/gallery-server/internal/store"
	"github.com/galleryapp/gallery-server/internal/store/postgres"
	"github.com/galleryapp/gallery-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the metadata store: PostgreSQL for postgres:// URLs,
// SQLite otherwise. Migrations run on open.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Database.IsPostgres() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		db, err := postgres.Open(ctx, cfg.Database.URL, log.Logger)
		if err != nil {
			return nil, err
		}
		log.Info("Database initialized", "driver", "postgres")
		return &StoreHandle{Store: db}, nil
	}

	db, err := sqlite.Open(cfg.Database.URL, log.Logger)
	if err != nil {
		return nil, err
	}
	log.Info("Database initialized", "driver", "sqlite", "path", cfg.Database.URL)

	return &StoreHandle{Store: db}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
