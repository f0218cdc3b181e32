// Package service holds the gallery's use cases. Services orchestrate the
// metadata store, the media store, search and events; handlers stay thin.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/galleryapp/gallery-server/internal/domain"
	domainerrors "github.com/galleryapp/gallery-server/internal/errors"
	"github.com/galleryapp/gallery-server/internal/events"
	"github.com/galleryapp/gallery-server/internal/store"
	"github.com/galleryapp/gallery-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// requireAdmin is the capability check at the boundary of every mutating
// operation.
func requireAdmin(actor *domain.User, msg string) error {
	if !actor.IsAdmin() {
		return domainerrors.PermissionDenied(msg)
	}
	return nil
}

// emit publishes an event. Delivery failures are logged and never fail the
// operation that produced the event.
func emit(ctx context.Context, emitter events.Emitter, logger *slog.Logger, e events.Event) {
	if emitter == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if err := emitter.Emit(ctx, e); err != nil {
		logger.Warn("failed to emit event", "type", e.Type, "image_id", e.ImageID, "error", err)
	}
}

// notFound maps store not-found errors to a domain NotFound with msg.
// Other errors pass through unchanged.
func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound(msg).WithCause(err)
	}
	return err
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
