// Package events publishes gallery domain events.
package events

import (
	"context"
	"log/slog"
	"time"
)

// Event types.
const (
	TypeImageUploaded = "image.uploaded"
	TypeImageUpdated  = "image.updated"
	TypeImageDeleted  = "image.deleted"
	TypeTagToggled    = "tag.toggled"
)

// Event is the message body published for every mutation.
type Event struct {
	Type    string    `json:"type"`
	ImageID int64     `json:"image_id,omitempty"`
	TagID   int64     `json:"tag_id,omitempty"`
	Action  string    `json:"action,omitempty"`
	At      time.Time `json:"at"`
}

// Emitter publishes events. Implementations must be safe for concurrent use.
type Emitter interface {
	Emit(ctx context.Context, e Event) error
	Close() error
}

// Noop drops events, logging them at debug level.
type Noop struct {
	Logger *slog.Logger
}

func (n Noop) Emit(_ context.Context, e Event) error {
	if n.Logger != nil {
		n.Logger.Debug("event", "type", e.Type, "image_id", e.ImageID, "tag_id", e.TagID)
	}
	return nil
}

func (Noop) Close() error { return nil }
