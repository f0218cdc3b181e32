// Package store defines the gallery's persistence interface. Implementations
// live in the sqlite and postgres subpackages.
package store

import (
	"context"
	"time"

	"github.com/galleryapp/gallery-server/internal/domain"
)

// ImageOrder selects the ORDER BY clause of an image listing.
type ImageOrder int

const (
	// OrderNone applies no ordering; rows come back in the table's natural order.
	OrderNone ImageOrder = iota
	// OrderUploadedDesc orders by upload time, newest first (ties by id desc).
	OrderUploadedDesc
	// OrderUploadedAsc orders by upload time, oldest first (ties by id asc).
	OrderUploadedAsc
	// OrderIDDesc orders by identifier, highest first.
	OrderIDDesc
)

// ImageFilter narrows and orders ListImages.
type ImageFilter struct {
	Order ImageOrder
	// HasTag restricts to images carrying TagID. Any id, zero included, is
	// matched literally when set.
	HasTag bool
	TagID  int64
	// UploadedSince restricts to images uploaded at or after this instant.
	// The zero time means no restriction.
	UploadedSince time.Time
}

// Store defines all persistence operations.
// Every method returning images populates Image.Tags.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	// Images
	CreateImage(ctx context.Context, img *domain.Image) error
	GetImage(ctx context.Context, id int64) (*domain.Image, error)
	GetImagesByIDs(ctx context.Context, ids []int64) ([]*domain.Image, error)
	UpdateImage(ctx context.Context, img *domain.Image) error
	DeleteImage(ctx context.Context, id int64) error
	ListImages(ctx context.Context, filter ImageFilter) ([]*domain.Image, error)

	// Image/tag association. Adding an existing pair and removing a missing
	// pair are both no-ops.
	AddImageTags(ctx context.Context, imageID int64, tagIDs []int64) error
	RemoveImageTag(ctx context.Context, imageID, tagID int64) error

	// Tags
	CreateTag(ctx context.Context, tag *domain.Tag) error
	GetTag(ctx context.Context, id int64) (*domain.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []int64) ([]*domain.Tag, error)
	UpdateTag(ctx context.Context, tag *domain.Tag) error
	DeleteTag(ctx context.Context, id int64) error
	ListTags(ctx context.Context) ([]*domain.Tag, error)

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error

	// Sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	TouchSession(ctx context.Context, id string, at time.Time) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
}
