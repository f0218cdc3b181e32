// Package media defines the binary object store that holds uploaded images.
//
// The store is an opaque service: it assigns a public id on upload, resolves
// ids to URLs, and deletes by id. Deletion reports a raw result string so the
// caller can decide how to treat partial failures.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Delete results reported by stores. Any other string is a backend-specific
// failure the caller should surface.
const (
	ResultOK       = "ok"
	ResultNotFound = "not found"
)

// Folder is the public id prefix for gallery uploads.
const Folder = "gallery"

// ErrNotConfigured is returned by every operation of Unconfigured.
var ErrNotConfigured = errors.New("media store not configured")

// Asset describes a stored object.
type Asset struct {
	PublicID    string `json:"public_id"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Bytes       int    `json:"bytes"`
}

// Store is a remote binary store.
type Store interface {
	// Upload stores data and returns the assigned reference.
	Upload(ctx context.Context, filename string, data []byte) (*Asset, error)
	// Delete removes the object. The result is ResultOK, ResultNotFound or a
	// backend-specific string; err is reserved for transport failures.
	Delete(ctx context.Context, publicID string) (string, error)
	// URL returns the retrieval URL for a reference.
	URL(publicID string) string
}

// Unconfigured is the Store used when no media URL is set.
type Unconfigured struct{}

func (Unconfigured) Upload(context.Context, string, []byte) (*Asset, error) {
	return nil, ErrNotConfigured
}

func (Unconfigured) Delete(context.Context, string) (string, error) {
	return "", ErrNotConfigured
}

func (Unconfigured) URL(string) string { return "" }

// Retrying retries failed store calls with linear backoff.
type Retrying struct {
	next     Store
	attempts int
	backoff  time.Duration
	logger   *slog.Logger
}

// NewRetrying wraps next. attempts below 1 is treated as 1.
func NewRetrying(next Store, attempts int, backoff time.Duration, logger *slog.Logger) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	return &Retrying{next: next, attempts: attempts, backoff: backoff, logger: logger}
}

func (r *Retrying) Upload(ctx context.Context, filename string, data []byte) (*Asset, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		asset, err := r.next.Upload(ctx, filename, data)
		if err == nil {
			return asset, nil
		}
		if errors.Is(err, ErrNotConfigured) {
			return nil, err
		}
		lastErr = err
		r.logger.Warn("media upload failed",
			"filename", filename,
			"attempt", attempt,
			"error", err,
		)
		if err := r.wait(ctx, attempt); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("upload after %d attempts: %w", r.attempts, lastErr)
}

// Delete retries transport errors and unexpected results. ResultNotFound is
// final: the object is already gone.
func (r *Retrying) Delete(ctx context.Context, publicID string) (string, error) {
	var (
		result  string
		lastErr error
	)
	for attempt := 1; attempt <= r.attempts; attempt++ {
		result, lastErr = r.next.Delete(ctx, publicID)
		if errors.Is(lastErr, ErrNotConfigured) {
			return "", lastErr
		}
		if lastErr == nil && (result == ResultOK || result == ResultNotFound) {
			return result, nil
		}
		r.logger.Warn("media delete failed",
			"public_id", publicID,
			"attempt", attempt,
			"result", result,
			"error", lastErr,
		)
		if err := r.wait(ctx, attempt); err != nil {
			return "", err
		}
	}
	if lastErr != nil {
		return "", fmt.Errorf("delete after %d attempts: %w", r.attempts, lastErr)
	}
	return result, nil
}

func (r *Retrying) URL(publicID string) string {
	return r.next.URL(publicID)
}

// wait sleeps attempt*backoff unless this was the last attempt.
func (r *Retrying) wait(ctx context.Context, attempt int) error {
	if attempt >= r.attempts || r.backoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(attempt) * r.backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
