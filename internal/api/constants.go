package api

// Cookie names.
const (
	SessionCookieName = "gallery_session"
	FlashCookieName   = "gallery_flash"
)

// API limits and constants.
const (
	// DefaultMaxUploadSize bounds upload request bodies (10 MiB).
	DefaultMaxUploadSize = 10 << 20

	// maxJSONBody bounds AJAX request bodies.
	maxJSONBody = 1 << 20
)

// Cache-Control header values.
const (
	CacheNoStore = "no-store"
)
