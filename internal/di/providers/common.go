package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// sessionCleanupInterval is how often expired sessions are swept.
	sessionCleanupInterval = time.Hour

	// mediaRetryAttempts and mediaRetryBackoff govern inline media retries.
	mediaRetryAttempts = 3
	mediaRetryBackoff  = 200 * time.Millisecond
)
