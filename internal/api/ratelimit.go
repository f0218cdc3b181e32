package api

import (
	"net"
	"net/http"
	"strings"

	"github.com/galleryapp/gallery-server/internal/ratelimit"
)

// loginRateLimit throttles login submissions per client IP. Over the limit
// the browser is sent back to the login page, the same as a failed login.
func loginRateLimit(limiter *ratelimit.KeyedRateLimiter, s *Server) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := getClientIP(r)
			if !limiter.Allow(key) {
				s.log(r).Warn("Rate limit exceeded",
					"ip", key,
					"path", r.URL.Path,
				)
				http.Redirect(w, r, "/login/", http.StatusFound)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from the request.
// Checks X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr.
func getClientIP(r *http.Request) string {
	// First entry of X-Forwarded-For is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
