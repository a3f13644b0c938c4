/**
 * @description
 * This file contains custom middleware for the HTTP router. The
 * collections-service exposes only internal endpoints (the cron trigger's
 * HTTP twin and the pause/resume hooks called by the main application), all
 * guarded by a shared internal API key.
 *
 * @dependencies
 * - crypto/subtle, net/http: Standard Go libraries.
 */

package api

import (
	"crypto/subtle"
	"net/http"
)

// InternalAuthMiddleware creates a middleware that validates the
// X-Internal-API-Key header against the configured key. Comparison is
// constant-time.
func InternalAuthMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if apiKey == "" {
				http.Error(w, "Internal API key is not configured", http.StatusServiceUnavailable)
				return
			}

			provided := r.Header.Get("X-Internal-API-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
