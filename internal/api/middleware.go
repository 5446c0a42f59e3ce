/**
 * @description
 * This file contains custom middleware for the HTTP router. Fare terminals
 * and simulation drivers authenticate with a shared internal API key; there
 * is no end-user identity on this surface.
 *
 * @dependencies
 * - crypto/subtle, net/http, strings: Standard Go libraries.
 */

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const internalAPIKeyHeader = "X-Internal-Api-Key"

// InternalAPIKeyMiddleware creates a middleware that requires requests to
// carry the configured internal API key.
func InternalAPIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := strings.TrimSpace(r.Header.Get(internalAPIKeyHeader))
			if provided == "" {
				http.Error(w, "Internal API key required", http.StatusUnauthorized)
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				http.Error(w, "Invalid internal API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
