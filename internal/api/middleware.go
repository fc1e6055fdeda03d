/**
 * @description
 * This file contains custom middleware for the HTTP router. The only guard is
 * session based: protected routes require a persisted admin session whose
 * access token has not expired. Expiry is checked locally from the token, so
 * no network round trip happens per request.
 *
 * @dependencies
 * - internal/session: The persisted token store.
 */

package api

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/giftmart/console-service/internal/session"
)

// RequireSession creates a middleware that rejects requests made without a
// live admin session.
func RequireSession(sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessions.Valid() {
				log.Printf("level=warn component=api msg=\"rejected request without a live session\" path=%s", r.URL.Path)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Authentication required"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
