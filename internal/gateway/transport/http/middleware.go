package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyMiddleware guards the public send surface with X-API-Key. The
// admin tree carries its own key, and the signed media routes plus the
// health and metrics endpoints must work without headers. An empty
// configured key disables the check.
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if strings.HasPrefix(path, "/admin/") ||
				strings.HasPrefix(path, "/media/") ||
				path == "/healthz" || path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}
			if path == "/favicon.ico" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			if apiKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !keysEqual(r.Header.Get("X-API-Key"), apiKey) {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminKeyMiddleware guards the admin tree with X-Admin-Key. A missing
// configured key is a server misconfiguration, not an open door.
func AdminKeyMiddleware(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" {
				respondWithError(w, http.StatusInternalServerError, "Admin key not set (WATSON_ADMIN_KEY)")
				return
			}
			if !keysEqual(r.Header.Get("X-Admin-Key"), adminKey) {
				respondWithError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func keysEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
