// internal/auth/middleware.go
//
// Gatekeeping middleware for routes that need a logged-in user.

package auth

import (
	"encoding/json"
	"net/http"
)

// Accessor reports the user behind r, if any.
type Accessor func(r *http.Request) (User, bool)

// RequireUser rejects anonymous requests with 401 and a JSON body.  When a
// user is present it is attached to the request context.
func RequireUser(current Accessor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := current(r)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": "You must be logged in.",
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// LoadUser attaches the user to the context when present but never rejects.
func LoadUser(current Accessor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if u, ok := current(r); ok {
				r = r.WithContext(WithUser(r.Context(), u))
			}
			next.ServeHTTP(w, r)
		})
	}
}
