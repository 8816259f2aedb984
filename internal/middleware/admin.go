package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"pluscode-backend/internal/auth"
	"pluscode-backend/internal/transport"
)

// AdminAuth accepts either the static X-Admin-Key or an admin access token, taken
// from the session cookie or a bearer Authorization header.
func AdminAuth(adminKey string, manager *auth.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if adminKey == "" && manager == nil {
				transport.WriteError(w, http.StatusServiceUnavailable, "admin auth not configured", nil)
				return
			}

			if adminKey != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Admin-Key")), []byte(adminKey)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			if manager != nil {
				if token := accessToken(r); token != "" {
					claims, err := manager.ParseAccess(token)
					if err == nil && claims.Role == auth.RoleAdmin {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		})
	}
}

func accessToken(r *http.Request) string {
	if cookie, err := r.Cookie(auth.AccessCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}
