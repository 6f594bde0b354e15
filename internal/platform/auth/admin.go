package auth

import (
	"context"
	"net/http"
	"strings"
)

// IsAdmin reports whether the request context carries role=admin.
func IsAdmin(ctx context.Context) bool {
	role, _ := RoleFromContext(ctx)
	return strings.ToLower(strings.TrimSpace(role)) == "admin"
}

// RequireAdmin allows request only if RequireUser already injected role=admin into context.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
