package middleware

import (
	"net/http"

	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the user has admin role. Catalog writes are
// admin-only; sales operations are open to any authenticated operator.
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{"admin"}, logger)
}

// RequireRole middleware ensures the user has one of the specified roles
func RequireRole(allowedRoles []string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				logger.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, CodeForbidden, "insufficient permissions")
				return
			}

			allowed := false
			for _, allowedRole := range allowedRoles {
				if role == allowedRole {
					allowed = true
					break
				}
			}

			if !allowed {
				logger.Warn("User role not authorized",
					zap.String("role", role),
					zap.Strings("allowed_roles", allowedRoles),
				)
				RespondWithError(w, http.StatusForbidden, CodeForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
