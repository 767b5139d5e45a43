// pkg/middleware/auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"deposit-service/pkg/jwtutil"
	"deposit-service/pkg/response"
)

// TokenVerifier validates a bearer token
type TokenVerifier interface {
	ParseAndValidate(token string) (*jwtutil.Claims, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *zap.Logger
}

func NewAuthMiddleware(verifier TokenVerifier, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// Require verifies the token and, when types are given, the token type
func (am *AuthMiddleware) Require(types ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				response.Error(w, http.StatusUnauthorized, "No token provided")
				return
			}

			claims, err := am.verifier.ParseAndValidate(token)
			if err != nil {
				am.logger.Debug("Token rejected",
					zap.String("path", r.URL.Path),
					zap.Error(err))
				response.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if len(types) > 0 && !contains(types, claims.UserType) {
				response.Error(w, http.StatusForbidden, "Token type not allowed")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRole allows the request only when the authenticated role is listed.
// It must run after Require.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRole(r.Context())
			if !ok {
				response.Error(w, http.StatusForbidden, "Role required")
				return
			}
			if !contains(roles, role) {
				response.Error(w, http.StatusForbidden, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
