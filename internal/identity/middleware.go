package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/greenbasket/greenbasket/internal/domain"
)

type contextKey struct{}

var claimsKey contextKey

// ClaimsFromContext returns the verified session claims stored by RequireAuth.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}

// RequireAuth rejects requests without a valid Bearer token and stores the
// claims in the request context.
func (m *TokenManager) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeAuthError(w, http.StatusUnauthorized, "no token provided")
			return
		}

		claims, err := m.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			writeAuthError(w, http.StatusForbidden, "token is invalid or expired")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

// RequireAdmin is RequireAuth plus an admin role check.
func (m *TokenManager) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFromContext(r.Context())
		if claims.Role != domain.RoleAdmin {
			writeAuthError(w, http.StatusForbidden, "admin rights required")
			return
		}
		next(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
