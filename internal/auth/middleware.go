package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/royals-sales/royals/internal/platform/httpx"
	"github.com/royals-sales/royals/internal/shared"
)

// Middleware guards routes with bearer-token authentication and role
// checks.
type Middleware struct {
	tokens *TokenManager
	logger *slog.Logger
}

// NewMiddleware constructs the auth middleware.
func NewMiddleware(tokens *TokenManager, logger *slog.Logger) *Middleware {
	return &Middleware{tokens: tokens, logger: logger}
}

// Authenticate verifies the Authorization header and stores the actor
// identity in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			httpx.Message(w, http.StatusUnauthorized, "No token provided")
			return
		}
		claims, err := m.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			httpx.Message(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		identity := shared.Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
			Role:     claims.Role,
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireRole rejects requests whose actor does not hold the given role.
func (m *Middleware) RequireRole(role shared.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.Message(w, http.StatusUnauthorized, "No token provided")
				return
			}
			switch identity.Role {
			case role:
				next.ServeHTTP(w, r)
			case shared.RoleAdmin:
				// Admin passes every role gate.
				next.ServeHTTP(w, r)
			case shared.RoleStaff:
				httpx.Message(w, http.StatusForbidden, "Access denied. Admin only.")
			default:
				if m.logger != nil {
					m.logger.Warn("request with unknown role", slog.String("role", string(identity.Role)))
				}
				httpx.Message(w, http.StatusForbidden, "Access denied. Admin only.")
			}
		})
	}
}
