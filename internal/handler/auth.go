package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofrs/uuid"

	"github.com/mediplant/storefront/internal/user"
)

func cutBearer(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	return strings.TrimSpace(token), ok
}

type contextKey string

const identityKey contextKey = "identity"

// IdentityFrom extracts the authenticated identity placed by RequireAuth.
func IdentityFrom(ctx context.Context) (user.Identity, bool) {
	ident, ok := ctx.Value(identityKey).(user.Identity)
	return ident, ok
}

// WithIdentity is used by handler tests to seed an authenticated request.
func WithIdentity(ctx context.Context, ident user.Identity) context.Context {
	return context.WithValue(ctx, identityKey, ident)
}

type AuthMiddleware struct {
	users user.Service
}

func NewAuthMiddleware(users user.Service) *AuthMiddleware {
	return &AuthMiddleware{users: users}
}

// RequireAuth resolves the bearer token to an identity and stores it in the
// request context. Missing, malformed, and expired tokens all answer 401.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawToken, ok := cutBearer(r.Header.Get("Authorization"))
		if !ok {
			respondWithError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		token, err := uuid.FromString(rawToken)
		if err != nil {
			respondWithError(w, http.StatusUnauthorized, "malformed bearer token")
			return
		}

		ident, err := m.users.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				respondWithError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			respondDomainError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), ident)))
	})
}

// RequireRole gates a route group to one role. It must sit inside RequireAuth.
func RequireRole(role user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, ok := IdentityFrom(r.Context())
			if !ok {
				respondWithError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if ident.Role != role {
				respondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
