package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/NicoSerenade/parcheverde-uniandes/internal/models"
	"github.com/NicoSerenade/parcheverde-uniandes/internal/store"
)

type contextKey string

const identityContextKey contextKey = "identity"

// AuthMiddleware resolves the session token on REST requests. Identity and
// session management belong to the platform; this service only reads the
// session store to learn who is calling.
type AuthMiddleware struct {
	sessions store.SessionStore
}

// NewAuthMiddleware creates a new auth middleware over the session store.
func NewAuthMiddleware(sessions store.SessionStore) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireAuth rejects requests without a resolvable session and puts the
// identity into the request context for handlers.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			jsonError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		identity, err := m.sessions.ResolveSession(r.Context(), token)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				jsonError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			jsonError(w, http.StatusInternalServerError, "session lookup failed")
			return
		}

		setLogIdentity(r.Context(), identity.String())

		ctx := context.WithValue(r.Context(), identityContextKey, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionToken extracts the token from the Authorization header or the
// session cookie.
func sessionToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if c, err := r.Cookie("session"); err == nil {
		return c.Value
	}
	return ""
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// IdentityFromContext retrieves the authenticated identity from the request
// context.
func IdentityFromContext(ctx context.Context) (models.Entity, bool) {
	identity, ok := ctx.Value(identityContextKey).(models.Entity)
	return identity, ok
}
