package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hongminglow/carecrate/internal/http/respond"
	"github.com/hongminglow/carecrate/internal/models"
)

type contextKey string

const sessionContextKey contextKey = "session"

// TokenParser turns a bearer token into a session.
type TokenParser interface {
	Parse(token string) (*models.Session, error)
}

// Auth resolves staff sessions from bearer tokens.
type Auth struct {
	tokens TokenParser
}

// NewAuth creates the session middleware.
func NewAuth(tokens TokenParser) *Auth {
	return &Auth{tokens: tokens}
}

// Optional attaches the session when a valid token is present and lets the
// request through either way.
func (a *Auth) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if session := a.resolve(r); session != nil {
			r = r.WithContext(WithSession(r.Context(), session))
		}
		next(w, r)
	}
}

// RequireSession rejects requests without a valid token.
func (a *Auth) RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := a.resolve(r)
		if session == nil {
			respond.Error(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next(w, r.WithContext(WithSession(r.Context(), session)))
	}
}

// RequireAdmin rejects requests unless the session carries the admin role.
func (a *Auth) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return a.RequireSession(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFromContext(r.Context()).IsAdmin() {
			respond.Error(w, http.StatusForbidden, "admin role required")
			return
		}
		next(w, r)
	})
}

func (a *Auth) resolve(r *http.Request) *models.Session {
	token := BearerToken(r)
	if token == "" {
		return nil
	}
	session, err := a.tokens.Parse(token)
	if err != nil {
		return nil
	}
	return session
}

// BearerToken reads the Authorization header, falling back to the token
// query parameter browsers must use for websocket upgrades.
func BearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

// WithSession stores the session on ctx.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext returns the signed-in session or nil.
func SessionFromContext(ctx context.Context) *models.Session {
	session, ok := ctx.Value(sessionContextKey).(*models.Session)
	if !ok {
		return nil
	}
	return session
}
