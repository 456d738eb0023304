package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/upb/kitchen-dashboard/internal/session"
	"go.uber.org/zap"
)

// SessionCookieName is the cookie carrying the access token
const SessionCookieName = "session"

// SessionResolver resolves an access token into a session state
type SessionResolver interface {
	Resolve(ctx context.Context, token string) session.State
}

// SessionMiddleware resolves the session of every request
type SessionMiddleware struct {
	resolver SessionResolver
	logger   *zap.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware
func NewSessionMiddleware(resolver SessionResolver, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		resolver: resolver,
		logger:   logger,
	}
}

// Resolve stores the session state and the raw token on the request context.
// It never rejects a request; the gate decides what an unresolved or
// signed-out session may see.
func (m *SessionMiddleware) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token := extractToken(r)
		state := m.resolver.Resolve(ctx, token)

		if p := state.Principal(); p != nil {
			m.logger.Debug("session resolved",
				zap.String("request_id", GetRequestIDFromContext(ctx)),
				zap.String("subject", p.ID.String()),
				zap.String("role", string(p.Role)))
		}

		ctx = WithToken(ctx, token)
		ctx = WithSession(ctx, state)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken extracts the access token from the Authorization header
// ("Bearer TOKEN") or the session cookie. The header takes precedence.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
