package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/internal/session"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// SessionKey is the context key for the resolved session state
	SessionKey contextKey = "session"

	// TokenKey is the context key for the raw access token
	TokenKey contextKey = "access_token"
)

// GetRequestIDFromContext retrieves the request ID from context, falling
// back to the id assigned by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	if val := ctx.Value(RequestIDKey); val != nil {
		if requestID, ok := val.(string); ok {
			return requestID
		}
	}
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetSessionFromContext returns the session state resolved for the request.
// A request that never passed the session middleware is Unresolved.
func GetSessionFromContext(ctx context.Context) session.State {
	if val := ctx.Value(SessionKey); val != nil {
		if state, ok := val.(session.State); ok {
			return state
		}
	}
	return session.New()
}

// WithSession adds the session state to the context
func WithSession(ctx context.Context, state session.State) context.Context {
	return context.WithValue(ctx, SessionKey, state)
}

// GetPrincipalFromContext returns the signed-in principal, or nil
func GetPrincipalFromContext(ctx context.Context) *access.Principal {
	return GetSessionFromContext(ctx).Principal()
}

// GetTokenFromContext retrieves the access token the request carried
func GetTokenFromContext(ctx context.Context) string {
	if val := ctx.Value(TokenKey); val != nil {
		if token, ok := val.(string); ok {
			return token
		}
	}
	return ""
}

// WithToken adds the access token to the context
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, TokenKey, token)
}
