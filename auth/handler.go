// Package auth serves the sign-in, sign-out and session endpoints. It drives
// the session state machine: only a signed-out session may sign in, and a
// rejected credential submission leaves the session where it was.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/identity"
	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/internal/session"
	"github.com/upb/kitchen-dashboard/middleware"
	"github.com/upb/kitchen-dashboard/repositories"
	"github.com/upb/kitchen-dashboard/services"
	"github.com/upb/kitchen-dashboard/utils"
	"go.uber.org/zap"
)

const maxLoginBody = 1 << 16

// Principals loads and forgets the principal behind an identity subject,
// and revokes signed-out tokens
type Principals interface {
	Principal(ctx context.Context, subject uuid.UUID) (*access.Principal, error)
	Forget(subject uuid.UUID)
	Revoke(ctx context.Context, token string)
}

// ActivityRecorder records sign-in and sign-out events
type ActivityRecorder interface {
	SignIn(actorID uuid.UUID, provider, requestID string) error
	SignOut(actorID uuid.UUID, requestID string) error
}

// CookieConfig controls the session cookie
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	From     string `json:"from"`
}

// LoginResponse is returned after a successful sign-in
type LoginResponse struct {
	Redirect   string            `json:"redirect"`
	Principal  *access.Principal `json:"principal"`
	Navigation []access.NavEntry `json:"navigation"`
}

// LogoutResponse is returned by POST /auth/logout
type LogoutResponse struct {
	Redirect string `json:"redirect"`
}

// SessionResponse describes the caller's session
type SessionResponse struct {
	Status     session.Status    `json:"status"`
	Principal  *access.Principal `json:"principal,omitempty"`
	Navigation []access.NavEntry `json:"navigation"`
}

// LoginPage is the page model of GET /login
type LoginPage struct {
	From     string `json:"from"`
	Provider string `json:"provider"`
}

// Handler handles sign-in, sign-out and session queries
type Handler struct {
	provider   identity.Provider
	principals Principals
	recorder   ActivityRecorder
	gate       *access.Gate
	cookie     CookieConfig
	logger     *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(provider identity.Provider, principals Principals, recorder ActivityRecorder, gate *access.Gate, cookie CookieConfig, logger *zap.Logger) *Handler {
	if cookie.MaxAge <= 0 {
		cookie.MaxAge = 12 * time.Hour
	}
	return &Handler{
		provider:   provider,
		principals: principals,
		recorder:   recorder,
		gate:       gate,
		cookie:     cookie,
		logger:     logger,
	}
}

// HandleLogin exchanges credentials for a session
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)
	state := middleware.GetSessionFromContext(ctx)

	switch state.Status() {
	case session.StatusSignedIn:
		_ = utils.WriteConflict(w, services.ErrAlreadySignedIn.Message, nil)
		return
	case session.StatusUnresolved:
		middleware.WritePending(w, access.Decision{Outcome: access.Pending})
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := utils.ValidateStruct(&req); err != nil {
		details := make(map[string]interface{})
		for k, v := range utils.GetValidationFields(err) {
			details[k] = v
		}
		_ = utils.WriteBadRequest(w, "Validation failed", details)
		return
	}

	token, err := h.provider.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidCredentials):
			h.logger.Info("sign-in rejected", zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, services.ErrInvalidCredentials.Message)
		case errors.Is(err, identity.ErrUnavailable):
			h.logger.Warn("identity provider unavailable during sign-in",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteServiceUnavailable(w, services.ErrIdentityUnavailable.Message, middleware.PendingRetryAfter)
		default:
			h.logger.Error("sign-in failed", zap.String("request_id", requestID), zap.Error(err))
			_ = utils.WriteInternalServerError(w, "Sign-in failed")
		}
		return
	}

	// Reload so a role changed since the last visit takes effect now.
	h.principals.Forget(token.Subject)
	principal, err := h.principals.Principal(ctx, token.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) || errors.Is(err, access.ErrUnknownRole) {
			h.logger.Warn("signed-in account has no usable staff profile",
				zap.String("request_id", requestID),
				zap.String("subject", token.Subject.String()),
				zap.Error(err))
			h.revoke(ctx, token.AccessToken)
			_ = utils.WriteUnauthorized(w, "No staff profile for this account")
			return
		}
		h.logger.Error("failed to load staff profile",
			zap.String("request_id", requestID),
			zap.String("subject", token.Subject.String()),
			zap.Error(err))
		_ = utils.WriteServiceUnavailable(w, "Staff profile is temporarily unavailable", middleware.PendingRetryAfter)
		return
	}

	if _, err := state.SignIn(principal); err != nil {
		_ = utils.WriteConflict(w, services.ErrAlreadySignedIn.Message, nil)
		return
	}

	http.SetCookie(w, h.sessionCookie(token.AccessToken, h.cookieMaxAge(token.ExpiresAt)))

	if err := h.recorder.SignIn(principal.ID, h.provider.Name(), requestID); err != nil {
		h.logger.Warn("failed to record sign-in", zap.String("request_id", requestID), zap.Error(err))
	}

	h.logger.Info("staff signed in",
		zap.String("request_id", requestID),
		zap.String("subject", principal.ID.String()),
		zap.String("role", string(principal.Role)))

	_ = utils.WriteOK(w, LoginResponse{
		Redirect:   utils.SafeRedirectPath(req.From, access.DefaultPath),
		Principal:  principal,
		Navigation: h.gate.Navigation(principal),
	})
}

// HandleLogout ends the session: the presented token stops resolving to a
// principal until it expires. It always clears the cookie.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)
	state := middleware.GetSessionFromContext(ctx)

	if _, err := state.SignOut(); err == nil {
		principal := state.Principal()
		token := middleware.GetTokenFromContext(ctx)
		h.principals.Revoke(ctx, token)
		h.revoke(ctx, token)
		h.principals.Forget(principal.ID)

		if err := h.recorder.SignOut(principal.ID, requestID); err != nil {
			h.logger.Warn("failed to record sign-out", zap.String("request_id", requestID), zap.Error(err))
		}
		h.logger.Info("staff signed out",
			zap.String("request_id", requestID),
			zap.String("subject", principal.ID.String()))
	}

	http.SetCookie(w, h.sessionCookie("", -1))
	_ = utils.WriteOK(w, LogoutResponse{Redirect: access.LoginPath})
}

// HandleSession reports the session status and the navigation it unlocks
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	state := middleware.GetSessionFromContext(r.Context())
	_ = utils.WriteOK(w, SessionResponse{
		Status:     state.Status(),
		Principal:  state.Principal(),
		Navigation: h.gate.Navigation(state.Principal()),
	})
}

// HandleLoginPage serves the login page model
func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get(access.ReturnToParam)
	_ = utils.WriteOK(w, LoginPage{
		From:     utils.SafeRedirectPath(from, access.DefaultPath),
		Provider: h.provider.Name(),
	})
}

// revoke signs the token out at the provider, best effort
func (h *Handler) revoke(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := h.provider.SignOut(ctx, token); err != nil {
		h.logger.Warn("provider sign-out failed",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Error(err))
	}
}

func (h *Handler) cookieMaxAge(expiresAt time.Time) int {
	maxAge := h.cookie.MaxAge
	if !expiresAt.IsZero() {
		if untilExpiry := time.Until(expiresAt); untilExpiry < maxAge {
			maxAge = untilExpiry
		}
	}
	if maxAge < time.Second {
		return 1
	}
	return int(maxAge / time.Second)
}

func (h *Handler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
