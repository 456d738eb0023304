package handlers

import (
	"net/http"

	"github.com/upb/kitchen-dashboard/auth"
	"github.com/upb/kitchen-dashboard/utils"
)

// AuthDeps provides auth handler for route wiring
type AuthDeps interface {
	AuthHandler() *auth.Handler
}

// AuthLoginHandler returns an http.HandlerFunc for the sign-in endpoint
func AuthLoginHandler(deps AuthDeps) http.HandlerFunc {
	return withAuth(deps, func(h *auth.Handler) http.HandlerFunc { return h.HandleLogin })
}

// AuthLogoutHandler returns an http.HandlerFunc for the sign-out endpoint
func AuthLogoutHandler(deps AuthDeps) http.HandlerFunc {
	return withAuth(deps, func(h *auth.Handler) http.HandlerFunc { return h.HandleLogout })
}

// SessionHandler returns an http.HandlerFunc describing the caller's session
func SessionHandler(deps AuthDeps) http.HandlerFunc {
	return withAuth(deps, func(h *auth.Handler) http.HandlerFunc { return h.HandleSession })
}

// LoginPageHandler returns an http.HandlerFunc for the public login page
func LoginPageHandler(deps AuthDeps) http.HandlerFunc {
	return withAuth(deps, func(h *auth.Handler) http.HandlerFunc { return h.HandleLoginPage })
}

func withAuth(deps AuthDeps, pick func(*auth.Handler) http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h := deps.AuthHandler(); h != nil {
			pick(h)(w, r)
			return
		}
		_ = utils.WriteInternalServerError(w, "Authentication not configured")
	}
}
