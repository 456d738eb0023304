package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/kitchen-dashboard/auth"
	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/internal/session"
	"github.com/upb/kitchen-dashboard/middleware"
)

func TestGateHandler(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		state    func(t *testing.T) session.State
		path     string
		expected access.Outcome
		location string
		returnTo string
	}{
		{
			name:     "signed out is sent to login",
			state:    func(*testing.T) session.State { return session.SignedOut() },
			path:     "/kitchen?tab=ready",
			expected: access.RedirectToLogin,
			location: "/login",
			returnTo: "/kitchen?tab=ready",
		},
		{
			name:     "unresolved is pending",
			state:    func(*testing.T) session.State { return session.New() },
			path:     "/kitchen",
			expected: access.Pending,
		},
		{
			name: "wrong role is sent to the dashboard",
			state: func(t *testing.T) session.State {
				s, err := session.New().Resolve(principalFor(access.RoleDeliveryStaff))
				require.NoError(t, err)
				return s
			},
			path:     "/inventory",
			expected: access.RedirectToDefault,
			location: "/dashboard",
		},
		{
			name: "permitted role is allowed",
			state: func(t *testing.T) session.State {
				s, err := session.New().Resolve(principalFor(access.RoleInventoryManager))
				require.NoError(t, err)
				return s
			},
			path:     "/reports",
			expected: access.Allow,
		},
		{
			name:     "login page is public",
			state:    func(*testing.T) session.State { return session.SignedOut() },
			path:     "/login",
			expected: access.Allow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/gate?path="+url.QueryEscape(tt.path), nil)
			req = req.WithContext(middleware.WithSession(req.Context(), tt.state(t)))
			rec := httptest.NewRecorder()

			GateHandler(f.deps)(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			var decision access.Decision
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
			assert.Equal(t, tt.expected, decision.Outcome)
			assert.Equal(t, tt.location, decision.Location)
			assert.Equal(t, tt.returnTo, decision.ReturnTo)
		})
	}
}

func TestGateHandler_DefaultsToDashboard(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/gate", nil)
	req = req.WithContext(middleware.WithSession(req.Context(), session.SignedOut()))
	rec := httptest.NewRecorder()

	GateHandler(f.deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"decision":"redirect_to_login","location":"/login","return_to":"/dashboard"}`, rec.Body.String())
}

func TestStatusHandler(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	rec := httptest.NewRecorder()

	StatusHandler(f.deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "dev", data["version"])
	assert.Equal(t, "test", data["environment"])
	assert.Equal(t, "none", data["identity_provider"])
	assert.Equal(t, "UTC", data["timezone"])
	assert.NotNil(t, data["principals"])
	assert.Equal(t, false, data["activity"].(map[string]interface{})["running"])
	_, hasJWKS := data["jwks"]
	assert.False(t, hasJWKS)
}

type nilAuthDeps struct{}

func (nilAuthDeps) AuthHandler() *auth.Handler { return nil }

func TestAuthHandlers_NotConfigured(t *testing.T) {
	handlers := map[string]http.HandlerFunc{
		"login":      AuthLoginHandler(nilAuthDeps{}),
		"logout":     AuthLogoutHandler(nilAuthDeps{}),
		"session":    SessionHandler(nilAuthDeps{}),
		"login page": LoginPageHandler(nilAuthDeps{}),
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
		})
	}
}

func TestSessionHandler_UsesAuthHandler(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req = req.WithContext(middleware.WithSession(req.Context(), session.SignedOut()))
	rec := httptest.NewRecorder()

	SessionHandler(f.deps)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)
	assert.Equal(t, "signed_out", data["status"])
	assert.Empty(t, data["navigation"])
}
