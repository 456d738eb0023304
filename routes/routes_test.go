package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/kitchen-dashboard/app"
	"github.com/upb/kitchen-dashboard/config"
	"github.com/upb/kitchen-dashboard/identity"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/repositories/mocks"
	"go.uber.org/zap"
)

const testPassword = "correct horse battery staple"

type routeFixture struct {
	handler http.Handler
	staff   *mocks.StaffRepository
	orders  *mocks.OrderRepository
	member  *models.StaffMember
}

func newRouteFixture(t *testing.T, role string) *routeFixture {
	t.Helper()

	hash, err := identity.HashPassword(testPassword)
	require.NoError(t, err)

	member := &models.StaffMember{
		ID:           uuid.New(),
		Email:        "cook@example.com",
		Username:     "cook",
		FullName:     "Carla Cook",
		Role:         role,
		PasswordHash: hash,
	}

	repos, staff, _, orders, _ := mocks.NewRepositories()
	staff.On("GetByEmail", mock.Anything, member.Email).Return(member, nil)
	staff.On("GetByID", mock.Anything, member.ID).Return(member, nil)

	cfg := &config.Config{
		Environment: "test",
		Server: config.ServerConfig{
			RequestTimeout: 5 * time.Second,
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Identity: config.IdentityConfig{
			Provider:       config.IdentityLocal,
			LocalJWTSecret: "0123456789abcdef0123456789abcdef",
			LocalTokenTTL:  time.Hour,
		},
		Session: config.SessionConfig{
			MaxAge:             12 * time.Hour,
			ResolveTimeout:     time.Second,
			PrincipalCacheSize: 10,
			PrincipalCacheTTL:  time.Minute,
		},
		Dashboard: config.DashboardConfig{Timezone: "UTC", RecentDeliveries: 5},
		Activity:  config.ActivityConfig{BufferSize: 10, WorkerCount: 1},
	}

	deps, err := app.Build(cfg, repos, &mocks.TransactionManager{}, zap.NewNop())
	require.NoError(t, err)

	return &routeFixture{handler: SetupRoutes(deps), staff: staff, orders: orders, member: member}
}

func (f *routeFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// signIn posts credentials and returns the session cookie
func (f *routeFixture) signIn(t *testing.T, from string) (*http.Cookie, map[string]interface{}) {
	t.Helper()
	body := `{"email":"cook@example.com","password":"` + testPassword + `","from":"` + from + `"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	for _, c := range rec.Result().Cookies() {
		if c.Name == "session" {
			return c, resp.Data
		}
	}
	t.Fatal("no session cookie set")
	return nil, nil
}

func TestHealthEndpoints(t *testing.T) {
	f := newRouteFixture(t, "kitchen_staff")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	// no pool in the fixture and the activity workers are not started
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.NotContains(t, rec.Body.String(), `"database"`)
}

func TestRootRedirectsToDashboard(t *testing.T) {
	f := newRouteFixture(t, "kitchen_staff")

	rec := f.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
}

func TestSignedOutIsSentToLogin(t *testing.T) {
	f := newRouteFixture(t, "kitchen_staff")

	tests := []struct {
		name     string
		method   string
		target   string
		status   int
		location string
	}{
		{name: "page", method: http.MethodGet, target: "/kitchen", status: http.StatusFound, location: "/login?from=%2Fkitchen"},
		{name: "page with query", method: http.MethodGet, target: "/orders?status=ready", status: http.StatusFound, location: "/login?from=%2Forders%3Fstatus%3Dready"},
		{name: "mutation", method: http.MethodPost, target: "/orders/" + uuid.NewString() + "/cancel", status: http.StatusSeeOther},
		{name: "unknown path", method: http.MethodGet, target: "/help", status: http.StatusFound, location: "/login?from=%2Fhelp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(httptest.NewRequest(tt.method, tt.target, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
			} else {
				assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "/login?from="))
			}
		})
	}
	f.orders.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestPublicEndpoints(t *testing.T) {
	f := newRouteFixture(t, "kitchen_staff")

	t.Run("login page", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/login?from=%2Fkitchen", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"from":"/kitchen","provider":"local"}}`, rec.Body.String())
	})

	t.Run("session", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"status":"signed_out"`)
	})

	t.Run("gate", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/gate?path=%2Fstaff", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"decision":"redirect_to_login","location":"/login","return_to":"/staff"}`, rec.Body.String())
	})

	t.Run("status", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"identity_provider":"local"`)
	})
}

func TestSignedInSession(t *testing.T) {
	f := newRouteFixture(t, "kitchen_staff")
	f.orders.On("List", mock.Anything, mock.Anything).Return([]*models.Order{}, nil)

	cookie, login := f.signIn(t, "/kitchen")
	assert.Equal(t, "/kitchen", login["redirect"])
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)

	t.Run("permitted page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/kitchen", nil)
		req.AddCookie(cookie)
		rec := f.do(req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bearer token works like the cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer "+cookie.Value)
		rec := f.do(req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forbidden page is a silent redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/inventory", nil)
		req.AddCookie(cookie)
		rec := f.do(req)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
		assert.NotContains(t, rec.Body.String(), "forbidden")
	})

	t.Run("forbidden mutation is a see-other redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/inventory/items/"+uuid.NewString(), nil)
		req.AddCookie(cookie)
		rec := f.do(req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	})

	t.Run("unknown path needs only a session", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/help", nil)
		req.AddCookie(cookie)
		rec := f.do(req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("second sign-in conflicts", func(t *testing.T) {
		body := `{"email":"cook@example.com","password":"` + testPassword + `"}`
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		req.AddCookie(cookie)
		rec := f.do(req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("session reports navigation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
		req.AddCookie(cookie)
		rec := f.do(req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data struct {
				Status     string                   `json:"status"`
				Navigation []map[string]interface{} `json:"navigation"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "signed_in", resp.Data.Status)
		assert.Len(t, resp.Data.Navigation, 3)
	})

	t.Run("logout clears the cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
		req.AddCookie(cookie)
		rec := f.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"data":{"redirect":"/login"}}`, rec.Body.String())

		var cleared *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == "session" {
				cleared = c
			}
		}
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
		assert.True(t, cleared.MaxAge < 0)
	})
}

func TestWrongPasswordLeavesSessionSignedOut(t *testing.T) {
	f := newRouteFixture(t, "kitchen_staff")

	body := `{"email":"cook@example.com","password":"wrong"}`
	rec := f.do(httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized","message":"Invalid email or password"}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
}

func TestLoggedOutTokenIsRejected(t *testing.T) {
	f := newRouteFixture(t, "kitchen_staff")
	f.orders.On("List", mock.Anything, mock.Anything).Return([]*models.Order{}, nil)

	cookie, _ := f.signIn(t, "/kitchen")
	bearer := "Bearer " + cookie.Value

	kitchen := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/kitchen", nil)
		req.Header.Set("Authorization", bearer)
		return f.do(req)
	}
	require.Equal(t, http.StatusOK, kitchen().Code)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", bearer)
	require.Equal(t, http.StatusOK, f.do(req).Code)

	rec := kitchen()
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?from=%2Fkitchen", rec.Header().Get("Location"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.AddCookie(cookie)
	rec = f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"signed_out"`)
	assert.NotContains(t, rec.Body.String(), `"principal"`)

	fresh, _ := f.signIn(t, "/kitchen")
	assert.NotEqual(t, cookie.Value, fresh.Value)
	req = httptest.NewRequest(http.MethodGet, "/kitchen", nil)
	req.AddCookie(fresh)
	assert.Equal(t, http.StatusOK, f.do(req).Code)
}
