package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/upb/kitchen-dashboard/app"
	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/middleware"
	"github.com/upb/kitchen-dashboard/models"
	"github.com/upb/kitchen-dashboard/services"
	"github.com/upb/kitchen-dashboard/services/dashboard"
	staffsvc "github.com/upb/kitchen-dashboard/services/staff"
)

// settingsActivityLimit is how many activity entries the settings page shows
const settingsActivityLimit = 10

// DashboardPage is the landing page model
type DashboardPage struct {
	Principal  *access.Principal `json:"principal"`
	Stats      dashboard.Stats   `json:"stats"`
	Navigation []access.NavEntry `json:"navigation"`
}

// OrdersPage lists orders, optionally narrowed to statuses
type OrdersPage struct {
	Orders []*models.Order      `json:"orders"`
	Status []models.OrderStatus `json:"status,omitempty"`
}

// StaffPage lists staff members
type StaffPage struct {
	Staff  []*models.StaffMember `json:"staff"`
	Total  int                   `json:"total"`
	ByRole map[access.Role]int   `json:"by_role"`
	Query  string                `json:"query,omitempty"`
}

// ServiceSettings are the read-only settings shown to the signed-in user
type ServiceSettings struct {
	Environment      string `json:"environment"`
	Version          string `json:"version"`
	IdentityProvider string `json:"identity_provider"`
	Timezone         string `json:"timezone"`
	SessionMaxAge    string `json:"session_max_age"`
	RecentDeliveries int    `json:"recent_deliveries"`
}

// SettingsPage is the profile and settings page model
type SettingsPage struct {
	Profile        *access.Principal       `json:"profile"`
	Settings       ServiceSettings         `json:"settings"`
	RecentActivity []*models.ActivityEntry `json:"recent_activity"`
}

// DashboardPageHandler serves GET /dashboard
func DashboardPageHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := middleware.GetPrincipalFromContext(r.Context())
		page := DashboardPage{
			Principal:  principal,
			Stats:      deps.Dashboard.Stats(r.Context()),
			Navigation: deps.Gate.Navigation(principal),
		}
		writePage(w, r, "dashboard", page, deps.Logger)
	}
}

// InventoryPageHandler serves GET /inventory?q=
func InventoryPageHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := deps.Inventory.Page(r.Context(), r.URL.Query().Get("q"))
		writePage(w, r, "inventory", page, deps.Logger)
	}
}

// KitchenPageHandler serves GET /kitchen
func KitchenPageHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writePage(w, r, "kitchen", deps.Orders.Kitchen(r.Context()), deps.Logger)
	}
}

// OrdersPageHandler serves GET /orders?status=a,b
func OrdersPageHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		statuses, err := parseStatuses(r.URL.Query().Get("status"))
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}
		page := OrdersPage{
			Orders: deps.Orders.List(r.Context(), statuses),
			Status: statuses,
		}
		writePage(w, r, "orders", page, deps.Logger)
	}
}

// StaffPageHandler serves GET /staff?q=
func StaffPageHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		staff := deps.Staff.List(r.Context(), query)
		writePage(w, r, "staff", StaffPage{
			Staff:  staff,
			Total:  len(staff),
			ByRole: staffsvc.CountByRole(staff),
			Query:  query,
		}, deps.Logger)
	}
}

// DeliveryPageHandler serves GET /delivery
func DeliveryPageHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writePage(w, r, "delivery", deps.Orders.Delivery(r.Context()), deps.Logger)
	}
}

// ReportsPageHandler serves GET /reports?days=. A missing or malformed
// window falls back to the default.
func ReportsPageHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := strconv.Atoi(r.URL.Query().Get("days"))
		if err != nil {
			days = 0
		}
		writePage(w, r, "reports", deps.Reports.Build(r.Context(), days), deps.Logger)
	}
}

// SettingsPageHandler serves GET /settings
func SettingsPageHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := SettingsPage{
			Profile: middleware.GetPrincipalFromContext(r.Context()),
			Settings: ServiceSettings{
				Environment:      deps.Config.Environment,
				Version:          app.Version,
				IdentityProvider: deps.Identity.Name(),
				Timezone:         deps.Location.String(),
				SessionMaxAge:    deps.Config.Session.MaxAge.Round(time.Second).String(),
				RecentDeliveries: deps.Config.Dashboard.RecentDeliveries,
			},
			RecentActivity: deps.Feed.Recent(r.Context(), settingsActivityLimit),
		}
		writePage(w, r, "settings", page, deps.Logger)
	}
}

// parseStatuses reads a comma separated status filter; empty means all
func parseStatuses(raw string) ([]models.OrderStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var statuses []models.OrderStatus
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		status, err := models.ParseOrderStatus(strings.ToLower(part))
		if err != nil {
			return nil, services.NewDomainError(services.ErrorTypeValidation, services.ErrInvalidOrderStatus.Message, err).
				WithDetail("status", part)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
