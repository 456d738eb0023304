package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/kitchen-dashboard/app"
	"github.com/upb/kitchen-dashboard/handlers"
	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/internal/observability"
	"github.com/upb/kitchen-dashboard/utils"
)

const defaultRequestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	timeout := deps.Config.Server.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	health := handlers.NewHealthHandlerFromDeps(deps)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	// Everything below knows who is asking
	r.Group(func(r chi.Router) {
		r.Use(deps.SessionMiddleware.Resolve)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			utils.WriteRedirect(w, r, access.DefaultPath)
		})
		r.Get(access.LoginPath, handlers.LoginPageHandler(deps))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", handlers.AuthLoginHandler(deps))
			r.Post("/logout", handlers.AuthLogoutHandler(deps))
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/status", handlers.StatusHandler(deps))
			r.Get("/session", handlers.SessionHandler(deps))
			r.Get("/gate", handlers.GateHandler(deps))
		})

		// Pages and their mutations sit behind the gate
		r.Group(func(r chi.Router) {
			r.Use(deps.GateMiddleware.Protect)

			r.Get("/dashboard", handlers.DashboardPageHandler(deps))

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", handlers.InventoryPageHandler(deps))
				r.Post("/items", handlers.CreateInventoryItemHandler(deps))
				r.Put("/items/{id}", handlers.UpdateInventoryItemHandler(deps))
				r.Delete("/items/{id}", handlers.DeleteInventoryItemHandler(deps))
			})

			r.Route("/kitchen", func(r chi.Router) {
				r.Get("/", handlers.KitchenPageHandler(deps))
				r.Post("/orders/{id}/status", handlers.KitchenStatusHandler(deps))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", handlers.OrdersPageHandler(deps))
				r.Post("/{id}/cancel", handlers.CancelOrderHandler(deps))
			})

			r.Get("/staff", handlers.StaffPageHandler(deps))

			r.Route("/delivery", func(r chi.Router) {
				r.Get("/", handlers.DeliveryPageHandler(deps))
				r.Post("/orders/{id}/delivered", handlers.DeliveredHandler(deps))
			})

			r.Get("/reports", handlers.ReportsPageHandler(deps))
			r.Get("/settings", handlers.SettingsPageHandler(deps))
		})
	})

	// Unknown locations still go through the gate, so they require a
	// signed-in session like any page without a role restriction
	r.NotFound(deps.SessionMiddleware.Resolve(deps.GateMiddleware.Protect(http.HandlerFunc(notFound))).ServeHTTP)

	return r
}

func notFound(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteNotFound(w, "endpoint not found")
}
