package handlers

import (
	"net/http"
	"time"

	"github.com/upb/kitchen-dashboard/app"
	"github.com/upb/kitchen-dashboard/internal/session"
	"github.com/upb/kitchen-dashboard/services/activity"
	"github.com/upb/kitchen-dashboard/utils"
	"go.uber.org/zap"
)

// StatusResponse is the operational summary served by /api/v1/status
type StatusResponse struct {
	Version          string                 `json:"version"`
	Environment      string                 `json:"environment"`
	IdentityProvider string                 `json:"identity_provider"`
	Timezone         string                 `json:"timezone"`
	Uptime           string                 `json:"uptime"`
	Principals       session.StoreStats     `json:"principals"`
	Activity         activity.Stats         `json:"activity"`
	JWKS             map[string]interface{} `json:"jwks,omitempty"`
}

// cacheStatser is implemented by providers that cache signing keys
type cacheStatser interface {
	GetCacheStats() map[string]interface{}
}

// NewHealthHandlerFromDeps builds the probes for the wired components. The
// database check is skipped when no pool was opened.
func NewHealthHandlerFromDeps(deps *app.Dependencies) *HealthHandler {
	var checks []Check
	if deps.DB != nil {
		checks = append(checks, DatabaseCheck(deps.DB.DB))
	}
	if deps.Activity != nil {
		checks = append(checks, ActivityCheck(deps.Activity))
	}
	return NewHealthHandler(deps.Logger, checks...)
}

// StatusHandler returns application status information
func StatusHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := StatusResponse{
			Version:          app.Version,
			Environment:      deps.Config.Environment,
			IdentityProvider: deps.Identity.Name(),
			Timezone:         deps.Location.String(),
			Uptime:           time.Since(deps.StartedAt).Round(time.Second).String(),
			Principals:       deps.Sessions.Stats(),
			Activity:         deps.Activity.GetStats(),
		}
		if cs, ok := deps.Identity.(cacheStatser); ok {
			response.JWKS = cs.GetCacheStats()
		}

		if err := utils.WriteOK(w, response); err != nil {
			deps.Logger.Error("failed to write status response", zap.Error(err))
		}
	}
}
