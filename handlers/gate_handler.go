package handlers

import (
	"net/http"

	"github.com/upb/kitchen-dashboard/app"
	"github.com/upb/kitchen-dashboard/internal/access"
	"github.com/upb/kitchen-dashboard/middleware"
	"github.com/upb/kitchen-dashboard/utils"
	"go.uber.org/zap"
)

// GateHandler serves GET /api/v1/gate?path=. It reports the decision the
// gate would take for the caller on path, always with 200, so a front end
// can hide links and pre-route without loading the page.
func GateHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requested := r.URL.Query().Get("path")
		if requested == "" {
			requested = access.DefaultPath
		}

		state := middleware.GetSessionFromContext(r.Context())
		decision := deps.Gate.Check(state.Resolution(), state.Principal(), requested)

		if err := utils.WriteJSON(w, http.StatusOK, decision); err != nil {
			deps.Logger.Error("failed to write gate decision", zap.Error(err))
		}
	}
}
