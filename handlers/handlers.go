// Package handlers serves the dashboard pages, their mutations and the
// operational endpoints. Handlers are thin: they read the request, call a
// service and write the result.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/kitchen-dashboard/middleware"
	"github.com/upb/kitchen-dashboard/services"
	"github.com/upb/kitchen-dashboard/utils"
	"go.uber.org/zap"
)

const maxRequestBody = 1 << 20

// actorFrom identifies the signed-in principal for the activity log
func actorFrom(r *http.Request) services.Actor {
	actor := services.Actor{RequestID: middleware.GetRequestIDFromContext(r.Context())}
	if p := middleware.GetPrincipalFromContext(r.Context()); p != nil {
		actor.ID = p.ID
	}
	return actor
}

// pathID parses the {id} URL parameter, writing 400 when it is not a UUID
func pathID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(chi.URLParam(r, "id"))
	if err != nil {
		HandleValidationError(w, err, logger)
		return uuid.Nil, false
	}
	return id, true
}

// decodeJSON reads a bounded JSON body into dst, writing 400 on failure
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, logger *zap.Logger) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(dst); err != nil {
		if err := utils.WriteBadRequest(w, "Invalid request body", nil); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}
		return false
	}
	return true
}

// writePage writes a page model unless the request was cancelled while the
// data was being fetched. A stale result is dropped without a response.
func writePage(w http.ResponseWriter, r *http.Request, page string, model interface{}, logger *zap.Logger) {
	if err := r.Context().Err(); err != nil {
		logger.Debug("discarding stale page result",
			zap.String("page", page),
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Error(err))
		return
	}
	if err := utils.WriteOK(w, model); err != nil {
		logger.Error("failed to write page", zap.String("page", page), zap.Error(err))
	}
}
