package handlers

import (
	"errors"
	"net/http"

	"github.com/upb/kitchen-dashboard/middleware"
	"github.com/upb/kitchen-dashboard/services"
	"github.com/upb/kitchen-dashboard/utils"
	"go.uber.org/zap"
)

var statusByErrorType = map[services.ErrorType]int{
	services.ErrorTypeNotFound:     http.StatusNotFound,
	services.ErrorTypeValidation:   http.StatusBadRequest,
	services.ErrorTypeUnauthorized: http.StatusUnauthorized,
	services.ErrorTypeForbidden:    http.StatusForbidden,
	services.ErrorTypeConflict:     http.StatusConflict,
	services.ErrorTypeUnavailable:  http.StatusServiceUnavailable,
	services.ErrorTypeInternal:     http.StatusInternalServerError,
}

// HandleServiceError maps domain errors to HTTP responses. Internal causes
// are logged and never reach the client.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	errType := services.GetErrorType(err)
	message := errorMessage(err)
	details := services.GetErrorDetails(err)
	if len(details) == 0 {
		details = nil
	}

	status, known := statusByErrorType[errType]
	var writeErr error
	switch {
	case !known:
		logger.Error("unhandled error type", zap.Error(err), zap.String("error_type", string(errType)))
		writeErr = utils.WriteInternalServerError(w, "An unexpected error occurred")

	case status == http.StatusInternalServerError:
		logger.Error("internal server error", zap.Error(err))
		writeErr = utils.WriteInternalServerError(w, "An internal error occurred")

	case status == http.StatusServiceUnavailable:
		logger.Warn("dependency unavailable", zap.Error(err))
		writeErr = utils.WriteServiceUnavailable(w, message, middleware.PendingRetryAfter)

	default:
		logger.Debug("request rejected",
			zap.String("type", string(errType)),
			zap.String("message", message))
		writeErr = utils.WriteError(w, status, message, details)
	}

	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}

// HandleValidationError answers 400 for request parsing failures, with one
// detail per field when err is a *utils.ValidationError
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	message := err.Error()
	var details map[string]interface{}
	if fields := utils.GetValidationFields(err); fields != nil {
		message = "Validation failed"
		details = make(map[string]interface{}, len(fields))
		for k, v := range fields {
			details[k] = v
		}
	}

	if err := utils.WriteBadRequest(w, message, details); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}

// errorMessage is the client-facing message of a domain error
func errorMessage(err error) string {
	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
