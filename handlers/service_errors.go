package handlers

import (
	"errors"
	"net/http"

	"github.com/taalumaworld/admin-access/services"
	"github.com/taalumaworld/admin-access/utils"
	"go.uber.org/zap"
)

// errorStatus maps domain error types to HTTP status codes
var errorStatus = map[services.ErrorType]int{
	services.ErrorTypeNotFound:     http.StatusNotFound,
	services.ErrorTypeValidation:   http.StatusBadRequest,
	services.ErrorTypeUnauthorized: http.StatusUnauthorized,
	services.ErrorTypeForbidden:    http.StatusForbidden,
	services.ErrorTypeConflict:     http.StatusConflict,
	services.ErrorTypeUnavailable:  http.StatusServiceUnavailable,
	services.ErrorTypeInternal:     http.StatusInternalServerError,
}

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	errType := services.GetErrorType(err)
	status, known := errorStatus[errType]
	message := err.Error()
	var details map[string]interface{}

	switch {
	case !known:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(errType)))
		status = http.StatusInternalServerError
		message = "An unexpected error occurred"

	case errType == services.ErrorTypeInternal:
		// internal causes stay in the log
		logger.Error("internal server error", zap.Error(err))
		message = "An internal error occurred"

	case errType == services.ErrorTypeUnavailable:
		logger.Warn("service unavailable", zap.Error(err))

	case errType == services.ErrorTypeValidation || errType == services.ErrorTypeConflict || errType == services.ErrorTypeForbidden:
		details = services.GetErrorDetails(err)
	}

	if err := utils.WriteError(w, status, message, details); err != nil {
		logger.Error("failed to write error response",
			zap.Int("status", status),
			zap.Error(err))
	}

	var domainErr *services.DomainError
	if errors.As(err, &domainErr) {
		logger.Debug("handled service error",
			zap.String("type", string(domainErr.Type)),
			zap.String("message", domainErr.Message),
			zap.Any("details", domainErr.Details))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		if err := utils.WriteBadRequest(w, "Validation failed", utils.ValidationDetails(err)); err != nil {
			logger.Error("failed to write validation error response", zap.Error(err))
		}
		return
	}

	if err := utils.WriteBadRequest(w, err.Error(), nil); err != nil {
		logger.Error("failed to write validation error response", zap.Error(err))
	}
}
