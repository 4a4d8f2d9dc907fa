// Package services provides the business logic between the transports
// (HTTP handlers, queue workers) and the ETS engine and model store.
package services

import (
	"context"
	"errors"

	"github.com/soltixdb/autoets/internal/analytics/ets"
	"github.com/soltixdb/autoets/internal/storage"
)

// Error codes returned to clients
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeNoViableModel  = "NO_VIABLE_MODEL"
	ErrCodeModelNotFound  = "MODEL_NOT_FOUND"
	ErrCodeInvalidMethod  = "INVALID_METHOD"
	ErrCodeForecastFailed = "FORECAST_FAILED"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// toServiceError classifies engine and store errors. A *ServiceError is
// returned unchanged.
func toServiceError(err error) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}

	details := map[string]interface{}{"error": err.Error()}
	switch {
	case errors.Is(err, storage.ErrModelNotFound):
		return NewServiceError(ErrCodeModelNotFound, "Model not found")
	case ets.IsInputError(err):
		return NewServiceErrorWithDetails(ErrCodeInvalidInput, err.Error(), nil)
	case errors.Is(err, ets.ErrNoViableModel):
		return NewServiceErrorWithDetails(ErrCodeNoViableModel, "No candidate model could be fitted", details)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewServiceErrorWithDetails(ErrCodeForecastFailed, "Forecast was cancelled or timed out", details)
	default:
		return NewServiceErrorWithDetails(ErrCodeForecastFailed, "Forecast failed", details)
	}
}
