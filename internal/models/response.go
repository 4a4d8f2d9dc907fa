package models

import (
	"github.com/soltixdb/autoets/internal/services"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Uptime    string `json:"uptime"`
	Methods   int    `json:"methods"` // Registered forecasting methods
}

// MethodListResponse lists the registered forecasting methods
type MethodListResponse struct {
	Methods []services.MethodInfo `json:"methods"`
}

// DeleteResponse confirms a model deletion
type DeleteResponse struct {
	ModelID string `json:"model_id"`
	Deleted bool   `json:"deleted"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
