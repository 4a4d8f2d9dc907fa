// Package handlers implements the HTTP endpoints of the forecasting service.
package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/middleware"
	"github.com/soltixdb/autoets/internal/models"
	"github.com/soltixdb/autoets/internal/services"
	"github.com/soltixdb/autoets/internal/utils"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger          *logging.Logger
	forecastService *services.ForecastService
	started         time.Time
}

// New creates a new handler instance
func New(logger *logging.Logger, forecastService *services.ForecastService) *Handler {
	return &Handler{
		logger:          logger,
		forecastService: forecastService,
		started:         time.Now(),
	}
}

// requestContext bounds a request by utils.DefaultRequestTimeout and carries
// the request id set by the logging middleware.
func requestContext(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
}

// badRequest writes an INVALID_INPUT response
func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    services.ErrCodeInvalidInput,
			Message: message,
		},
	})
}

// invalidJSON writes the response for an unparsable body
func invalidJSON(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_JSON",
			Message: "Failed to parse JSON body",
			Details: map[string]interface{}{"error": err.Error()},
		},
	})
}

// serviceError writes a service error with its mapped status
func (h *Handler) serviceError(c *fiber.Ctx, err error) error {
	var se *services.ServiceError
	if !errors.As(err, &se) {
		return err
	}
	status := middleware.StatusForCode(se.Code)
	if status >= fiber.StatusInternalServerError {
		h.logger.WithContext(c.UserContext()).Error("Request failed", "path", c.Path(), "code", se.Code, "error", se.Message)
	}
	return c.Status(status).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    se.Code,
			Message: se.Message,
			Details: se.Details,
		},
	})
}
