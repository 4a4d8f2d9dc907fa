package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/autoets/internal/models"
)

// Health reports liveness, build version and the number of forecasting
// methods this instance serves
func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
		Methods:   len(h.forecastService.Methods()),
	})
}

// NotFound answers any route outside the API
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "no route for " + c.Method() + " " + c.Path(),
			Path:    c.Path(),
		},
	})
}
