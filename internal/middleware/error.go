package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/models"
	"github.com/soltixdb/autoets/internal/services"
)

// StatusForCode maps service error codes to HTTP status codes
func StatusForCode(code string) int {
	switch code {
	case services.ErrCodeInvalidInput, services.ErrCodeInvalidMethod:
		return fiber.StatusBadRequest
	case services.ErrCodeModelNotFound:
		return fiber.StatusNotFound
	case services.ErrCodeNoViableModel:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler returns the fiber error handler. Service errors keep their
// code; fiber errors are named after their status.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		detail := models.ErrorDetail{
			Code:    "INTERNAL_ERROR",
			Message: "Internal Server Error",
		}

		var fe *fiber.Error
		var se *services.ServiceError
		switch {
		case errors.As(err, &se):
			status = StatusForCode(se.Code)
			detail = models.ErrorDetail{Code: se.Code, Message: se.Message, Details: se.Details}
		case errors.As(err, &fe):
			status = fe.Code
			detail = models.ErrorDetail{Code: statusCode(fe.Code), Message: fe.Message}
		}
		if status == fiber.StatusNotFound && detail.Code == "NOT_FOUND" {
			detail.Path = c.Path()
		}

		fields := []interface{}{
			"path", c.Path(),
			"method", c.Method(),
			"status", status,
			"error", err,
			"request_id", logging.RequestID(c.UserContext()),
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("Request error", fields...)
		} else {
			logger.Debug("Request rejected", fields...)
		}

		return c.Status(status).JSON(models.ErrorResponse{Error: detail})
	}
}

// statusCode turns an HTTP status into an upper snake case error code
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
