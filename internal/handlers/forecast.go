package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/autoets/internal/models"
)

// ListMethods lists the registered forecasting methods
// GET /v1/methods
func (h *Handler) ListMethods(c *fiber.Ctx) error {
	return c.JSON(models.MethodListResponse{Methods: h.forecastService.Methods()})
}

// Forecast fits a model on the posted series and forecasts from it
// POST /v1/forecast
func (h *Handler) Forecast(c *fiber.Ctx) error {
	var body models.ForecastRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidJSON(c, err)
	}

	req, err := body.ToService()
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.forecastService.Forecast(ctx, req)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(result)
}
