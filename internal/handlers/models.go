package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/models"
)

// FitModel fits and stores a model
// POST /v1/models
func (h *Handler) FitModel(c *fiber.Ctx) error {
	var body models.FitRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidJSON(c, err)
	}

	req, err := body.ToService()
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.forecastService.Fit(ctx, req)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetModel returns the summary of a stored model
// GET /v1/models/:id
func (h *Handler) GetModel(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()
	ctx = logging.WithModelID(ctx, c.Params("id"))

	result, err := h.forecastService.Summary(ctx, c.Params("id"))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(result)
}

// DeleteModel removes a stored model
// DELETE /v1/models/:id
func (h *Handler) DeleteModel(c *fiber.Ctx) error {
	id := c.Params("id")

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.forecastService.Delete(ctx, id); err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(models.DeleteResponse{ModelID: id, Deleted: true})
}

// ForecastModel forecasts from a stored model
// POST /v1/models/:id/forecast
func (h *Handler) ForecastModel(c *fiber.Ctx) error {
	var body models.ModelForecastRequest
	if err := c.BodyParser(&body); err != nil {
		return invalidJSON(c, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	result, err := h.forecastService.Forecast(ctx, body.ToService(c.Params("id")))
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(result)
}
