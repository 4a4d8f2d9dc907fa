package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/soltixdb/autoets/internal/config"
	"github.com/soltixdb/autoets/internal/handlers"
	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/middleware"
	"github.com/soltixdb/autoets/internal/services"
)

// maxBodySize bounds request bodies; a maximal series of float64 values in
// JSON fits well below it.
const maxBodySize = 16 * 1024 * 1024

// Setup configures all routes and middlewares
func Setup(app *fiber.App, logger *logging.Logger, forecastService *services.ForecastService, cfg config.Config) *handlers.Handler {
	h := handlers.New(logger, forecastService)

	// Global middlewares
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-API-Key,X-Request-ID",
	}))
	app.Use(logging.FiberMiddleware(logger))

	// Health check (no auth required)
	app.Get("/health", h.Health)

	// API v1 routes (protected by API key)
	v1 := app.Group("/v1", middleware.APIKeyAuth(logger, cfg.Auth))

	v1.Get("/methods", h.ListMethods)
	v1.Post("/forecast", h.Forecast)

	// Stored models
	v1.Post("/models", h.FitModel)
	v1.Get("/models/:id", h.GetModel)
	v1.Delete("/models/:id", h.DeleteModel)
	v1.Post("/models/:id/forecast", h.ForecastModel)

	// 404 handler
	app.Use(h.NotFound)

	return h
}

// New creates a new Fiber app with configuration
func New(logger *logging.Logger, forecastService *services.ForecastService, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "AutoETS",
		DisableStartupMessage: true,
		BodyLimit:             maxBodySize,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	Setup(app, logger, forecastService, cfg)

	return app
}
