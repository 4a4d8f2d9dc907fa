package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/autoets/internal/config"
	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/middleware"
	"github.com/soltixdb/autoets/internal/services"
	"github.com/soltixdb/autoets/internal/storage"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	store, err := storage.NewMemoryStore(0, "none", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := config.DefaultConfig().ETS
	cfg.MaxIterations = 400
	cfg.MaxEvaluations = 2000
	cfg.Tolerance = 1e-6
	cfg.SimulationPaths = 200
	cfg.MaxHorizon = 100

	h := New(logging.Nop(), services.NewForecastService(logging.Nop(), store, cfg))

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logging.Nop())})
	app.Get("/health", h.Health)
	app.Get("/v1/methods", h.ListMethods)
	app.Post("/v1/forecast", h.Forecast)
	app.Post("/v1/models", h.FitModel)
	app.Get("/v1/models/:id", h.GetModel)
	app.Delete("/v1/models/:id", h.DeleteModel)
	app.Post("/v1/models/:id/forecast", h.ForecastModel)
	app.Use(h.NotFound)
	return app
}

// do sends a request with an optional JSON body and decodes the response
// into out when out is not nil.
func do(t *testing.T, app *fiber.App, method, path string, body interface{}, out interface{}) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, 30000)
	require.NoError(t, err)

	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), string(raw))
	}
	return resp.StatusCode
}

func waveValues(n int) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = 20 + 3*math.Sin(float64(i)/2) + 0.05*float64(i%5)
	}
	return y
}
