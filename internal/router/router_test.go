package router

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/autoets/internal/config"
	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/services"
	"github.com/soltixdb/autoets/internal/storage"
)

var testKey = strings.Repeat("r", 40)

func newTestRouter(t *testing.T, authEnabled bool) *fiber.App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Auth = config.AuthConfig{Enabled: authEnabled, APIKeys: []string{testKey}}

	store, err := storage.NewMemoryStore(0, "snappy", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := services.NewForecastService(logging.Nop(), store, cfg.ETS)
	return New(logging.Nop(), svc, *cfg)
}

func TestRouter_HealthWithoutAuth(t *testing.T) {
	app := newTestRouter(t, true)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestRouter_V1RequiresAPIKey(t *testing.T) {
	app := newTestRouter(t, true)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/methods", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/v1/methods", nil)
	req.Header.Set("X-API-Key", testKey)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouter_Routes(t *testing.T) {
	app := newTestRouter(t, false)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{"GET", "/v1/methods", fiber.StatusOK},
		{"GET", "/v1/models/unknown", fiber.StatusNotFound},
		{"DELETE", "/v1/models/unknown", fiber.StatusNotFound},
		{"GET", "/v1/nothing", fiber.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(tt.method, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRouter_FitAndForecast(t *testing.T) {
	app := newTestRouter(t, false)

	body := `{"values":[10,12,11,13,12,14,13,15,14,16,15,17],"method":"ses"}`
	req := httptest.NewRequest("POST", "/v1/models", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 30000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	body = `{"values":[10,12,11,13,12,14,13,15,14,16,15,17],"method":"holt","horizon":2}`
	req = httptest.NewRequest("POST", "/v1/forecast", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, 30000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
