package forecast

import (
	"context"

	"github.com/soltixdb/autoets/internal/analytics/ets"
)

// AutoForecaster fits every admissible ETS model and keeps the one with the
// lowest AICc.
type AutoForecaster struct{}

// NewAutoForecaster creates a new Auto forecaster
func NewAutoForecaster() *AutoForecaster {
	return &AutoForecaster{}
}

func init() {
	RegisterForecaster("auto", NewAutoForecaster())
}

// Name returns the algorithm name
func (f *AutoForecaster) Name() string {
	return "auto"
}

// Description returns a one-line explanation of the method
func (f *AutoForecaster) Description() string {
	return "automatic ETS model selection by AICc"
}

// Fit runs automatic model selection on values
func (f *AutoForecaster) Fit(ctx context.Context, values []float64, config ForecastConfig) (*ets.FittedModel, error) {
	return ets.NewSelector(config.Selection).Fit(ctx, values, seasonalPeriod(config))
}

// Forecast selects a model for data and forecasts from it
func (f *AutoForecaster) Forecast(ctx context.Context, data []DataPoint, config ForecastConfig) (*ForecastResult, error) {
	return fitAndPredict(ctx, f, data, config)
}

func seasonalPeriod(config ForecastConfig) int {
	if config.SeasonalPeriod <= 0 {
		return 1
	}
	return config.SeasonalPeriod
}
