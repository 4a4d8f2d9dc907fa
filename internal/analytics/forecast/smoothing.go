package forecast

import (
	"context"
	"errors"

	"github.com/soltixdb/autoets/internal/analytics/ets"
)

// SmoothingForecaster fits one fixed ETS specification. When the series is
// too short for the seasonal period and a fallback is set, the fallback is
// fitted instead.
type SmoothingForecaster struct {
	name        string
	description string
	spec        ets.Spec
	fallback    *SmoothingForecaster
}

// NewSmoothingForecaster creates a forecaster for a fixed specification
func NewSmoothingForecaster(name, description string, spec ets.Spec) *SmoothingForecaster {
	return &SmoothingForecaster{name: name, description: description, spec: spec}
}

// WithFallback returns a copy of f that falls back to other on series too
// short for the seasonal component.
func (f *SmoothingForecaster) WithFallback(other *SmoothingForecaster) *SmoothingForecaster {
	c := *f
	c.fallback = other
	return &c
}

func mustParse(code string) ets.Spec {
	spec, err := ets.ParseSpec(code)
	if err != nil {
		panic(err)
	}
	return spec
}

var (
	sesForecaster = NewSmoothingForecaster("ses",
		"simple exponential smoothing, ETS(A,N,N)", mustParse("ANN"))
	holtForecaster = NewSmoothingForecaster("holt",
		"Holt's linear trend, ETS(A,A,N)", mustParse("AAN"))
	dampedForecaster = NewSmoothingForecaster("damped",
		"damped additive trend, ETS(A,Ad,N)", mustParse("AAdN"))
	holtWintersForecaster = NewSmoothingForecaster("holt_winters",
		"additive Holt-Winters, ETS(A,A,A)", mustParse("AAA")).WithFallback(holtForecaster)
	holtWintersMultForecaster = NewSmoothingForecaster("holt_winters_multiplicative",
		"multiplicative Holt-Winters, ETS(M,A,M)", mustParse("MAM")).WithFallback(holtForecaster)
)

func init() {
	for _, f := range []*SmoothingForecaster{
		sesForecaster,
		holtForecaster,
		dampedForecaster,
		holtWintersForecaster,
		holtWintersMultForecaster,
	} {
		RegisterForecaster(f.name, f)
	}
}

// Name returns the algorithm name
func (f *SmoothingForecaster) Name() string {
	return f.name
}

// Description returns a one-line explanation of the method
func (f *SmoothingForecaster) Description() string {
	return f.description
}

// Spec returns the fitted specification
func (f *SmoothingForecaster) Spec() ets.Spec {
	return f.spec
}

// Fit estimates the fixed specification on values
func (f *SmoothingForecaster) Fit(ctx context.Context, values []float64, config ForecastConfig) (*ets.FittedModel, error) {
	period := seasonalPeriod(config)
	if f.spec.HasSeason() && f.fallback != nil && seasonTooShort(values, period) {
		return f.fallback.Fit(ctx, values, ForecastConfig{
			SeasonalPeriod: 1,
			Selection:      config.Selection,
		})
	}
	if !f.spec.HasSeason() {
		period = 1
	}
	return ets.FitSpec(ctx, f.spec, values, period, config.Selection.Optimizer)
}

// Forecast fits data and forecasts from the fitted model
func (f *SmoothingForecaster) Forecast(ctx context.Context, data []DataPoint, config ForecastConfig) (*ForecastResult, error) {
	return fitAndPredict(ctx, f, data, config)
}

func seasonTooShort(values []float64, period int) bool {
	if period < 2 {
		return true
	}
	return errors.Is(ets.ValidateSeries(values, period), ets.ErrTooShortForSeason)
}
