package forecast

import (
	"context"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/soltixdb/autoets/internal/analytics"
	"github.com/soltixdb/autoets/internal/analytics/ets"
)

// DataPoint is an alias to the shared analytics.TimeSeriesPoint type.
type DataPoint = analytics.TimeSeriesPoint

// Bound is a prediction interval around one forecast point
type Bound struct {
	Level float64 `json:"level"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// ForecastPoint represents a single forecast prediction
type ForecastPoint struct {
	Step   int        `json:"step"`
	Time   *time.Time `json:"time,omitempty"` // set when the history carries time stamps
	Value  float64    `json:"value"`
	Bounds []Bound    `json:"intervals,omitempty"`
}

// ModelInfo contains metadata about the forecast model
type ModelInfo struct {
	Algorithm  string             `json:"algorithm"`
	Model      string             `json:"model"` // e.g. ETS(A,Ad,N)
	Parameters map[string]float64 `json:"parameters,omitempty"`
	AICc       float64            `json:"aicc"`
	Sigma2     float64            `json:"sigma2"`
	Simulated  bool               `json:"simulated"`      // intervals from sample paths
	MAPE       float64            `json:"mape,omitempty"` // Mean Absolute Percentage Error
	MAE        float64            `json:"mae,omitempty"`  // Mean Absolute Error
	RMSE       float64            `json:"rmse,omitempty"` // Root Mean Squared Error
	DataPoints int                `json:"data_points"`    // Number of data points used
}

// ForecastResult contains the forecast predictions and model information
type ForecastResult struct {
	Predictions []ForecastPoint   `json:"predictions"`
	Fitted      []float64         `json:"fitted,omitempty"`    // One-step predictions over the history
	Residuals   []float64         `json:"residuals,omitempty"` // actual - fitted
	ModelInfo   ModelInfo         `json:"model_info"`
	Summary     *ets.ModelSummary `json:"summary,omitempty"`
}

// ForecastConfig holds configuration for forecasting
type ForecastConfig struct {
	Horizon        int           // Number of periods to forecast
	SeasonalPeriod int           // Observations per seasonal cycle (1 = none)
	Levels         []float64     // Interval confidence levels in (0, 1)
	Interval       time.Duration // Spacing of forecast time stamps (0 = infer from data)
	Origin         time.Time     // Last observed time when no history is passed to Predict

	Selection  ets.SelectorConfig // Candidate screening and optimizer budget
	Simulation ets.ForecastConfig // Sample paths for nonlinear models
}

// DefaultForecastConfig returns default forecast configuration
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		Horizon:        24,
		SeasonalPeriod: 1,
		Levels:         []float64{0.8, 0.95},
		Selection:      ets.DefaultSelectorConfig(),
		Simulation:     ets.DefaultForecastConfig(),
	}
}

// Forecaster interface for all forecasting algorithms
type Forecaster interface {
	// Name returns the algorithm name
	Name() string
	// Description is a one-line explanation shown by the methods endpoint
	Description() string
	// Fit estimates a model on values
	Fit(ctx context.Context, values []float64, config ForecastConfig) (*ets.FittedModel, error)
	// Forecast fits data and generates predictions for future time periods
	Forecast(ctx context.Context, data []DataPoint, config ForecastConfig) (*ForecastResult, error)
}

// Registry holds available forecasters
var forecasterRegistry = make(map[string]Forecaster)

// RegisterForecaster adds a forecaster to the registry
func RegisterForecaster(name string, forecaster Forecaster) {
	forecasterRegistry[name] = forecaster
}

// GetForecaster returns a forecaster by name
func GetForecaster(name string) (Forecaster, error) {
	if forecaster, ok := forecasterRegistry[name]; ok {
		return forecaster, nil
	}
	return nil, fmt.Errorf("unknown forecaster: %s", name)
}

// ListForecasters returns the available forecaster names in sorted order
func ListForecasters() []string {
	return slices.Sorted(maps.Keys(forecasterRegistry))
}

// fitAndPredict is the shared Forecast implementation of every registered forecaster.
func fitAndPredict(ctx context.Context, f Forecaster, data []DataPoint, config ForecastConfig) (*ForecastResult, error) {
	values := analytics.TimeSeriesData(data).Values()
	model, err := f.Fit(ctx, values, config)
	if err != nil {
		return nil, err
	}
	result, err := Predict(model, data, config)
	if err != nil {
		return nil, err
	}
	result.ModelInfo.Algorithm = f.Name()
	return result, nil
}

// Predict forecasts config.Horizon steps ahead of a fitted model. history is
// the series the model was fitted on and may be nil for a restored model;
// when present it supplies time stamps and accuracy metrics. Without history,
// config.Origin and config.Interval stamp the forecasts.
func Predict(model *ets.FittedModel, history []DataPoint, config ForecastConfig) (*ForecastResult, error) {
	fc, err := ets.Forecast(model, config.Horizon, config.Levels, config.Simulation)
	if err != nil {
		return nil, err
	}

	var last time.Time
	interval := config.Interval
	stamped := false
	if n := len(history); n > 0 && !history[n-1].Time.IsZero() {
		last = history[n-1].Time
		if interval <= 0 {
			interval = analytics.TimeSeriesData(history).Interval(0)
		}
		stamped = interval > 0
	} else if !config.Origin.IsZero() && interval > 0 {
		last = config.Origin
		stamped = true
	}

	predictions := make([]ForecastPoint, fc.Horizon)
	for i := range predictions {
		p := ForecastPoint{Step: i + 1, Value: fc.Point[i]}
		if stamped {
			ts := last.Add(interval * time.Duration(i+1))
			p.Time = &ts
		}
		for _, iv := range fc.Intervals {
			p.Bounds = append(p.Bounds, Bound{Level: iv.Level, Lower: iv.Lower[i], Upper: iv.Upper[i]})
		}
		predictions[i] = p
	}

	summary := ets.Summarize(model)
	result := &ForecastResult{
		Predictions: predictions,
		Summary:     &summary,
		ModelInfo: ModelInfo{
			Model:      summary.Spec,
			Parameters: summary.Parameters,
			AICc:       summary.AICc,
			Sigma2:     summary.Sigma2,
			Simulated:  fc.Simulated,
			DataPoints: model.N(),
		},
	}

	fitted := model.Fitted()
	if len(history) == len(fitted) && len(fitted) > 0 {
		actual := analytics.TimeSeriesData(history).Values()
		residuals := make([]float64, len(actual))
		for i := range actual {
			residuals[i] = actual[i] - fitted[i]
		}
		result.Fitted = fitted
		result.Residuals = residuals
		result.ModelInfo.MAPE = CalculateMAPE(actual, fitted)
		result.ModelInfo.MAE = CalculateMAE(actual, fitted)
		result.ModelInfo.RMSE = CalculateRMSE(actual, fitted)
	}
	return result, nil
}

// CalculateMAPE calculates Mean Absolute Percentage Error
func CalculateMAPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] != 0 {
			sum += math.Abs((actual[i] - predicted[i]) / actual[i])
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return (sum / float64(count)) * 100
}

// CalculateMAE calculates Mean Absolute Error
func CalculateMAE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// CalculateRMSE calculates Root Mean Squared Error
func CalculateRMSE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(actual)))
}
