package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/autoets/internal/analytics/anomaly"
	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/utils"
)

func TestForecastConfigFromETS(t *testing.T) {
	cfg := testETSConfig()
	fc := ForecastConfigFromETS(cfg, logging.Nop())

	assert.Equal(t, []float64{0.8, 0.95}, fc.Levels)
	assert.Equal(t, 4, fc.Selection.Workers)
	assert.Equal(t, 5, fc.Selection.MinResidualDF)
	assert.Equal(t, 24, fc.Selection.MaxSeasonalPeriod)
	assert.Equal(t, 400, fc.Selection.Optimizer.MaxIterations)
	assert.Equal(t, 2000, fc.Selection.Optimizer.MaxEvaluations)
	assert.Equal(t, 1e-6, fc.Selection.Optimizer.Tolerance)
	assert.Equal(t, 200, fc.Simulation.SimulationPaths)
	assert.Equal(t, uint64(7), fc.Simulation.Seed)

	// The defaults are copied, not shared.
	cfg.DefaultLevels[0] = 0.5
	assert.Equal(t, 0.8, fc.Levels[0])
}

func TestForecastService_Methods(t *testing.T) {
	svc, _ := newTestService(t)

	methods := svc.Methods()
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name
		assert.NotEmpty(t, m.Description, m.Name)
	}
	assert.Contains(t, names, "auto")
	assert.Contains(t, names, "ses")
	assert.Contains(t, names, "holt_winters")
	assert.IsIncreasing(t, names)
}

func TestForecastService_Fit(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Fit(ctx, &FitRequest{
		Series: Series{Values: noisyLevel(40, 10), Times: hourly(40)},
		Method: "ses",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ModelID)
	assert.Equal(t, "ses", resp.Method)
	assert.Equal(t, 40, resp.Summary.N)
	assert.Equal(t, "none", resp.Summary.TrendKind)
	assert.Equal(t, 1, store.Len())

	rec, err := store.Load(ctx, resp.ModelID)
	require.NoError(t, err)
	require.NotNil(t, rec.LastTime)
	assert.True(t, rec.LastTime.Equal(hourly(40)[39]))
	assert.Equal(t, time.Hour, rec.Interval, "interval inferred from time stamps")
}

func TestForecastService_FitDefaultsToAuto(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Fit(context.Background(), &FitRequest{
		Series: Series{Values: seasonalSeries(48), SeasonalPeriod: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultMethod, resp.Method)
	assert.Equal(t, 4, resp.Summary.SeasonalPeriod)
}

func TestForecastService_FitErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Fit(ctx, &FitRequest{Series: Series{Values: noisyLevel(20, 5)}, Method: "arima"})
	se := requireCode(t, err, ErrCodeInvalidMethod)
	assert.Contains(t, se.Details["available_methods"], "auto")

	_, err = svc.Fit(ctx, &FitRequest{Series: Series{Values: []float64{1}}})
	requireCode(t, err, ErrCodeInvalidInput)

	_, err = svc.Fit(ctx, &FitRequest{Series: Series{Values: noisyLevel(6, 5), SeasonalPeriod: 12}})
	requireCode(t, err, ErrCodeInvalidInput)

	_, err = svc.Fit(ctx, &FitRequest{Series: Series{Values: noisyLevel(10, 5), SeasonalPeriod: -1}})
	requireCode(t, err, ErrCodeInvalidInput)

	_, err = svc.Fit(ctx, &FitRequest{Series: Series{Values: noisyLevel(10, 5), Times: hourly(9)}})
	requireCode(t, err, ErrCodeInvalidInput)

	times := hourly(10)
	times[5] = times[4]
	_, err = svc.Fit(ctx, &FitRequest{Series: Series{Values: noisyLevel(10, 5), Times: times}})
	requireCode(t, err, ErrCodeInvalidInput)

	_, err = svc.Fit(ctx, &FitRequest{Series: Series{Values: make([]float64, utils.MaxSeriesLength+1)}})
	requireCode(t, err, ErrCodeInvalidInput)

	_, err = svc.Fit(ctx, &FitRequest{
		Series: Series{Values: []float64{1, -2, 3, -4, 5, -6, 7, -8}, SeasonalPeriod: 2},
		Method: "holt_winters_multiplicative",
	})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestForecastService_FitStoreFailure(t *testing.T) {
	svc := NewForecastService(logging.Nop(), failingStore{}, testETSConfig())

	_, err := svc.Fit(context.Background(), &FitRequest{Series: Series{Values: noisyLevel(20, 5)}, Method: "ses"})
	requireCode(t, err, ErrCodeForecastFailed)
}

func TestForecastService_ForecastStoredModel(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	values := noisyLevel(40, 10)
	times := hourly(40)
	fit, err := svc.Fit(ctx, &FitRequest{Series: Series{Values: values, Times: times}, Method: "ses"})
	require.NoError(t, err)

	resp, err := svc.Forecast(ctx, &ForecastRequest{ModelID: fit.ModelID, Horizon: 5})
	require.NoError(t, err)
	assert.Equal(t, fit.ModelID, resp.ModelID)
	assert.Equal(t, "ses", resp.Method)
	assert.Equal(t, "ses", resp.ModelInfo.Algorithm)
	require.Len(t, resp.Predictions, 5)
	assert.Nil(t, resp.Fitted, "a stored model carries no fitted values")

	for i, p := range resp.Predictions {
		assert.Equal(t, i+1, p.Step)
		require.NotNil(t, p.Time)
		assert.True(t, p.Time.Equal(times[39].Add(time.Duration(i+1)*time.Hour)))
		require.Len(t, p.Bounds, 2)
		assert.Equal(t, 0.8, p.Bounds[0].Level)
		assert.Equal(t, 0.95, p.Bounds[1].Level)
		assert.Less(t, p.Bounds[1].Lower, p.Bounds[0].Lower)
	}

	// The stored model forecasts what the freshly fitted one would.
	inline, err := svc.Forecast(ctx, &ForecastRequest{
		Series:  Series{Values: values, Times: times},
		Method:  "ses",
		Horizon: 5,
	})
	require.NoError(t, err)
	for i := range resp.Predictions {
		assert.InDelta(t, inline.Predictions[i].Value, resp.Predictions[i].Value, 1e-9)
	}
}

func TestForecastService_ForecastCustomLevels(t *testing.T) {
	svc, _ := newTestService(t)

	resp, err := svc.Forecast(context.Background(), &ForecastRequest{
		Series:  Series{Values: noisyLevel(30, 3)},
		Method:  "ses",
		Horizon: 2,
		Levels:  []float64{0.9},
	})
	require.NoError(t, err)
	require.Len(t, resp.Predictions[0].Bounds, 1)
	assert.Equal(t, 0.9, resp.Predictions[0].Bounds[0].Level)
	assert.Nil(t, resp.Predictions[0].Time, "no time stamps without timestamps or interval")
	assert.Len(t, resp.Fitted, 30)
	assert.Len(t, resp.Residuals, 30)
	assert.Empty(t, resp.ModelID)
}

func TestForecastService_ForecastInlineStore(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	resp, err := svc.Forecast(ctx, &ForecastRequest{
		Series:  Series{Values: seasonalSeries(40), SeasonalPeriod: 4, Interval: 15 * time.Minute},
		Method:  "holt_winters",
		Horizon: 8,
		Store:   true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ModelID)
	assert.Equal(t, 1, store.Len())

	details, err := svc.Summary(ctx, resp.ModelID)
	require.NoError(t, err)
	assert.Equal(t, "holt_winters", details.Method)
	assert.Equal(t, "additive", details.Summary.SeasonKind)
	assert.Equal(t, "15m0s", details.Interval)
	assert.Empty(t, details.LastTime)

	require.NoError(t, svc.Delete(ctx, resp.ModelID))
	_, err = svc.Summary(ctx, resp.ModelID)
	requireCode(t, err, ErrCodeModelNotFound)
	requireCode(t, svc.Delete(ctx, resp.ModelID), ErrCodeModelNotFound)
}

func TestForecastService_ForecastAnomalies(t *testing.T) {
	svc, _ := newTestService(t)

	values := noisyLevel(60, 20)
	values[30] += 20

	resp, err := svc.Forecast(context.Background(), &ForecastRequest{
		Series:           Series{Values: values, Times: hourly(60)},
		Method:           "ses",
		Horizon:          1,
		AnomalyThreshold: 3,
	})
	require.NoError(t, err)

	var found *anomaly.Anomaly
	for i := range resp.Anomalies {
		if resp.Anomalies[i].Index == 30 {
			found = &resp.Anomalies[i]
		}
	}
	require.NotNil(t, found, "spike at index 30 should be flagged")
	assert.Equal(t, anomaly.AnomalyTypeSpike, found.Type)
	assert.Greater(t, found.Score, 3.0)
	assert.NotEmpty(t, found.Time)
}

func TestForecastService_ForecastValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	values := noisyLevel(20, 5)

	tests := []struct {
		name string
		req  *ForecastRequest
		code string
	}{
		{"neither model nor values", &ForecastRequest{Horizon: 3}, ErrCodeInvalidInput},
		{"both model and values", &ForecastRequest{ModelID: "x", Series: Series{Values: values}, Horizon: 3}, ErrCodeInvalidInput},
		{"zero horizon", &ForecastRequest{Series: Series{Values: values}}, ErrCodeInvalidInput},
		{"horizon above max", &ForecastRequest{Series: Series{Values: values}, Horizon: 49}, ErrCodeInvalidInput},
		{"too many levels", &ForecastRequest{Series: Series{Values: values}, Horizon: 3, Levels: make([]float64, utils.MaxLevels+1)}, ErrCodeInvalidInput},
		{"level out of range", &ForecastRequest{Series: Series{Values: values}, Horizon: 3, Levels: []float64{1}}, ErrCodeInvalidInput},
		{"negative threshold", &ForecastRequest{Series: Series{Values: values}, Horizon: 3, AnomalyThreshold: -1}, ErrCodeInvalidInput},
		{"unknown method", &ForecastRequest{Series: Series{Values: values}, Horizon: 3, Method: "lstm"}, ErrCodeInvalidMethod},
		{"unknown model", &ForecastRequest{ModelID: "missing", Horizon: 3}, ErrCodeModelNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Forecast(ctx, tt.req)
			requireCode(t, err, tt.code)
		})
	}
}

func TestForecastService_ForecastCancelled(t *testing.T) {
	svc, _ := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Forecast(ctx, &ForecastRequest{Series: Series{Values: seasonalSeries(40), SeasonalPeriod: 4}, Horizon: 3})
	requireCode(t, err, ErrCodeForecastFailed)
}
