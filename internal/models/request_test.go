package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesRequest_ToSeries(t *testing.T) {
	tests := []struct {
		name    string
		req     SeriesRequest
		wantErr bool
	}{
		{
			name: "values only",
			req:  SeriesRequest{Values: []float64{1, 2, 3}},
		},
		{
			name: "timestamps and interval",
			req: SeriesRequest{
				Values:     []float64{1, 2},
				Timestamps: []string{"2026-01-01T00:00:00Z", "2026-01-01T01:00:00Z"},
				Interval:   "1h",
			},
		},
		{
			name:    "bad timestamp",
			req:     SeriesRequest{Values: []float64{1}, Timestamps: []string{"yesterday"}},
			wantErr: true,
		},
		{
			name:    "bad interval",
			req:     SeriesRequest{Values: []float64{1}, Interval: "hourly"},
			wantErr: true,
		},
		{
			name:    "negative interval",
			req:     SeriesRequest{Values: []float64{1}, Interval: "-1h"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			series, err := tt.req.ToSeries()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.req.Values, series.Values)
			assert.Len(t, series.Times, len(tt.req.Timestamps))
		})
	}
}

func TestSeriesRequest_ParsedFields(t *testing.T) {
	req := SeriesRequest{
		Values:         []float64{1, 2},
		Timestamps:     []string{"2026-01-01T00:00:00Z", "2026-01-01T00:15:00+00:00"},
		SeasonalPeriod: 4,
		Interval:       "15m",
	}

	series, err := req.ToSeries()
	require.NoError(t, err)
	assert.Equal(t, 4, series.SeasonalPeriod)
	assert.Equal(t, 15*time.Minute, series.Interval)
	assert.True(t, series.Times[1].Equal(time.Date(2026, 1, 1, 0, 15, 0, 0, time.UTC)))
}

func TestForecastRequest_ToService(t *testing.T) {
	req := ForecastRequest{
		SeriesRequest:    SeriesRequest{Values: []float64{1, 2, 3}},
		Method:           "holt",
		Horizon:          6,
		Levels:           []float64{0.9},
		Store:            true,
		AnomalyThreshold: 2,
	}

	svcReq, err := req.ToService()
	require.NoError(t, err)
	assert.Equal(t, "holt", svcReq.Method)
	assert.Equal(t, 6, svcReq.Horizon)
	assert.Equal(t, []float64{0.9}, svcReq.Levels)
	assert.True(t, svcReq.Store)
	assert.Equal(t, 2.0, svcReq.AnomalyThreshold)
	assert.Empty(t, svcReq.ModelID)

	_, err = (&ForecastRequest{Horizon: 3}).ToService()
	assert.Error(t, err, "values are required")
}

func TestModelForecastRequest_ToService(t *testing.T) {
	svcReq := (&ModelForecastRequest{Horizon: 3}).ToService("abc")
	assert.Equal(t, "abc", svcReq.ModelID)
	assert.Equal(t, 3, svcReq.Horizon)
	assert.Empty(t, svcReq.Values)
}

func TestFitRequest_ToService(t *testing.T) {
	req := FitRequest{SeriesRequest: SeriesRequest{Values: []float64{1, 2}, SeasonalPeriod: 2}, Method: "auto"}
	svcReq, err := req.ToService()
	require.NoError(t, err)
	assert.Equal(t, "auto", svcReq.Method)
	assert.Equal(t, 2, svcReq.SeasonalPeriod)

	req.Timestamps = []string{"bad", "worse"}
	_, err = req.ToService()
	assert.Error(t, err)
}
