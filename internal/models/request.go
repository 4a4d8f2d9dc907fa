package models

import (
	"fmt"
	"time"

	"github.com/soltixdb/autoets/internal/services"
)

// SeriesRequest is an observed series in a request body
type SeriesRequest struct {
	Values         []float64 `json:"values"`
	Timestamps     []string  `json:"timestamps,omitempty"`      // RFC3339, one per value
	SeasonalPeriod int       `json:"seasonal_period,omitempty"` // 1 or omitted = non-seasonal
	Interval       string    `json:"interval,omitempty"`        // Go duration, e.g. "15m"
}

// FitRequest represents a fit-and-store request
type FitRequest struct {
	SeriesRequest
	Method string `json:"method,omitempty"` // auto (default), ses, holt, ...
}

// ForecastRequest represents a fit-and-forecast request
type ForecastRequest struct {
	SeriesRequest
	Method           string    `json:"method,omitempty"`
	Horizon          int       `json:"horizon"`
	Levels           []float64 `json:"levels,omitempty"`
	Store            bool      `json:"store,omitempty"`
	AnomalyThreshold float64   `json:"anomaly_threshold,omitempty"`
}

// ModelForecastRequest represents a forecast request for a stored model
type ModelForecastRequest struct {
	Horizon int       `json:"horizon"`
	Levels  []float64 `json:"levels,omitempty"`
}

// ToSeries parses timestamps and interval into a service series
func (r *SeriesRequest) ToSeries() (services.Series, error) {
	series := services.Series{
		Values:         r.Values,
		SeasonalPeriod: r.SeasonalPeriod,
	}

	if len(r.Timestamps) > 0 {
		series.Times = make([]time.Time, len(r.Timestamps))
		for i, ts := range r.Timestamps {
			t, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return services.Series{}, fmt.Errorf("timestamps[%d] must be in RFC3339 format", i)
			}
			series.Times[i] = t
		}
	}

	if r.Interval != "" {
		d, err := time.ParseDuration(r.Interval)
		if err != nil || d <= 0 {
			return services.Series{}, fmt.Errorf("interval must be a positive duration such as 1h or 15m")
		}
		series.Interval = d
	}

	return series, nil
}

// ToService converts the body into a service fit request
func (r *FitRequest) ToService() (*services.FitRequest, error) {
	series, err := r.ToSeries()
	if err != nil {
		return nil, err
	}
	return &services.FitRequest{Series: series, Method: r.Method}, nil
}

// ToService converts the body into a service forecast request
func (r *ForecastRequest) ToService() (*services.ForecastRequest, error) {
	if len(r.Values) == 0 {
		return nil, fmt.Errorf("values is required")
	}
	series, err := r.ToSeries()
	if err != nil {
		return nil, err
	}
	return &services.ForecastRequest{
		Series:           series,
		Method:           r.Method,
		Horizon:          r.Horizon,
		Levels:           r.Levels,
		Store:            r.Store,
		AnomalyThreshold: r.AnomalyThreshold,
	}, nil
}

// ToService converts the body into a service forecast request for modelID
func (r *ModelForecastRequest) ToService(modelID string) *services.ForecastRequest {
	return &services.ForecastRequest{
		ModelID: modelID,
		Horizon: r.Horizon,
		Levels:  r.Levels,
	}
}
