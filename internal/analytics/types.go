// Package analytics provides the common time-series types shared by the ETS engine
// and the forecaster registry.
package analytics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// TimeSeriesPoint represents a single observation with its time stamp.
type TimeSeriesPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// TimeSeriesData represents a collection of time-series data points
type TimeSeriesData []TimeSeriesPoint

// Values extracts just the values from the time series
func (ts TimeSeriesData) Values() []float64 {
	values := make([]float64, len(ts))
	for i, p := range ts {
		values[i] = p.Value
	}
	return values
}

// Times extracts just the times from the time series
func (ts TimeSeriesData) Times() []time.Time {
	times := make([]time.Time, len(ts))
	for i, p := range ts {
		times[i] = p.Time
	}
	return times
}

// Len returns the number of data points
func (ts TimeSeriesData) Len() int {
	return len(ts)
}

// Mean calculates the mean of all values
func (ts TimeSeriesData) Mean() float64 {
	if len(ts) == 0 {
		return 0
	}
	return stat.Mean(ts.Values(), nil)
}

// StdDev calculates the sample standard deviation of all values
func (ts TimeSeriesData) StdDev() float64 {
	if len(ts) < 2 {
		return 0
	}
	return stat.StdDev(ts.Values(), nil)
}

// Interval returns the spacing between the last two points, or fallback when
// the series is too short or not increasing in time.
func (ts TimeSeriesData) Interval(fallback time.Duration) time.Duration {
	if len(ts) < 2 {
		return fallback
	}
	d := ts[len(ts)-1].Time.Sub(ts[len(ts)-2].Time)
	if d <= 0 {
		return fallback
	}
	return d
}

// AllFinite reports whether every value is neither NaN nor infinite.
func AllFinite(values []float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// AllPositive reports whether every value is strictly positive.
// An empty slice is not positive.
func AllPositive(values []float64) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if !(v > 0) {
			return false
		}
	}
	return true
}

// MeanSquare returns the mean of the squared values.
func MeanSquare(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v * v
	}
	return sum / float64(len(values))
}
