// Package anomaly flags observations that a fitted ETS model did not expect:
// points whose one-step innovation lies more than a threshold number of
// standard deviations from zero.
package anomaly

import (
	"fmt"
	"math"
	"time"

	"github.com/soltixdb/autoets/internal/analytics"
	"github.com/soltixdb/autoets/internal/analytics/ets"
)

// AnomalyType represents the type of anomaly detected
type AnomalyType string

const (
	AnomalyTypeSpike AnomalyType = "spike" // Above the expected range
	AnomalyTypeDrop  AnomalyType = "drop"  // Below the expected range
)

// DataPoint is an alias to the shared analytics.TimeSeriesPoint type.
type DataPoint = analytics.TimeSeriesPoint

// Anomaly is one observation outside its one-step prediction band
type Anomaly struct {
	Index    int         `json:"index"`
	Time     string      `json:"time,omitempty"`
	Value    float64     `json:"value"`
	Expected Range       `json:"expected"`
	Score    float64     `json:"score"` // |innovation| / sigma
	Type     AnomalyType `json:"type"`
}

// Range represents expected value range
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DetectorConfig holds configuration for anomaly detection
type DetectorConfig struct {
	// Threshold in innovation standard deviations
	Threshold float64
}

// DefaultConfig returns default detector configuration
func DefaultConfig() DetectorConfig {
	return DetectorConfig{
		Threshold: 3.0,
	}
}

// Detect compares data with the one-step predictions of model, which must
// have been fitted on exactly these observations.
func Detect(model *ets.FittedModel, data []DataPoint, config DetectorConfig) ([]Anomaly, error) {
	fitted := model.Fitted()
	if len(fitted) != len(data) {
		return nil, fmt.Errorf("model was fitted on %d observations, got %d", len(fitted), len(data))
	}
	if config.Threshold <= 0 {
		config.Threshold = DefaultConfig().Threshold
	}

	sigma := math.Sqrt(model.Sigma2())
	if sigma == 0 || math.IsNaN(sigma) {
		return nil, nil
	}
	relative := model.Spec().Error == ets.ErrorMultiplicative
	innovations := model.Residuals()

	var out []Anomaly
	for i, dp := range data {
		score := math.Abs(innovations[i]) / sigma
		if score <= config.Threshold {
			continue
		}

		half := config.Threshold * sigma
		if relative {
			half *= math.Abs(fitted[i])
		}
		a := Anomaly{
			Index:    i,
			Value:    dp.Value,
			Expected: Range{Min: fitted[i] - half, Max: fitted[i] + half},
			Score:    score,
			Type:     AnomalyTypeSpike,
		}
		if dp.Value < fitted[i] {
			a.Type = AnomalyTypeDrop
		}
		if !dp.Time.IsZero() {
			a.Time = dp.Time.Format(time.RFC3339)
		}
		out = append(out, a)
	}
	return out, nil
}
