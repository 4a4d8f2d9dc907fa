package ets

import (
	"fmt"
	"math"
)

// State is the latent state of a model at one time step. Season[j] is the
// seasonal term applied at times t with t mod m == j, where m = len(Season).
type State struct {
	Level  float64   `json:"level"`
	Trend  float64   `json:"trend"`
	Season []float64 `json:"season,omitempty"`
}

// NewState validates a state for spec. The trend is ignored (stored as zero)
// for models without trend and the seasonal block must hold exactly period
// entries for seasonal models.
func NewState(spec Spec, period int, level, trend float64, season []float64) (State, error) {
	st := State{Level: level}
	if spec.HasTrend() {
		st.Trend = trend
	}
	if spec.HasSeason() {
		if period < 2 || len(season) != period {
			return State{}, fmt.Errorf("%w: %d seasonal states for period %d", ErrInvalidState, len(season), period)
		}
		st.Season = append([]float64(nil), season...)
	}
	if err := st.validate(spec); err != nil {
		return State{}, err
	}
	return st, nil
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	if s.Season != nil {
		c.Season = append([]float64(nil), s.Season...)
	}
	return c
}

func (s State) validate(spec Spec) error {
	if !finite(s.Level) || !finite(s.Trend) {
		return fmt.Errorf("%w: non-finite level or trend", ErrInvalidState)
	}
	for _, v := range s.Season {
		if !finite(v) {
			return fmt.Errorf("%w: non-finite seasonal state", ErrInvalidState)
		}
	}
	if spec.Trend == TrendMultiplicative && (s.Level <= 0 || s.Trend <= 0) {
		return fmt.Errorf("%w: multiplicative trend needs positive level and trend", ErrInvalidState)
	}
	if spec.Season == SeasonMultiplicative {
		for _, v := range s.Season {
			if v <= 0 {
				return fmt.Errorf("%w: multiplicative seasonal states must be positive", ErrInvalidState)
			}
		}
	}
	return nil
}

// violation mirrors validate for the optimizer: zero for admissible states,
// otherwise a positive distance.
func (s State) violation(spec Spec) float64 {
	if !finite(s.Level) || !finite(s.Trend) {
		return 1
	}
	v := 0.0
	if spec.Trend == TrendMultiplicative {
		v += nonPositive(s.Level) + nonPositive(s.Trend)
	}
	for _, x := range s.Season {
		if !finite(x) {
			return 1
		}
		if spec.Season == SeasonMultiplicative {
			v += nonPositive(x)
		}
	}
	return v
}

func nonPositive(x float64) float64 {
	if x > 0 {
		return 0
	}
	return divisorTolerance - x
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
