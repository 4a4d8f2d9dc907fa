package ets

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ForecastConfig controls the simulated intervals of nonlinear models.
type ForecastConfig struct {
	SimulationPaths int    // sample paths per forecast
	Seed            uint64 // PCG seed; the same seed gives the same intervals
}

// DefaultForecastConfig returns the simulation settings used when none are given.
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		SimulationPaths: 5000,
		Seed:            42,
	}
}

// Interval is a prediction interval at one confidence level.
type Interval struct {
	Level float64   `json:"level"`
	Lower []float64 `json:"lower"`
	Upper []float64 `json:"upper"`
}

// ForecastResult holds point forecasts and one interval per requested level,
// ordered by increasing level.
type ForecastResult struct {
	Horizon   int        `json:"horizon"`
	Point     []float64  `json:"point"`
	Intervals []Interval `json:"intervals,omitempty"`
	Simulated bool       `json:"simulated"`
}

// Interval returns the interval for level, if it was requested.
func (r *ForecastResult) Interval(level float64) (Interval, bool) {
	for _, iv := range r.Intervals {
		if iv.Level == level {
			return iv, true
		}
	}
	return Interval{}, false
}

// Forecast returns h-step point forecasts and prediction intervals for each
// level in (0, 1). Linear models use the analytical forecast variance; the
// others use seeded simulation of future sample paths.
func Forecast(model *FittedModel, horizon int, levels []float64, cfg ForecastConfig) (*ForecastResult, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil model", ErrInvalidState)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHorizon, horizon)
	}
	for _, l := range levels {
		if !(l > 0 && l < 1) {
			return nil, fmt.Errorf("%w: got %g", ErrInvalidLevel, l)
		}
	}
	levels = slices.Clone(levels)
	slices.Sort(levels)
	levels = slices.Compact(levels)

	res := &ForecastResult{
		Horizon: horizon,
		Point:   pointForecasts(model, horizon),
	}
	if len(levels) == 0 {
		return res, nil
	}

	if model.spec.Linear() {
		res.Intervals = analyticIntervals(model, res.Point, levels)
		return res, nil
	}
	if cfg.SimulationPaths <= 0 {
		cfg.SimulationPaths = DefaultForecastConfig().SimulationPaths
	}
	res.Intervals = simulatedIntervals(model, res.Point, levels, cfg)
	res.Simulated = true
	return res, nil
}

// pointForecasts runs the recursion forward with zero innovations: the trend
// is damped by the cumulative sum of phi^i and the seasonal states cycle.
func pointForecasts(model *FittedModel, horizon int) []float64 {
	spec, p, st := model.spec, model.params, model.final
	m := len(st.Season)
	out := make([]float64, horizon)

	damp, phiPow := 0.0, 1.0
	for j := 1; j <= horizon; j++ {
		phiPow *= p.Phi
		damp += phiPow

		base := st.Level
		switch spec.Trend {
		case TrendAdditive:
			base = st.Level + damp*st.Trend
		case TrendMultiplicative:
			base = st.Level * math.Pow(st.Trend, damp)
		}
		s := 0.0
		if m > 0 {
			s = st.Season[(model.n+j-1)%m]
		}
		out[j-1] = seasonalize(spec.Season, base, s)
	}
	return out
}

// stepCoefficient returns c_j, the weight of the innovation at time t in the
// forecast error at t+j, for linear models:
//
//	ANN:  alpha
//	AAN:  alpha + j*beta
//	AAdN: alpha + beta*phi*(1-phi^j)/(1-phi)
//
// plus gamma when j is a multiple of the period for additive seasonality.
func stepCoefficient(spec Spec, p Params, period, j int) float64 {
	c := p.Alpha
	if spec.Trend == TrendAdditive {
		if spec.Damped {
			c += p.Beta * p.Phi * (1 - math.Pow(p.Phi, float64(j))) / (1 - p.Phi)
		} else {
			c += float64(j) * p.Beta
		}
	}
	if spec.Season == SeasonAdditive && period > 0 && j%period == 0 {
		c += p.Gamma
	}
	return c
}

// forecastVariance returns sigma^2 * (1 + sum_{j<h} c_j^2) for h = 1..horizon.
func forecastVariance(model *FittedModel, horizon int) []float64 {
	period := len(model.final.Season)
	out := make([]float64, horizon)
	acc := 1.0
	for h := 1; h <= horizon; h++ {
		out[h-1] = model.sigma2 * acc
		c := stepCoefficient(model.spec, model.params, period, h)
		acc += c * c
	}
	return out
}

func analyticIntervals(model *FittedModel, point, levels []float64) []Interval {
	variance := forecastVariance(model, len(point))
	out := make([]Interval, len(levels))
	for i, level := range levels {
		z := distuv.UnitNormal.Quantile(0.5 + level/2)
		iv := Interval{
			Level: level,
			Lower: make([]float64, len(point)),
			Upper: make([]float64, len(point)),
		}
		for h, mu := range point {
			half := z * math.Sqrt(variance[h])
			iv.Lower[h] = mu - half
			iv.Upper[h] = mu + half
		}
		out[i] = iv
	}
	return out
}

// simulatedIntervals draws future sample paths with Gaussian innovations of
// variance sigma^2 and takes empirical quantiles per step. Every path
// contributes one sample to every step.
func simulatedIntervals(model *FittedModel, point, levels []float64, cfg ForecastConfig) []Interval {
	horizon := len(point)
	samples := simulatePaths(model, horizon, cfg)

	out := make([]Interval, len(levels))
	for i, level := range levels {
		out[i] = Interval{
			Level: level,
			Lower: make([]float64, horizon),
			Upper: make([]float64, horizon),
		}
	}
	for h, xs := range samples {
		slices.Sort(xs)
		for i, level := range levels {
			out[i].Lower[h] = stat.Quantile((1-level)/2, stat.Empirical, xs, nil)
			out[i].Upper[h] = stat.Quantile((1+level)/2, stat.Empirical, xs, nil)
		}
	}
	return out
}

// maxRedraws bounds the innovations tried for one simulated step before the
// path continues with a zero innovation.
const maxRedraws = 10

// simulatePaths returns cfg.SimulationPaths samples for each of the horizon
// steps. A draw that would leave the model's domain (non-finite values,
// non-positive multiplicative states) is redrawn, so breakdowns do not thin
// out the later steps.
func simulatePaths(model *FittedModel, horizon int, cfg ForecastConfig) [][]float64 {
	m := len(model.final.Season)
	sigma := math.Sqrt(model.sigma2)
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	samples := make([][]float64, horizon)
	for h := range samples {
		samples[h] = make([]float64, cfg.SimulationPaths)
	}

	st := model.final.Clone()
	for i := 0; i < cfg.SimulationPaths; i++ {
		st.Level, st.Trend = model.final.Level, model.final.Trend
		copy(st.Season, model.final.Season)

		for h := 0; h < horizon; h++ {
			idx := 0
			if m > 0 {
				idx = (model.n + h) % m
			}
			samples[h][i] = simulateStep(model.spec, model.params, &st, idx, sigma, rng)
		}
	}
	return samples
}

// simulateStep draws one observation, applies it to st and returns it. When
// every draw breaks the state, the step falls back to the one-step mean.
func simulateStep(spec Spec, p Params, st *State, idx int, sigma float64, rng *rand.Rand) float64 {
	base, growth := predictBase(spec, p.Phi, st.Level, st.Trend)
	mu := seasonalize(spec.Season, base, seasonAt(st, idx))
	level, trend, season := st.Level, st.Trend, seasonAt(st, idx)

	for attempt := 0; attempt <= maxRedraws; attempt++ {
		e := 0.0
		if attempt < maxRedraws {
			e = sigma * rng.NormFloat64()
		}
		y := mu + e
		if spec.Error == ErrorMultiplicative {
			y = mu * (1 + e)
		}
		if finite(y) && update(spec, p, st, idx, y, base, growth) == nil {
			return y
		}
		st.Level, st.Trend = level, trend
		if len(st.Season) > 0 {
			st.Season[idx] = season
		}
	}
	return mu
}
