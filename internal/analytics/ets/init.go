package ets

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// maxInitCycles bounds how many whole seasonal cycles feed the decomposition.
const maxInitCycles = 4

// InitialState returns heuristic starting states for spec: seasonal indices
// from a classical decomposition of the first cycles, then level and trend
// from a least-squares line through the start of the seasonally adjusted
// series. The optimizer refines these values.
func InitialState(spec Spec, y []float64, period int) (State, error) {
	n := len(y)
	if n < 2 {
		return State{}, ErrSeriesTooShort
	}

	adjusted := y
	var season []float64
	if spec.HasSeason() {
		if period < 2 || n < 2*period {
			return State{}, fmt.Errorf("%w: need %d observations, have %d", ErrTooShortForSeason, 2*period, n)
		}
		multiplicative := spec.Season == SeasonMultiplicative
		season = seasonalIndices(y, period, multiplicative)
		adjusted = make([]float64, n)
		for t, v := range y {
			if multiplicative {
				adjusted[t] = v / season[t%period]
			} else {
				adjusted[t] = v - season[t%period]
			}
		}
	}

	window := max(10, 2*period)
	if window > n {
		window = n
	}
	head := adjusted[:window]

	var level, trend float64
	switch spec.Trend {
	case TrendNone:
		level = stat.Mean(head, nil)
	default:
		xs := make([]float64, window)
		for i := range xs {
			xs[i] = float64(i + 1)
		}
		intercept, slope := stat.LinearRegression(xs, head, nil, false)
		level = intercept
		trend = slope
		if spec.Trend == TrendMultiplicative {
			if level <= 0 {
				level = stat.Mean(head, nil)
			}
			trend = 1 + slope/level
			if !finite(trend) {
				trend = 1
			}
			trend = math.Min(math.Max(trend, 0.5), 2)
		}
	}

	return NewState(spec, period, level, trend, season)
}

// seasonalIndices estimates one seasonal term per phase from the first whole
// cycles of y (at most maxInitCycles), normalised to sum to 0 (additive) or
// to period (multiplicative).
func seasonalIndices(y []float64, period int, multiplicative bool) []float64 {
	cycles := min(len(y)/period, maxInitCycles)
	span := y[:cycles*period]
	trend := centredMovingAverage(span, period)

	sums := make([]float64, period)
	counts := make([]int, period)
	for t, v := range span {
		if math.IsNaN(trend[t]) {
			continue
		}
		if multiplicative {
			if trend[t] == 0 {
				continue
			}
			sums[t%period] += v / trend[t]
		} else {
			sums[t%period] += v - trend[t]
		}
		counts[t%period]++
	}

	season := make([]float64, period)
	for j := range season {
		switch {
		case counts[j] > 0:
			season[j] = sums[j] / float64(counts[j])
		case multiplicative:
			season[j] = 1
		}
	}
	normalizeSeason(season, multiplicative)
	return season
}

// centredMovingAverage returns the centred moving average of order period
// (2 x period for even periods). Positions without a full window are NaN.
func centredMovingAverage(y []float64, period int) []float64 {
	n := len(y)
	out := make([]float64, n)
	half := period / 2
	for t := range out {
		if t < half || t+half >= n {
			out[t] = math.NaN()
			continue
		}
		if period%2 == 1 {
			out[t] = floats.Sum(y[t-half:t+half+1]) / float64(period)
			continue
		}
		sum := 0.5*y[t-half] + 0.5*y[t+half] + floats.Sum(y[t-half+1:t+half])
		out[t] = sum / float64(period)
	}
	return out
}

func normalizeSeason(season []float64, multiplicative bool) {
	mean := stat.Mean(season, nil)
	if multiplicative {
		if mean > 0 {
			floats.Scale(1/mean, season)
		}
		return
	}
	floats.AddConst(-mean, season)
}
