package ets

import (
	"fmt"
	"math"

	"github.com/soltixdb/autoets/internal/analytics"
)

const (
	// divisorTolerance is the smallest magnitude accepted as a divisor in the
	// multiplicative recursions.
	divisorTolerance = 1e-10

	// varianceFloorScale bounds the innovation variance from below, relative
	// to the mean square of the data for additive errors, so that exact fits
	// keep a finite likelihood.
	varianceFloorScale = 1e-12
)

// Trace is the result of running a series through a model.
type Trace struct {
	Final     State
	Fitted    []float64 // one-step-ahead predictions
	Residuals []float64 // innovations: y-mu (additive error) or (y-mu)/mu (multiplicative)
	SSE       float64
	LogLik    float64
	N         int
}

// Replay runs y through spec from the initial state and returns the final
// state, one-step predictions, innovations and the log-likelihood.
// The same inputs always produce the same trace.
func Replay(spec Spec, p Params, init State, y []float64) (*Trace, error) {
	if len(y) == 0 {
		return nil, ErrSeriesTooShort
	}
	if err := p.validate(spec); err != nil {
		return nil, err
	}
	if spec.HasSeason() && len(init.Season) < 2 {
		return nil, fmt.Errorf("%w: seasonal model without seasonal states", ErrInvalidState)
	}
	if err := init.validate(spec); err != nil {
		return nil, err
	}

	st := init.Clone()
	tr := &Trace{
		Fitted:    make([]float64, len(y)),
		Residuals: make([]float64, len(y)),
		N:         len(y),
	}
	sse, sumLogMu, err := run(spec, p, &st, y, tr.Fitted, tr.Residuals)
	if err != nil {
		return nil, err
	}
	tr.Final = st
	tr.SSE = sse
	tr.LogLik = logLikelihood(len(y), sse, sumLogMu, varianceFloor(spec, y))
	return tr, nil
}

// run advances st through y in place. fitted and resid may be nil when only
// the sums are needed.
func run(spec Spec, p Params, st *State, y, fitted, resid []float64) (sse, sumLogMu float64, err error) {
	m := len(st.Season)
	for t, obs := range y {
		idx := 0
		if m > 0 {
			idx = t % m
		}
		base, growth := predictBase(spec, p.Phi, st.Level, st.Trend)
		mu := seasonalize(spec.Season, base, seasonAt(st, idx))
		if !finite(mu) {
			return 0, 0, fmt.Errorf("%w: prediction at t=%d", ErrNonFiniteState, t)
		}

		e := obs - mu
		if spec.Error == ErrorMultiplicative {
			if math.Abs(mu) < divisorTolerance {
				return 0, 0, fmt.Errorf("%w: prediction near zero at t=%d", ErrNonFiniteState, t)
			}
			e /= mu
			sumLogMu += math.Log(math.Abs(mu))
		}
		sse += e * e
		if fitted != nil {
			fitted[t] = mu
		}
		if resid != nil {
			resid[t] = e
		}

		if err := update(spec, p, st, idx, obs, base, growth); err != nil {
			return 0, 0, fmt.Errorf("%w at t=%d", err, t)
		}
	}
	if !finite(sse) {
		return 0, 0, fmt.Errorf("%w: sum of squared errors", ErrNonFiniteState)
	}
	return sse, sumLogMu, nil
}

// predictBase combines level and trend for the next step. growth is the
// damped trend contribution: phi*b (additive) or b^phi (multiplicative).
func predictBase(spec Spec, phi, level, trend float64) (base, growth float64) {
	switch spec.Trend {
	case TrendAdditive:
		growth = phi * trend
		return level + growth, growth
	case TrendMultiplicative:
		growth = math.Pow(trend, phi)
		return level * growth, growth
	default:
		return level, 0
	}
}

func seasonalize(kind SeasonKind, base, s float64) float64 {
	switch kind {
	case SeasonAdditive:
		return base + s
	case SeasonMultiplicative:
		return base * s
	default:
		return base
	}
}

func seasonAt(st *State, idx int) float64 {
	if len(st.Season) == 0 {
		return 0
	}
	return st.Season[idx]
}

// update applies the error-correction equations for observation y. The point
// updates are the same for additive and multiplicative errors.
func update(spec Spec, p Params, st *State, idx int, y, base, growth float64) error {
	q := y
	switch spec.Season {
	case SeasonAdditive:
		q = y - st.Season[idx]
	case SeasonMultiplicative:
		if math.Abs(st.Season[idx]) < divisorTolerance {
			return ErrNonFiniteState
		}
		q = y / st.Season[idx]
	}

	prev := st.Level
	level := base + p.Alpha*(q-base)

	switch spec.Trend {
	case TrendAdditive:
		st.Trend = growth + p.Beta/p.Alpha*((level-prev)-growth)
	case TrendMultiplicative:
		if math.Abs(prev) < divisorTolerance {
			return ErrNonFiniteState
		}
		st.Trend = growth + p.Beta/p.Alpha*(level/prev-growth)
	}

	switch spec.Season {
	case SeasonAdditive:
		st.Season[idx] += p.Gamma * (y - base - st.Season[idx])
	case SeasonMultiplicative:
		if math.Abs(base) < divisorTolerance {
			return ErrNonFiniteState
		}
		st.Season[idx] += p.Gamma * (y/base - st.Season[idx])
	}
	st.Level = level

	if !finite(st.Level) || !finite(st.Trend) {
		return ErrNonFiniteState
	}
	if spec.Trend == TrendMultiplicative && (st.Level <= 0 || st.Trend <= 0) {
		return ErrNonFiniteState
	}
	if spec.HasSeason() {
		s := st.Season[idx]
		if !finite(s) || (spec.Season == SeasonMultiplicative && s <= 0) {
			return ErrNonFiniteState
		}
	}
	return nil
}

// varianceFloor returns the smallest innovation variance used in the
// likelihood.
func varianceFloor(spec Spec, y []float64) float64 {
	if spec.Error == ErrorMultiplicative {
		return varianceFloorScale
	}
	scale := analytics.MeanSquare(y)
	if scale == 0 {
		scale = 1
	}
	return varianceFloorScale * scale
}

// logLikelihood is the Gaussian log-likelihood with the innovation variance
// concentrated out.
func logLikelihood(n int, sse, sumLogMu, floor float64) float64 {
	nf := float64(n)
	sigma2 := math.Max(sse/nf, floor)
	return -0.5*nf*(math.Log(2*math.Pi*sigma2)+1) - sumLogMu
}
