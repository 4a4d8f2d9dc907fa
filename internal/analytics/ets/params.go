package ets

import (
	"fmt"
	"math"
)

// Admissible region for the smoothing parameters.
const (
	smoothingLower = 1e-4
	smoothingUpper = 0.9999
	phiLower       = 0.8
	phiUpper       = 0.98
)

// Params holds the smoothing parameters of a model. Absent parameters are
// stored as Beta = Gamma = 0 and Phi = 1 so the recursion needs no branches
// on presence.
type Params struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
	Phi   float64 `json:"phi"`
}

// NewParams builds the parameter vector for spec, ignoring the values of
// parameters the model does not use, and checks the admissible region:
//
//	1e-4 <= alpha <= 0.9999
//	1e-4 <= beta  <= alpha
//	1e-4 <= gamma <= 1 - alpha
//	0.8  <= phi   <= 0.98
func NewParams(spec Spec, alpha, beta, gamma, phi float64) (Params, error) {
	p := Params{Alpha: alpha, Phi: 1}
	if spec.HasTrend() {
		p.Beta = beta
	}
	if spec.HasSeason() {
		p.Gamma = gamma
	}
	if spec.Damped {
		p.Phi = phi
	}
	if err := p.validate(spec); err != nil {
		return Params{}, err
	}
	return p, nil
}

func (p Params) validate(spec Spec) error {
	if outside(p.Alpha, smoothingLower, smoothingUpper) > 0 {
		return fmt.Errorf("%w: alpha=%g not in [%g, %g]", ErrInvalidParams, p.Alpha, smoothingLower, smoothingUpper)
	}
	if spec.HasTrend() && outside(p.Beta, smoothingLower, p.Alpha) > 0 {
		return fmt.Errorf("%w: beta=%g not in [%g, alpha=%g]", ErrInvalidParams, p.Beta, smoothingLower, p.Alpha)
	}
	if spec.HasSeason() && outside(p.Gamma, smoothingLower, 1-p.Alpha) > 0 {
		return fmt.Errorf("%w: gamma=%g not in [%g, 1-alpha=%g]", ErrInvalidParams, p.Gamma, smoothingLower, 1-p.Alpha)
	}
	if spec.Damped && outside(p.Phi, phiLower, phiUpper) > 0 {
		return fmt.Errorf("%w: phi=%g not in [%g, %g]", ErrInvalidParams, p.Phi, phiLower, phiUpper)
	}
	return nil
}

// violation is zero inside the admissible region and grows with the distance
// to it outside.
func (p Params) violation(spec Spec) float64 {
	v := outside(p.Alpha, smoothingLower, smoothingUpper)
	if spec.HasTrend() {
		v += outside(p.Beta, smoothingLower, math.Max(p.Alpha, smoothingLower))
	}
	if spec.HasSeason() {
		v += outside(p.Gamma, smoothingLower, math.Max(1-p.Alpha, smoothingLower))
	}
	if spec.Damped {
		v += outside(p.Phi, phiLower, phiUpper)
	}
	return v
}

// outside returns the distance from x to [lo, hi]. NaN is treated as far away.
func outside(x, lo, hi float64) float64 {
	switch {
	case math.IsNaN(x):
		return 1
	case x < lo:
		return lo - x
	case x > hi:
		return x - hi
	default:
		return 0
	}
}
