package ets

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// penalty is the objective value of inadmissible points. It is finite so the
// simplex vertices stay ordered and grows with the distance to the region.
const penalty = 1e12

// alphaGrid seeds the level smoothing parameter.
var alphaGrid = []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9}

// OptimizerConfig bounds the Nelder-Mead search for one specification. The
// budgets are per free parameter, so a seasonal model with trend gets a
// proportionally larger search than simple exponential smoothing.
type OptimizerConfig struct {
	MaxIterations  int     // major iterations per free parameter
	MaxEvaluations int     // objective evaluations per free parameter
	Tolerance      float64 // relative improvement of -2logL that still counts as progress
}

// DefaultOptimizerConfig returns the search budget used by the selector.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		MaxIterations:  5000,
		MaxEvaluations: 50000,
		Tolerance:      1e-8,
	}
}

func (c OptimizerConfig) withDefaults() OptimizerConfig {
	d := DefaultOptimizerConfig()
	if c.MaxIterations <= 0 {
		c.MaxIterations = d.MaxIterations
	}
	if c.MaxEvaluations <= 0 {
		c.MaxEvaluations = d.MaxEvaluations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = d.Tolerance
	}
	return c
}

// Optimize fits spec to y by minimising -2 log-likelihood over the smoothing
// parameters and the initial states. y must already be validated.
//
// The search runs Nelder-Mead in rounds. Each round starts a fresh simplex at
// the best point found so far and stops when -2logL has not improved for a
// while or after a fixed number of iterations. The fit has converged once a
// round that ran to stagnation improves on its start by less than Tolerance.
func Optimize(ctx context.Context, spec Spec, y []float64, period int, cfg OptimizerConfig) (*FittedModel, error) {
	cfg = cfg.withDefaults()
	if !spec.HasSeason() {
		period = max(period, 1)
	}

	init, err := InitialState(spec, y, period)
	if err != nil {
		return nil, err
	}

	obj := newObjective(spec, y, init)
	obj.seed()

	dim := obj.dim()
	iterBudget := cfg.MaxIterations * dim
	evalBudget := cfg.MaxEvaluations * dim
	stall := 50 + 10*dim
	roundCap := 4 * stall

	problem := optimize.Problem{Func: obj.value}
	iters, evals := 0, 0
	for round := 0; ; round++ {
		if iters >= iterBudget || evals >= evalBudget {
			return nil, fmt.Errorf("%w: %s exhausted its budget after %d iterations in %d rounds",
				ErrNotConverged, spec, iters, round)
		}

		from := obj.bestF
		obj.recenter()
		settings := &optimize.Settings{
			MajorIterations: min(roundCap, iterBudget-iters),
			FuncEvaluations: evalBudget - evals,
			Converger: &contextConverger{
				ctx: ctx,
				next: &optimize.FunctionConverge{
					Relative:   cfg.Tolerance,
					Iterations: stall,
				},
			},
		}
		res, err := optimize.Minimize(problem, make([]float64, dim), settings, &optimize.NelderMead{SimplexSize: 1})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if res == nil || err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotConverged, spec, err)
		}
		iters += res.Stats.MajorIterations
		evals += res.Stats.FuncEvaluations

		stalled := res.Status == optimize.FunctionConvergence || res.Status == optimize.MethodConverge
		if !stalled {
			continue
		}
		if !finite(obj.bestF) {
			return nil, fmt.Errorf("%w: %s has no admissible optimum", ErrNonFiniteState, spec)
		}
		if round > 0 && from-obj.bestF <= cfg.Tolerance*(1+math.Abs(obj.bestF)) {
			break
		}
	}

	params, start := obj.unpack(obj.bestRaw)
	start = start.Clone()
	params, err = NewParams(spec, params.Alpha, params.Beta, params.Gamma, params.Phi)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNonFiniteState, spec, err)
	}
	if err := start.validate(spec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNonFiniteState, spec, err)
	}
	trace, err := Replay(spec, params, start, y)
	if err != nil {
		return nil, err
	}
	return newFittedModel(spec, period, params, start, trace)
}

// contextConverger stops the search once ctx is done.
type contextConverger struct {
	ctx  context.Context
	next optimize.Converger
}

func (c *contextConverger) Init(dim int) { c.next.Init(dim) }

func (c *contextConverger) Converged(loc *optimize.Location) optimize.Status {
	if c.ctx.Err() != nil {
		return optimize.RuntimeLimit
	}
	return c.next.Converged(loc)
}

// objective maps the search coordinates u to the raw vector
// x = origin + step*u with
//
//	x = (alpha, beta?, gamma?, phi?, l0, b0?, s_0 .. s_{m-2})
//
// The last seasonal state is implied by normalisation. Scaling by step gives
// every coordinate a comparable first move in the unit simplex.
//
// The objective remembers the best raw vector it has evaluated. Among points
// with equal -2logL, which happens once the variance floor binds, the one with
// the smaller SSE wins.
type objective struct {
	spec     Spec
	y        []float64
	period   int
	floor    float64
	origin   []float64
	step     []float64
	raw      []float64
	work     State
	seasonal int

	// positions of beta, gamma and phi in x, -1 when absent
	beta, gamma, phi int

	bestF   float64
	bestSSE float64
	bestRaw []float64
}

func newObjective(spec Spec, y []float64, init State) *objective {
	o := &objective{
		spec:    spec,
		y:       y,
		floor:   varianceFloor(spec, y),
		beta:    -1,
		gamma:   -1,
		phi:     -1,
		bestF:   math.Inf(1),
		bestSSE: math.Inf(1),
	}
	if spec.HasSeason() {
		o.period = len(init.Season)
		o.seasonal = o.period - 1
		o.work.Season = make([]float64, o.period)
	}

	scale := stat.StdDev(y, nil)
	if !(scale > 0) {
		scale = math.Max(math.Abs(stat.Mean(y, nil))*0.01, 0.01)
	}

	push := func(x, step float64) {
		o.origin = append(o.origin, x)
		o.step = append(o.step, step)
	}

	push(0.5, -0.1) // alpha, replaced by seed
	if spec.HasTrend() {
		o.beta = len(o.origin)
		push(0, 0)
	}
	if spec.HasSeason() {
		o.gamma = len(o.origin)
		push(0, 0)
	}
	if spec.Damped {
		o.phi = len(o.origin)
		push(0.97, -0.05)
	}
	push(init.Level, 0.1*scale)
	if spec.HasTrend() {
		if spec.Trend == TrendMultiplicative {
			push(init.Trend, 0.01)
		} else {
			push(init.Trend, 0.01*scale)
		}
	}
	for j := 0; j < o.seasonal; j++ {
		if spec.Season == SeasonMultiplicative {
			push(init.Season[j], 0.05)
		} else {
			push(init.Season[j], 0.1*scale)
		}
	}
	o.raw = make([]float64, len(o.origin))
	o.bestRaw = make([]float64, len(o.origin))
	return o
}

func (o *objective) dim() int { return len(o.origin) }

// seed picks the starting alpha from the grid and places beta and gamma
// inside their alpha-dependent ranges.
func (o *objective) seed() {
	best, bestAlpha := math.Inf(1), alphaGrid[0]
	for _, a := range alphaGrid {
		o.setSmoothing(a)
		if v := o.value(make([]float64, o.dim())); v < best {
			best, bestAlpha = v, a
		}
	}
	o.setSmoothing(bestAlpha)
}

func (o *objective) setSmoothing(alpha float64) {
	o.origin[0] = alpha
	o.step[0] = 0.1
	if alpha > 0.5 {
		o.step[0] = -0.1
	}
	if o.beta >= 0 {
		o.origin[o.beta] = 0.1 * alpha
		o.step[o.beta] = 0.3 * alpha
	}
	if o.gamma >= 0 {
		o.origin[o.gamma] = 0.05 * (1 - alpha)
		o.step[o.gamma] = 0.3 * (1 - alpha)
	}
}

// recenter moves the origin to the best point so far and turns the steps of
// the smoothing parameters towards the middle of their ranges, so the first
// simplex stays mostly inside the admissible region.
func (o *objective) recenter() {
	if !finite(o.bestF) {
		return
	}
	copy(o.origin, o.bestRaw)
	alpha := o.origin[0]
	inward(&o.step[0], alpha, 0.5)
	if o.beta >= 0 {
		inward(&o.step[o.beta], o.origin[o.beta], alpha/2)
	}
	if o.gamma >= 0 {
		inward(&o.step[o.gamma], o.origin[o.gamma], (1-alpha)/2)
	}
	if o.phi >= 0 {
		inward(&o.step[o.phi], o.origin[o.phi], (phiLower+phiUpper)/2)
	}
}

func inward(step *float64, x, centre float64) {
	*step = math.Abs(*step)
	if x > centre {
		*step = -*step
	}
}

// decode maps u to parameters and a start state. The returned state shares
// its seasonal slice with o.work; callers that keep it must Clone.
func (o *objective) decode(u []float64) (Params, State) {
	for i := range o.raw {
		o.raw[i] = o.origin[i] + o.step[i]*u[i]
	}
	return o.unpack(o.raw)
}

// unpack splits the raw vector x into parameters and a start state.
func (o *objective) unpack(x []float64) (Params, State) {
	p := Params{Alpha: x[0], Phi: 1}
	i := 1
	if o.spec.HasTrend() {
		p.Beta = x[i]
		i++
	}
	if o.spec.HasSeason() {
		p.Gamma = x[i]
		i++
	}
	if o.spec.Damped {
		p.Phi = x[i]
		i++
	}

	o.work.Level = x[i]
	i++
	o.work.Trend = 0
	if o.spec.HasTrend() {
		o.work.Trend = x[i]
		i++
	}
	if o.spec.HasSeason() {
		sum := 0.0
		for j := 0; j < o.seasonal; j++ {
			o.work.Season[j] = x[i+j]
			sum += x[i+j]
		}
		last := -sum
		if o.spec.Season == SeasonMultiplicative {
			last = float64(o.period) - sum
		}
		o.work.Season[o.seasonal] = last
	}
	return p, o.work
}

// value returns -2 log-likelihood at u, or a penalty outside the admissible
// region or when the recursion breaks down.
func (o *objective) value(u []float64) float64 {
	p, st := o.decode(u)
	if v := p.violation(o.spec) + st.violation(o.spec); v > 0 {
		return penalty * (1 + v)
	}
	sse, sumLogMu, err := run(o.spec, p, &st, o.y, nil, nil)
	if err != nil {
		return penalty
	}
	v := -2 * logLikelihood(len(o.y), sse, sumLogMu, o.floor)
	if !finite(v) {
		return penalty
	}
	if v < o.bestF || (v == o.bestF && sse < o.bestSSE) {
		o.bestF, o.bestSSE = v, sse
		copy(o.bestRaw, o.raw)
	}
	return v
}
