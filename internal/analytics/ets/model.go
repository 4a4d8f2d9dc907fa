package ets

import (
	"fmt"
	"math"
)

// FittedModel is an immutable fitted ETS model. It is safe for concurrent
// use; accessors return copies of slice data.
type FittedModel struct {
	spec    Spec
	period  int
	params  Params
	initial State
	final   State

	fitted    []float64
	residuals []float64

	n      int
	k      int
	logLik float64
	sse    float64
	sigma2 float64
	aic    float64
	aicc   float64
	bic    float64
}

func newFittedModel(spec Spec, period int, p Params, initial State, tr *Trace) (*FittedModel, error) {
	k := spec.NumParams(period)
	m := &FittedModel{
		spec:      spec,
		period:    period,
		params:    p,
		initial:   initial.Clone(),
		final:     tr.Final.Clone(),
		fitted:    tr.Fitted,
		residuals: tr.Residuals,
		n:         tr.N,
		k:         k,
		logLik:    tr.LogLik,
		sse:       tr.SSE,
		sigma2:    tr.SSE / float64(max(tr.N-k, 1)),
	}
	m.aic, m.aicc, m.bic = informationCriteria(m.logLik, k, m.n)
	if !finite(m.aicc) || !finite(m.sigma2) {
		return nil, fmt.Errorf("%w: %s has non-finite information criteria", ErrNonFiniteState, spec)
	}
	return m, nil
}

// informationCriteria returns AIC, AICc and BIC for a log-likelihood with k
// free parameters over n observations. AICc falls back to AIC when
// n-k-1 <= 0.
func informationCriteria(logLik float64, k, n int) (aic, aicc, bic float64) {
	kf, nf := float64(k), float64(n)
	aic = -2*logLik + 2*kf
	aicc = aic
	if n-k-1 > 0 {
		aicc += 2 * kf * (kf + 1) / (nf - kf - 1)
	}
	bic = -2*logLik + kf*math.Log(nf)
	return aic, aicc, bic
}

func (m *FittedModel) Spec() Spec     { return m.spec }
func (m *FittedModel) Period() int    { return m.period }
func (m *FittedModel) Params() Params { return m.params }

// InitialState returns the optimised starting state.
func (m *FittedModel) InitialState() State { return m.initial.Clone() }

// FinalState returns the state after the last observation.
func (m *FittedModel) FinalState() State { return m.final.Clone() }

// Fitted returns the one-step-ahead predictions. Models restored from a
// snapshot have none.
func (m *FittedModel) Fitted() []float64 { return append([]float64(nil), m.fitted...) }

// Residuals returns the innovations.
func (m *FittedModel) Residuals() []float64 { return append([]float64(nil), m.residuals...) }

func (m *FittedModel) N() int            { return m.n }
func (m *FittedModel) NumParams() int    { return m.k }
func (m *FittedModel) LogLik() float64   { return m.logLik }
func (m *FittedModel) SSE() float64      { return m.sse }
func (m *FittedModel) Sigma2() float64   { return m.sigma2 }
func (m *FittedModel) AIC() float64      { return m.aic }
func (m *FittedModel) AICc() float64     { return m.aicc }
func (m *FittedModel) BIC() float64      { return m.bic }
func (m *FittedModel) String() string    { return m.spec.String() }

// Snapshot is the persisted form of a fitted model. It carries enough to
// forecast again and to replay the training series.
type Snapshot struct {
	Spec    string  `json:"spec"`
	Period  int     `json:"period"`
	Params  Params  `json:"params"`
	Initial State   `json:"initial_state"`
	Final   State   `json:"final_state"`
	N       int     `json:"n"`
	LogLik  float64 `json:"log_lik"`
	SSE     float64 `json:"sse"`
	Sigma2  float64 `json:"sigma2"`
	AIC     float64 `json:"aic"`
	AICc    float64 `json:"aicc"`
	BIC     float64 `json:"bic"`
}

// Snapshot returns the persisted form of m.
func (m *FittedModel) Snapshot() *Snapshot {
	return &Snapshot{
		Spec:    m.spec.Code(),
		Period:  m.period,
		Params:  m.params,
		Initial: m.initial.Clone(),
		Final:   m.final.Clone(),
		N:       m.n,
		LogLik:  m.logLik,
		SSE:     m.sse,
		Sigma2:  m.sigma2,
		AIC:     m.aic,
		AICc:    m.aicc,
		BIC:     m.bic,
	}
}

// FromSnapshot rebuilds a model from its persisted form, validating the
// specification, parameters and states. The result has no fitted values or
// residuals.
func FromSnapshot(s *Snapshot) (*FittedModel, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidState)
	}
	spec, err := ParseSpec(s.Spec)
	if err != nil {
		return nil, err
	}
	p, err := NewParams(spec, s.Params.Alpha, s.Params.Beta, s.Params.Gamma, s.Params.Phi)
	if err != nil {
		return nil, err
	}
	initial, err := NewState(spec, s.Period, s.Initial.Level, s.Initial.Trend, s.Initial.Season)
	if err != nil {
		return nil, err
	}
	final, err := NewState(spec, s.Period, s.Final.Level, s.Final.Trend, s.Final.Season)
	if err != nil {
		return nil, err
	}
	if s.N < 1 || s.Sigma2 < 0 || !finite(s.Sigma2) {
		return nil, fmt.Errorf("%w: snapshot statistics", ErrInvalidState)
	}
	return &FittedModel{
		spec:    spec,
		period:  s.Period,
		params:  p,
		initial: initial,
		final:   final,
		n:       s.N,
		k:       spec.NumParams(s.Period),
		logLik:  s.LogLik,
		sse:     s.SSE,
		sigma2:  s.Sigma2,
		aic:     s.AIC,
		aicc:    s.AICc,
		bic:     s.BIC,
	}, nil
}
