// Package ets implements automatic exponential smoothing (AutoETS): the
// innovations state-space models ETS(Error, Trend, Season), maximum-likelihood
// fitting of each model, AICc-based selection across the model space and
// point/interval forecasting from the chosen model.
package ets

import (
	"fmt"
	"strings"
)

// ErrorKind is the error component of a model.
type ErrorKind uint8

const (
	ErrorAdditive ErrorKind = iota
	ErrorMultiplicative
)

func (k ErrorKind) String() string {
	if k == ErrorMultiplicative {
		return "M"
	}
	return "A"
}

// Name returns the long form used in summaries.
func (k ErrorKind) Name() string {
	if k == ErrorMultiplicative {
		return "multiplicative"
	}
	return "additive"
}

// TrendKind is the trend component of a model.
type TrendKind uint8

const (
	TrendNone TrendKind = iota
	TrendAdditive
	TrendMultiplicative
)

func (k TrendKind) String() string {
	switch k {
	case TrendAdditive:
		return "A"
	case TrendMultiplicative:
		return "M"
	default:
		return "N"
	}
}

// Name returns the long form used in summaries.
func (k TrendKind) Name() string {
	switch k {
	case TrendAdditive:
		return "additive"
	case TrendMultiplicative:
		return "multiplicative"
	default:
		return "none"
	}
}

// SeasonKind is the seasonal component of a model.
type SeasonKind uint8

const (
	SeasonNone SeasonKind = iota
	SeasonAdditive
	SeasonMultiplicative
)

func (k SeasonKind) String() string {
	switch k {
	case SeasonAdditive:
		return "A"
	case SeasonMultiplicative:
		return "M"
	default:
		return "N"
	}
}

// Name returns the long form used in summaries.
func (k SeasonKind) Name() string {
	switch k {
	case SeasonAdditive:
		return "additive"
	case SeasonMultiplicative:
		return "multiplicative"
	default:
		return "none"
	}
}

// Spec identifies one ETS model. Damped is only meaningful with a trend;
// use NewSpec or ParseSpec to build values from untrusted input.
type Spec struct {
	Error  ErrorKind
	Trend  TrendKind
	Season SeasonKind
	Damped bool
}

// NewSpec validates the component combination.
func NewSpec(e ErrorKind, t TrendKind, s SeasonKind, damped bool) (Spec, error) {
	if e > ErrorMultiplicative || t > TrendMultiplicative || s > SeasonMultiplicative {
		return Spec{}, fmt.Errorf("%w: unknown component", ErrInvalidSpec)
	}
	if damped && t == TrendNone {
		return Spec{}, fmt.Errorf("%w: damping requires a trend", ErrInvalidSpec)
	}
	return Spec{Error: e, Trend: t, Season: s, Damped: damped}, nil
}

// ParseSpec accepts the compact code ("AAdM"), comma form ("A,Ad,M") and the
// full notation ("ETS(A,Ad,M)").
func ParseSpec(text string) (Spec, error) {
	code := strings.ToUpper(strings.TrimSpace(text))
	code = strings.TrimPrefix(code, "ETS")
	code = strings.NewReplacer("(", "", ")", "", ",", "", " ", "").Replace(code)

	invalid := fmt.Errorf("%w: %q", ErrInvalidSpec, text)
	if len(code) < 3 || len(code) > 4 {
		return Spec{}, invalid
	}

	var e ErrorKind
	switch code[0] {
	case 'A':
		e = ErrorAdditive
	case 'M':
		e = ErrorMultiplicative
	default:
		return Spec{}, invalid
	}

	var t TrendKind
	switch code[1] {
	case 'N':
		t = TrendNone
	case 'A':
		t = TrendAdditive
	case 'M':
		t = TrendMultiplicative
	default:
		return Spec{}, invalid
	}

	rest := code[2:]
	damped := false
	if len(rest) == 2 {
		if rest[0] != 'D' {
			return Spec{}, invalid
		}
		damped = true
		rest = rest[1:]
	}

	var s SeasonKind
	switch rest {
	case "N":
		s = SeasonNone
	case "A":
		s = SeasonAdditive
	case "M":
		s = SeasonMultiplicative
	default:
		return Spec{}, invalid
	}

	spec, err := NewSpec(e, t, s, damped)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrInvalidSpec, text)
	}
	return spec, nil
}

// Code returns the compact form, e.g. "AAdM".
func (s Spec) Code() string {
	d := ""
	if s.Damped {
		d = "d"
	}
	return s.Error.String() + s.Trend.String() + d + s.Season.String()
}

// String returns the usual notation, e.g. "ETS(A,Ad,M)".
func (s Spec) String() string {
	d := ""
	if s.Damped {
		d = "d"
	}
	return fmt.Sprintf("ETS(%s,%s%s,%s)", s.Error, s.Trend, d, s.Season)
}

// HasTrend reports whether the model carries a trend state.
func (s Spec) HasTrend() bool { return s.Trend != TrendNone }

// HasSeason reports whether the model carries seasonal states.
func (s Spec) HasSeason() bool { return s.Season != SeasonNone }

// Multiplicative reports whether any component is multiplicative. Such models
// are only defined on strictly positive data.
func (s Spec) Multiplicative() bool {
	return s.Error == ErrorMultiplicative || s.Trend == TrendMultiplicative || s.Season == SeasonMultiplicative
}

// Linear reports whether the model belongs to the linear homoscedastic class
// (additive error, additive or no trend, additive or no season). Forecast
// variances of these models have a closed form.
func (s Spec) Linear() bool {
	return s.Error == ErrorAdditive && s.Trend != TrendMultiplicative && s.Season != SeasonMultiplicative
}

// NumSmoothing returns the number of smoothing parameters (alpha, beta, gamma, phi).
func (s Spec) NumSmoothing() int {
	k := 1
	if s.HasTrend() {
		k++
	}
	if s.HasSeason() {
		k++
	}
	if s.Damped {
		k++
	}
	return k
}

// NumParams returns the number of free parameters k: smoothing parameters
// plus initial states. The last seasonal state is fixed by normalisation.
func (s Spec) NumParams(period int) int {
	k := s.NumSmoothing() + 1
	if s.HasTrend() {
		k++
	}
	if s.HasSeason() {
		k += period - 1
	}
	return k
}

// Less orders specs by error, trend, season and then undamped before damped.
func (s Spec) Less(o Spec) bool {
	if s.Error != o.Error {
		return s.Error < o.Error
	}
	if s.Trend != o.Trend {
		return s.Trend < o.Trend
	}
	if s.Season != o.Season {
		return s.Season < o.Season
	}
	return !s.Damped && o.Damped
}

// AllSpecs returns the 30 structurally distinct specifications in Less order.
func AllSpecs() []Spec {
	specs := make([]Spec, 0, 30)
	for e := ErrorAdditive; e <= ErrorMultiplicative; e++ {
		for t := TrendNone; t <= TrendMultiplicative; t++ {
			for s := SeasonNone; s <= SeasonMultiplicative; s++ {
				specs = append(specs, Spec{Error: e, Trend: t, Season: s})
				if t != TrendNone {
					specs = append(specs, Spec{Error: e, Trend: t, Season: s, Damped: true})
				}
			}
		}
	}
	return specs
}
