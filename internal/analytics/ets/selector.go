package ets

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soltixdb/autoets/internal/analytics"
	"github.com/soltixdb/autoets/internal/logging"
)

// SelectorConfig configures automatic model selection.
type SelectorConfig struct {
	// Workers bounds the number of specifications fitted concurrently.
	Workers int
	// MinResidualDF skips non-fallback candidates with fewer than this many
	// residual degrees of freedom (n - k). Zero or negative disables it.
	MinResidualDF int
	// MaxSeasonalPeriod skips seasonal candidates above this period. Zero or
	// negative disables it.
	MaxSeasonalPeriod int
	Optimizer         OptimizerConfig
	Logger            *logging.Logger
}

// DefaultSelectorConfig returns the configuration used by Fit.
func DefaultSelectorConfig() SelectorConfig {
	return SelectorConfig{
		Workers:           runtime.GOMAXPROCS(0),
		MinResidualDF:     5,
		MaxSeasonalPeriod: 24,
		Optimizer:         DefaultOptimizerConfig(),
	}
}

// Candidate is the outcome of fitting one specification.
type Candidate struct {
	Spec  Spec
	Model *FittedModel
	Err   error
}

// Selection holds the chosen model and every candidate in enumeration order.
type Selection struct {
	Best       *FittedModel
	Candidates []Candidate
}

// Selector fits every admissible specification and keeps the one with the
// lowest AICc. A Selector is safe for concurrent use.
type Selector struct {
	config SelectorConfig
	logger *logging.Logger
}

// NewSelector creates a selector. Zero Workers means GOMAXPROCS.
func NewSelector(config SelectorConfig) *Selector {
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	config.Optimizer = config.Optimizer.withDefaults()
	logger := config.Logger
	if logger == nil {
		logger = logging.Global()
	}
	return &Selector{config: config, logger: logger}
}

// Fit runs automatic model selection on y with the default configuration.
func Fit(ctx context.Context, y []float64, period int) (*FittedModel, error) {
	return NewSelector(DefaultSelectorConfig()).Fit(ctx, y, period)
}

// Fit returns the best model for y.
func (s *Selector) Fit(ctx context.Context, y []float64, period int) (*FittedModel, error) {
	sel, err := s.Select(ctx, y, period)
	if err != nil {
		return nil, err
	}
	return sel.Best, nil
}

// Select validates y, fits every enumerated specification and ranks the
// successful fits by AICc, then by fewer parameters, then by Spec.Less.
func (s *Selector) Select(ctx context.Context, y []float64, period int) (*Selection, error) {
	if err := ValidateSeries(y, period); err != nil {
		return nil, err
	}
	start := time.Now()

	specs := Enumerate(period, len(y), analytics.AllPositive(y))
	candidates := make([]Candidate, len(specs))

	var g errgroup.Group
	g.SetLimit(s.config.Workers)
	for i, spec := range specs {
		candidates[i].Spec = spec
		if err := s.screen(spec, len(y), period); err != nil {
			candidates[i].Err = err
			continue
		}
		g.Go(func() error {
			model, err := Optimize(ctx, spec, y, period, s.config.Optimizer)
			candidates[i].Model, candidates[i].Err = model, err
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var best *FittedModel
	failed := 0
	for _, c := range candidates {
		if c.Err != nil {
			failed++
			s.logger.Debug("Candidate rejected", "spec", c.Spec.String(), "error", c.Err)
			continue
		}
		if best == nil || better(c.Model, best) {
			best = c.Model
		}
	}
	if best == nil {
		return nil, fmt.Errorf("%w: all %d candidates failed", ErrNoViableModel, len(candidates))
	}

	s.logger.Debug("Model selected",
		"spec", best.Spec().String(),
		"aicc", best.AICc(),
		"candidates", len(candidates),
		"failed", failed,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return &Selection{Best: best, Candidates: candidates}, nil
}

// screen applies the candidate filters that sit on top of enumeration. The
// fallback is never screened.
func (s *Selector) screen(spec Spec, n, period int) error {
	if spec == fallbackSpec {
		return nil
	}
	if s.config.MaxSeasonalPeriod > 0 && spec.HasSeason() && period > s.config.MaxSeasonalPeriod {
		return fmt.Errorf("%w: period %d above %d", ErrScreened, period, s.config.MaxSeasonalPeriod)
	}
	if s.config.MinResidualDF > 0 && n-spec.NumParams(period) < s.config.MinResidualDF {
		return fmt.Errorf("%w: %d parameters for %d observations", ErrScreened, spec.NumParams(period), n)
	}
	return nil
}

// better reports whether a ranks strictly before b.
func better(a, b *FittedModel) bool {
	if a.AICc() != b.AICc() {
		return a.AICc() < b.AICc()
	}
	if a.NumParams() != b.NumParams() {
		return a.NumParams() < b.NumParams()
	}
	return a.Spec().Less(b.Spec())
}

// ValidateSeries checks y and period before any fitting.
func ValidateSeries(y []float64, period int) error {
	if period < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidPeriod, period)
	}
	if len(y) < 2 {
		return fmt.Errorf("%w: need at least 2 observations, have %d", ErrSeriesTooShort, len(y))
	}
	if !analytics.AllFinite(y) {
		return ErrNonFiniteValue
	}
	if period > 1 && len(y) < 2*period {
		return fmt.Errorf("%w: period %d needs %d observations, have %d", ErrTooShortForSeason, period, 2*period, len(y))
	}
	return nil
}

// FitSpec fits a single named specification to y.
func FitSpec(ctx context.Context, spec Spec, y []float64, period int, cfg OptimizerConfig) (*FittedModel, error) {
	if err := ValidateSeries(y, period); err != nil {
		return nil, err
	}
	if _, err := NewSpec(spec.Error, spec.Trend, spec.Season, spec.Damped); err != nil {
		return nil, err
	}
	if spec.HasSeason() && period < 2 {
		return nil, fmt.Errorf("%w: %s needs a seasonal period of at least 2", ErrInvalidSpec, spec)
	}
	if spec.Multiplicative() && !analytics.AllPositive(y) {
		return nil, fmt.Errorf("%w: %s needs strictly positive data", ErrInvalidSpec, spec)
	}
	return Optimize(ctx, spec, y, period, cfg)
}
