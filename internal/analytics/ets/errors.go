package ets

import "errors"

// Input errors. They are reported before any optimisation starts.
var (
	ErrSeriesTooShort    = errors.New("series too short")
	ErrTooShortForSeason = errors.New("series too short for seasonal period")
	ErrNonFiniteValue    = errors.New("series contains non-finite values")
	ErrInvalidPeriod     = errors.New("seasonal period must be at least 1")
	ErrInvalidHorizon    = errors.New("forecast horizon must be at least 1")
	ErrInvalidLevel      = errors.New("confidence level must be in (0, 1)")
	ErrInvalidParams     = errors.New("smoothing parameters outside admissible region")
	ErrInvalidState      = errors.New("invalid model state")
	ErrInvalidSpec       = errors.New("invalid model specification")
)

// Per-candidate errors. The selector records them and moves on.
var (
	ErrNotConverged   = errors.New("optimizer did not converge")
	ErrNonFiniteState = errors.New("non-finite state during recursion")
	ErrScreened       = errors.New("candidate screened out")
)

// ErrNoViableModel is returned when every candidate specification failed.
var ErrNoViableModel = errors.New("no viable model")

// IsInputError reports whether err was caused by invalid caller input rather
// than by fitting.
func IsInputError(err error) bool {
	for _, target := range []error{
		ErrSeriesTooShort,
		ErrTooShortForSeason,
		ErrNonFiniteValue,
		ErrInvalidPeriod,
		ErrInvalidHorizon,
		ErrInvalidLevel,
		ErrInvalidParams,
		ErrInvalidState,
		ErrInvalidSpec,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
