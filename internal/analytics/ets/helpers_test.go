package ets

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
)

// Common series generators for the ets tests.

// generateSeries evaluates f at t = 0..n-1 and adds seeded Gaussian noise.
func generateSeries(n int, seed uint64, noise float64, f func(t int) float64) []float64 {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	y := make([]float64, n)
	for t := range y {
		y[t] = f(t) + noise*rng.NormFloat64()
	}
	return y
}

// generateTrendSeries returns a noisy straight line.
func generateTrendSeries(n int, slope, intercept float64) []float64 {
	return generateSeries(n, 7, 0.5, func(t int) float64 {
		return intercept + slope*float64(t)
	})
}

// generateSeasonalSeries returns a noisy level with an additive seasonal wave.
func generateSeasonalSeries(n, period int) []float64 {
	return generateSeries(n, 11, 0.5, func(t int) float64 {
		return 50 + 10*math.Sin(2*math.Pi*float64(t%period)/float64(period))
	})
}

// generateMultiplicativeSeries returns a positive series whose seasonal swing
// grows with the level.
func generateMultiplicativeSeries(n, period int) []float64 {
	return generateSeries(n, 13, 0.2, func(t int) float64 {
		level := 20 + 0.5*float64(t)
		return level * (1 + 0.3*math.Sin(2*math.Pi*float64(t%period)/float64(period)))
	})
}

// mustSpec parses a spec code or fails the test.
func mustSpec(t testing.TB, code string) Spec {
	t.Helper()
	spec, err := ParseSpec(code)
	if err != nil {
		t.Fatalf("ParseSpec(%q) failed: %v", code, err)
	}
	return spec
}

// mustFitSpec fits one specification with the default budget or fails the test.
func mustFitSpec(t testing.TB, code string, y []float64, period int) *FittedModel {
	t.Helper()
	model, err := FitSpec(context.Background(), mustSpec(t, code), y, period, DefaultOptimizerConfig())
	if err != nil {
		t.Fatalf("FitSpec(%s) failed: %v", code, err)
	}
	return model
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
