package services

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soltixdb/autoets/internal/config"
	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/storage"
)

// testETSConfig keeps the optimizer budget small so that tests stay fast.
func testETSConfig() config.ETSConfig {
	return config.ETSConfig{
		Workers:           4,
		MaxIterations:     400,
		MaxEvaluations:    2000,
		Tolerance:         1e-6,
		MinResidualDF:     5,
		MaxSeasonalPeriod: 24,
		SimulationPaths:   200,
		Seed:              7,
		MaxHorizon:        48,
		DefaultLevels:     []float64{0.8, 0.95},
	}
}

func newTestService(t *testing.T) (*ForecastService, *storage.MemoryStore) {
	t.Helper()
	store, err := storage.NewMemoryStore(0, "snappy", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewForecastService(logging.Nop(), store, testETSConfig()), store
}

// noisyLevel returns a level series with seeded Gaussian noise.
func noisyLevel(n int, level float64) []float64 {
	rng := rand.New(rand.NewPCG(3, 4))
	y := make([]float64, n)
	for i := range y {
		y[i] = level + 0.5*rng.NormFloat64()
	}
	return y
}

// seasonalSeries returns a positive series with a trend and a period-4 wave.
func seasonalSeries(n int) []float64 {
	rng := rand.New(rand.NewPCG(5, 6))
	y := make([]float64, n)
	for i := range y {
		y[i] = 50 + 0.3*float64(i) + 6*math.Sin(2*math.Pi*float64(i%4)/4) + 0.3*rng.NormFloat64()
	}
	return y
}

// hourly returns n hourly time stamps starting at a fixed instant.
func hourly(n int) []time.Time {
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return times
}

// requireCode asserts that err is a *ServiceError with the given code.
func requireCode(t *testing.T, err error, code string) *ServiceError {
	t.Helper()
	require.Error(t, err)
	var se *ServiceError
	require.True(t, errors.As(err, &se), "expected *ServiceError, got %T", err)
	require.Equal(t, code, se.Code, se.Message)
	return se
}

// failingStore rejects every write.
type failingStore struct {
	storage.ModelStore
}

func (failingStore) Save(ctx context.Context, rec *storage.ModelRecord) error {
	return errors.New("disk full")
}
