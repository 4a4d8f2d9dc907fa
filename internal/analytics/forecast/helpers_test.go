package forecast

import (
	"math"
	"math/rand/v2"
	"time"
)

// Common test data and helpers for all forecast tests

var (
	testBaseTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	testInterval = time.Hour
)

func generateData(n int, seed uint64, noise float64, f func(i int) float64) []DataPoint {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	data := make([]DataPoint, n)
	for i := range data {
		data[i] = DataPoint{
			Time:  testBaseTime.Add(testInterval * time.Duration(i)),
			Value: f(i) + noise*rng.NormFloat64(),
		}
	}
	return data
}

// generateLinearData creates noisy test data around y = slope * x + intercept
func generateLinearData(n int, slope, intercept float64) []DataPoint {
	return generateData(n, 3, 0.5, func(i int) float64 {
		return slope*float64(i) + intercept
	})
}

// generateSeasonalTestData creates positive test data with a trend and seasonal pattern
func generateSeasonalTestData(n int, period int) []DataPoint {
	return generateData(n, 5, 0.3, func(i int) float64 {
		trend := float64(i) * 0.1
		seasonal := 10 * math.Sin(2*math.Pi*float64(i%period)/float64(period))
		return 50 + trend + seasonal
	})
}

func testConfig(horizon, period int) ForecastConfig {
	config := DefaultForecastConfig()
	config.Horizon = horizon
	config.SeasonalPeriod = period
	return config
}
