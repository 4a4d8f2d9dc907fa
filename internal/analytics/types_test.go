package analytics

import (
	"math"
	"testing"
	"time"
)

func TestTimeSeriesData_Stats(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := TimeSeriesData{
		{Time: base, Value: 2},
		{Time: base.Add(time.Hour), Value: 4},
		{Time: base.Add(2 * time.Hour), Value: 6},
	}

	if ts.Len() != 3 {
		t.Fatalf("expected 3 points, got %d", ts.Len())
	}
	if got := ts.Mean(); got != 4 {
		t.Errorf("expected mean 4, got %v", got)
	}
	if got := ts.StdDev(); math.Abs(got-2) > 1e-12 {
		t.Errorf("expected stddev 2, got %v", got)
	}
	if got := ts.Interval(time.Minute); got != time.Hour {
		t.Errorf("expected hourly interval, got %v", got)
	}
	if got := ts[:1].Interval(time.Minute); got != time.Minute {
		t.Errorf("expected fallback interval, got %v", got)
	}
	values := ts.Values()
	if len(values) != 3 || values[2] != 6 {
		t.Errorf("unexpected values %v", values)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		finite   bool
		positive bool
	}{
		{"positive", []float64{1, 2, 3}, true, true},
		{"with zero", []float64{1, 0, 3}, true, false},
		{"negative", []float64{-1, 2}, true, false},
		{"nan", []float64{1, math.NaN()}, false, false},
		{"inf", []float64{math.Inf(1), 2}, false, true},
		{"empty", nil, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllFinite(tt.values); got != tt.finite {
				t.Errorf("AllFinite() = %v, want %v", got, tt.finite)
			}
			if got := AllPositive(tt.values); got != tt.positive {
				t.Errorf("AllPositive() = %v, want %v", got, tt.positive)
			}
		})
	}
}

func TestMeanSquare(t *testing.T) {
	if got := MeanSquare([]float64{3, 4}); got != 12.5 {
		t.Errorf("expected 12.5, got %v", got)
	}
	if got := MeanSquare(nil); got != 0 {
		t.Errorf("expected 0 for empty input, got %v", got)
	}
}
