package anomaly

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/soltixdb/autoets/internal/analytics/ets"
)

func createTestDataPoints(values []float64) []DataPoint {
	points := make([]DataPoint, len(values))
	baseTime := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range values {
		points[i] = DataPoint{
			Time:  baseTime.Add(time.Duration(i) * time.Minute),
			Value: v,
		}
	}
	return points
}

func wobble(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 10 + 0.5*math.Sin(float64(i)*1.3)
	}
	return values
}

func fitSES(t *testing.T, values []float64) *ets.FittedModel {
	t.Helper()
	spec, err := ets.ParseSpec("ANN")
	if err != nil {
		t.Fatal(err)
	}
	model, err := ets.FitSpec(context.Background(), spec, values, 1, ets.DefaultOptimizerConfig())
	if err != nil {
		t.Fatalf("FitSpec failed: %v", err)
	}
	return model
}

func TestDetect_SpikeAndDrop(t *testing.T) {
	values := wobble(60)
	values[30] = 40
	values[45] = -20
	data := createTestDataPoints(values)

	results, err := Detect(fitSES(t, values), data, DefaultConfig())
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}

	found := map[int]AnomalyType{}
	for _, r := range results {
		found[r.Index] = r.Type
		if r.Score <= DefaultConfig().Threshold {
			t.Errorf("index %d reported with score %v", r.Index, r.Score)
		}
		if r.Value >= r.Expected.Min && r.Value <= r.Expected.Max {
			t.Errorf("index %d value %v inside expected range %+v", r.Index, r.Value, r.Expected)
		}
		if r.Time == "" {
			t.Errorf("index %d missing time", r.Index)
		}
	}

	if found[30] != AnomalyTypeSpike {
		t.Errorf("expected spike at index 30, got %v", results)
	}
	if found[45] != AnomalyTypeDrop {
		t.Errorf("expected drop at index 45, got %v", results)
	}
}

func TestDetect_CleanSeries(t *testing.T) {
	values := wobble(50)
	results, err := Detect(fitSES(t, values), createTestDataPoints(values), DetectorConfig{Threshold: 4})
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no anomalies, got %v", results)
	}
}

func TestDetect_LengthMismatch(t *testing.T) {
	values := wobble(30)
	if _, err := Detect(fitSES(t, values), createTestDataPoints(values[:20]), DefaultConfig()); err == nil {
		t.Error("expected error for mismatched data")
	}
}
