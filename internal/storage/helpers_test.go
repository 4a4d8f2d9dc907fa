package storage

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/soltixdb/autoets/internal/analytics/ets"
)

// testRecord fits ETS(A,N,N) to a short wave and wraps it in a record.
func testRecord(t *testing.T, id string) *ModelRecord {
	t.Helper()
	y := make([]float64, 40)
	for i := range y {
		y[i] = 10 + math.Sin(float64(i)/3)
	}

	spec, err := ets.ParseSpec("ANN")
	require.NoError(t, err)
	model, err := ets.FitSpec(context.Background(), spec, y, 1, ets.OptimizerConfig{})
	require.NoError(t, err)

	last := time.Date(2026, 1, 1, 0, 39, 0, 0, time.UTC)
	return &ModelRecord{
		ID:        id,
		Method:    "ses",
		Snapshot:  model.Snapshot(),
		LastTime:  &last,
		Interval:  time.Minute,
		CreatedAt: time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC),
	}
}

func assertSameSnapshot(t *testing.T, want, got *ModelRecord) {
	t.Helper()
	require.NotNil(t, got.Snapshot)
	require.Equal(t, want.Snapshot.Spec, got.Snapshot.Spec)
	require.Equal(t, want.Snapshot.Params, got.Snapshot.Params)
	require.Equal(t, want.Snapshot.Initial.Level, got.Snapshot.Initial.Level)
	require.Equal(t, want.Snapshot.Final.Level, got.Snapshot.Final.Level)
	require.Equal(t, want.Snapshot.N, got.Snapshot.N)
	require.Equal(t, want.Snapshot.AICc, got.Snapshot.AICc)
}
