package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/autoets/internal/logging"
)

func newTestMemoryStore(t *testing.T, ttl time.Duration) *MemoryStore {
	t.Helper()
	s, err := NewMemoryStore(ttl, "snappy", logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestMemoryStore_SaveLoadDelete(t *testing.T) {
	s := newTestMemoryStore(t, 0)
	ctx := context.Background()

	rec := testRecord(t, "m1")
	require.NoError(t, s.Save(ctx, rec))
	assert.Equal(t, 1, s.Len())

	got, err := s.Load(ctx, "m1")
	require.NoError(t, err)
	assertSameSnapshot(t, rec, got)
	assert.Equal(t, "ses", got.Method)

	require.NoError(t, s.Delete(ctx, "m1"))
	_, err = s.Load(ctx, "m1")
	assert.ErrorIs(t, err, ErrModelNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "m1"), ErrModelNotFound)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	s := newTestMemoryStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, testRecord(t, "m1")))

	first, err := s.Load(ctx, "m1")
	require.NoError(t, err)
	first.Snapshot.Params.Alpha = 42
	first.Method = "changed"

	second, err := s.Load(ctx, "m1")
	require.NoError(t, err)
	assert.NotEqual(t, 42.0, second.Snapshot.Params.Alpha)
	assert.Equal(t, "ses", second.Method)
}

func TestMemoryStore_TTL(t *testing.T) {
	s := newTestMemoryStore(t, time.Minute)
	ctx := context.Background()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, testRecord(t, "a")))
	require.NoError(t, s.Save(ctx, testRecord(t, "b")))

	now = now.Add(30 * time.Second)
	_, err := s.Load(ctx, "a")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = s.Load(ctx, "a")
	assert.ErrorIs(t, err, ErrModelNotFound)
	assert.Equal(t, 1, s.Len(), "expired entry is dropped on access")

	assert.Equal(t, 1, s.Sweep())
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_DeleteExpired(t *testing.T) {
	s := newTestMemoryStore(t, time.Second)
	ctx := context.Background()

	now := time.Now()
	s.now = func() time.Time { return now }
	require.NoError(t, s.Save(ctx, testRecord(t, "a")))

	now = now.Add(2 * time.Second)
	assert.ErrorIs(t, s.Delete(ctx, "a"), ErrModelNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := newTestMemoryStore(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, s.Save(ctx, testRecord(t, "a")), context.Canceled)
	_, err := s.Load(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.Delete(ctx, "a"), context.Canceled)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := newTestMemoryStore(t, 0)
	ctx := context.Background()
	rec := testRecord(t, "shared")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.Save(ctx, rec)
				_, _ = s.Load(ctx, "shared")
			}
		}()
	}
	wg.Wait()

	_, err := s.Load(ctx, "shared")
	assert.NoError(t, err)
}
