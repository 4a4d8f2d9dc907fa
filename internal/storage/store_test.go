package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soltixdb/autoets/internal/compression"
	"github.com/soltixdb/autoets/internal/config"
	"github.com/soltixdb/autoets/internal/logging"
)

func TestCodec_RoundTrip(t *testing.T) {
	for _, algo := range []string{"none", "snappy"} {
		t.Run(algo, func(t *testing.T) {
			c, err := newCodec(algo)
			require.NoError(t, err)

			rec := testRecord(t, "m1")
			frame, err := c.encode(rec)
			require.NoError(t, err)

			got, err := c.decode(frame)
			require.NoError(t, err)
			assert.Equal(t, rec.ID, got.ID)
			assert.Equal(t, rec.Method, got.Method)
			assert.Equal(t, rec.Interval, got.Interval)
			assert.True(t, rec.LastTime.Equal(*got.LastTime))
			assertSameSnapshot(t, rec, got)

			model, err := got.Model()
			require.NoError(t, err)
			assert.Equal(t, "ANN", model.Spec().Code())
		})
	}
}

func TestCodec_FrameHeader(t *testing.T) {
	c, err := newCodec("snappy")
	require.NoError(t, err)

	frame, err := c.encode(testRecord(t, "m1"))
	require.NoError(t, err)
	assert.Equal(t, byte(compression.Snappy), frame[0])

	// Frames written under another setting still decode.
	plain, err := newCodec("none")
	require.NoError(t, err)
	_, err = plain.decode(frame)
	assert.NoError(t, err)
}

func TestCodec_Errors(t *testing.T) {
	_, err := newCodec("zstd")
	assert.Error(t, err)

	c, err := newCodec("none")
	require.NoError(t, err)

	_, err = c.encode(&ModelRecord{})
	assert.Error(t, err, "record without id")

	_, err = c.encode(&ModelRecord{ID: "x"})
	assert.Error(t, err, "record without snapshot")

	_, err = c.decode(nil)
	assert.ErrorIs(t, err, compression.ErrEmptyFrame)

	_, err = c.decode([]byte{byte(compression.None), '{'})
	assert.Error(t, err)
}

func TestModelRecord_ModelWithoutSnapshot(t *testing.T) {
	_, err := (&ModelRecord{ID: "x"}).Model()
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(config.StoreConfig{Type: "memory", Compression: "snappy"}, logging.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)
	require.NoError(t, s.Close())

	_, err = NewStore(config.StoreConfig{Type: "bolt"}, logging.Nop())
	assert.Error(t, err)

	_, err = NewStore(config.StoreConfig{Type: "memory", Compression: "lz4"}, logging.Nop())
	assert.Error(t, err)
}
