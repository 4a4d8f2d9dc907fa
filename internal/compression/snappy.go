package compression

import (
	"fmt"

	"github.com/golang/snappy"
)

// MaxDecodedSize bounds the payload a snappy frame may expand to. Stored
// model records are a few kilobytes; anything claiming more is corrupt.
const MaxDecodedSize = 64 << 20

// SnappyCompressor implements Compressor using the Snappy block format
type SnappyCompressor struct{}

// NewSnappyCompressor creates a new Snappy compressor
func NewSnappyCompressor() *SnappyCompressor {
	return &SnappyCompressor{}
}

// Compress encodes data as one Snappy block
func (s *SnappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

// Decompress decodes a Snappy block after checking its declared length
func (s *SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("snappy header: %w", err)
	}
	if n > MaxDecodedSize {
		return nil, fmt.Errorf("snappy payload of %d bytes exceeds limit of %d", n, MaxDecodedSize)
	}

	out, err := snappy.Decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress failed: %w", err)
	}
	return out, nil
}

// Algorithm returns Snappy
func (s *SnappyCompressor) Algorithm() Algorithm {
	return Snappy
}
