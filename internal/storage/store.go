// Package storage keeps fitted models between a fit request and later
// forecasts. Records are JSON encoded and framed by internal/compression.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soltixdb/autoets/internal/analytics/ets"
	"github.com/soltixdb/autoets/internal/compression"
)

// ErrModelNotFound is returned when no record exists for an id, including
// records whose TTL has passed.
var ErrModelNotFound = errors.New("model not found")

// ModelRecord is a stored fitted model plus what is needed to time-stamp
// its forecasts.
type ModelRecord struct {
	ID        string        `json:"id"`
	Method    string        `json:"method"`
	Snapshot  *ets.Snapshot `json:"snapshot"`
	LastTime  *time.Time    `json:"last_time,omitempty"`
	Interval  time.Duration `json:"interval,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Model rebuilds the fitted model held by the record.
func (r *ModelRecord) Model() (*ets.FittedModel, error) {
	if r.Snapshot == nil {
		return nil, fmt.Errorf("record %s has no snapshot", r.ID)
	}
	return ets.FromSnapshot(r.Snapshot)
}

// ModelStore persists model records by id
type ModelStore interface {
	// Save writes rec, replacing any record with the same id
	Save(ctx context.Context, rec *ModelRecord) error

	// Load returns the record for id or ErrModelNotFound
	Load(ctx context.Context, id string) (*ModelRecord, error)

	// Delete removes the record for id or returns ErrModelNotFound
	Delete(ctx context.Context, id string) error

	// Close releases the backend
	Close() error
}

// codec turns records into framed blobs and back
type codec struct {
	compressor compression.Compressor
}

func newCodec(algorithm string) (*codec, error) {
	algo, err := compression.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	c, err := compression.GetCompressor(algo)
	if err != nil {
		return nil, err
	}
	return &codec{compressor: c}, nil
}

func (c *codec) encode(rec *ModelRecord) ([]byte, error) {
	if rec == nil || rec.ID == "" {
		return nil, fmt.Errorf("model record requires an id")
	}
	if rec.Snapshot == nil {
		return nil, fmt.Errorf("model record %s has no snapshot", rec.ID)
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode model %s: %w", rec.ID, err)
	}
	return compression.Seal(c.compressor, raw)
}

// decode accepts frames written under any compression setting
func (c *codec) decode(frame []byte) (*ModelRecord, error) {
	raw, err := compression.Open(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress model: %w", err)
	}
	var rec ModelRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	return &rec, nil
}
