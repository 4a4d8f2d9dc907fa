package storage

import (
	"context"
	"sync"
	"time"

	"github.com/soltixdb/autoets/internal/logging"
)

type memoryEntry struct {
	frame     []byte
	expiresAt time.Time // zero means no expiry
}

// MemoryStore keeps encoded records in a map. Expired entries are dropped
// on access and by Sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	codec   *codec
	ttl     time.Duration
	now     func() time.Time
	logger  *logging.Logger
}

// NewMemoryStore creates an in-memory store. ttl <= 0 keeps records forever.
func NewMemoryStore(ttl time.Duration, compression string, logger *logging.Logger) (*MemoryStore, error) {
	c, err := newCodec(compression)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Global()
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		codec:   c,
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// Save encodes and stores rec
func (s *MemoryStore) Save(ctx context.Context, rec *ModelRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame, err := s.codec.encode(rec)
	if err != nil {
		return err
	}

	entry := memoryEntry{frame: frame}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.entries[rec.ID] = entry
	s.mu.Unlock()

	s.logger.Debug("Model saved", "model_id", rec.ID, "bytes", len(frame))
	return nil
}

// Load returns a fresh copy of the record for id
func (s *MemoryStore) Load(ctx context.Context, id string) (*ModelRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrModelNotFound
	}
	if s.expired(entry) {
		s.mu.Lock()
		delete(s.entries, id)
		s.mu.Unlock()
		return nil, ErrModelNotFound
	}
	return s.codec.decode(entry.frame)
}

// Delete removes the record for id
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return ErrModelNotFound
	}
	delete(s.entries, id)
	if s.expired(entry) {
		return ErrModelNotFound
	}
	return nil
}

// Sweep drops expired records and returns how many were removed
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if s.expired(entry) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored records, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Close drops all records
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}
