package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/utils"
)

// RedisConfig represents the Redis model store configuration
type RedisConfig struct {
	URL         string        // Redis URL (e.g., redis://localhost:6379/0)
	Password    string        // Optional password
	DB          int           // Database number, overrides the URL when non-zero
	KeyPrefix   string        // Prefix for model keys (default: "autoets:model:")
	TTL         time.Duration // Key expiry (0 = never)
	Compression string        // none, snappy
}

// RedisStore keeps encoded records as Redis string keys
type RedisStore struct {
	client *redis.Client
	config RedisConfig
	codec  *codec
	logger *logging.Logger
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(cfg RedisConfig, logger *logging.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		opts = &redis.Options{Addr: cfg.URL}
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	return newRedisStoreWithClient(redis.NewClient(opts), cfg, logger)
}

func newRedisStoreWithClient(client *redis.Client, cfg RedisConfig, logger *logging.Logger) (*RedisStore, error) {
	c, err := newCodec(cfg.Compression)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "autoets:model:"
	}
	if logger == nil {
		logger = logging.Global()
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.StoreTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, config: cfg, codec: c, logger: logger}, nil
}

func (s *RedisStore) key(id string) string {
	return s.config.KeyPrefix + id
}

// Save writes rec with the configured TTL
func (s *RedisStore) Save(ctx context.Context, rec *ModelRecord) error {
	frame, err := s.codec.encode(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(rec.ID), frame, s.config.TTL).Err(); err != nil {
		return fmt.Errorf("failed to save model %s: %w", rec.ID, err)
	}
	s.logger.Debug("Model saved", "model_id", rec.ID, "bytes", len(frame))
	return nil
}

// Load reads and decodes the record for id
func (s *RedisStore) Load(ctx context.Context, id string) (*ModelRecord, error) {
	frame, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrModelNotFound
		}
		return nil, fmt.Errorf("failed to load model %s: %w", id, err)
	}
	return s.codec.decode(frame)
}

// Delete removes the record for id
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete model %s: %w", id, err)
	}
	if n == 0 {
		return ErrModelNotFound
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}
