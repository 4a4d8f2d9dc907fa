package storage

import (
	"fmt"
	"strings"

	"github.com/soltixdb/autoets/internal/config"
	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/utils"
)

// NewStore creates the model store named by cfg.Type
func NewStore(cfg config.StoreConfig, logger *logging.Logger) (ModelStore, error) {
	switch utils.StoreType(strings.ToLower(cfg.Type)) {
	case "", utils.StoreTypeMemory:
		return NewMemoryStore(cfg.TTL, cfg.Compression, logger)
	case utils.StoreTypeRedis:
		return NewRedisStore(RedisConfig{
			URL:         cfg.URL,
			Password:    cfg.Password,
			DB:          cfg.DB,
			KeyPrefix:   cfg.KeyPrefix,
			TTL:         cfg.TTL,
			Compression: cfg.Compression,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s (supported: memory, redis)", cfg.Type)
	}
}
