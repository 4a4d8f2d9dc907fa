package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")            // Current directory
		v.AddConfigPath("./configs")    // Project configs directory
		v.AddConfigPath("./config")     // Alternative config directory
		v.AddConfigPath("/etc/autoets") // System-wide config
	}

	setDefaults(v)

	// Environment overrides, e.g. AUTOETS_STORE_URL for store.url
	v.SetEnvPrefix("AUTOETS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)

	// Model fitting defaults
	v.SetDefault("ets.workers", d.ETS.Workers)
	v.SetDefault("ets.max_iterations", d.ETS.MaxIterations)
	v.SetDefault("ets.max_evaluations", d.ETS.MaxEvaluations)
	v.SetDefault("ets.tolerance", d.ETS.Tolerance)
	v.SetDefault("ets.min_residual_df", d.ETS.MinResidualDF)
	v.SetDefault("ets.max_seasonal_period", d.ETS.MaxSeasonalPeriod)
	v.SetDefault("ets.simulation_paths", d.ETS.SimulationPaths)
	v.SetDefault("ets.seed", d.ETS.Seed)
	v.SetDefault("ets.max_horizon", d.ETS.MaxHorizon)
	v.SetDefault("ets.default_levels", d.ETS.DefaultLevels)

	// Store defaults
	v.SetDefault("store.type", d.Store.Type)
	v.SetDefault("store.url", d.Store.URL)
	v.SetDefault("store.key_prefix", d.Store.KeyPrefix)
	v.SetDefault("store.ttl", d.Store.TTL.String())
	v.SetDefault("store.compression", d.Store.Compression)

	// Queue defaults
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.url", d.Queue.URL)
	v.SetDefault("queue.request_subject", d.Queue.RequestSubject)
	v.SetDefault("queue.result_subject", d.Queue.ResultSubject)
	v.SetDefault("queue.redis_group", d.Queue.RedisGroup)
	v.SetDefault("queue.kafka_group_id", d.Queue.KafkaGroupID)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 5555,
		},
		ETS: ETSConfig{
			Workers:           0,
			MaxIterations:     5000,
			MaxEvaluations:    50000,
			Tolerance:         1e-8,
			MinResidualDF:     5,
			MaxSeasonalPeriod: 24,
			SimulationPaths:   5000,
			Seed:              42,
			MaxHorizon:        1000,
			DefaultLevels:     []float64{0.8, 0.95},
		},
		Store: StoreConfig{
			Type:        "memory",
			URL:         "redis://localhost:6379/0",
			KeyPrefix:   "autoets:model:",
			TTL:         24 * time.Hour,
			Compression: "snappy",
		},
		Queue: QueueConfig{
			Type:           "none",
			URL:            "nats://localhost:4222",
			RequestSubject: "autoets.jobs",
			ResultSubject:  "autoets.results",
			RedisGroup:     "autoets-workers",
			KafkaGroupID:   "autoets-workers",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
