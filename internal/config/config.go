package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	ETS     ETSConfig     `mapstructure:"ets"`
	Store   StoreConfig   `mapstructure:"store"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// ETSConfig holds the model selection and forecasting settings
type ETSConfig struct {
	Workers           int       `mapstructure:"workers"`             // Concurrent candidate fits (0 = GOMAXPROCS)
	MaxIterations     int       `mapstructure:"max_iterations"`      // Nelder-Mead iterations per free parameter
	MaxEvaluations    int       `mapstructure:"max_evaluations"`     // Objective evaluations per free parameter
	Tolerance         float64   `mapstructure:"tolerance"`           // Relative convergence tolerance
	MinResidualDF     int       `mapstructure:"min_residual_df"`     // Minimum n-k for non-fallback candidates
	MaxSeasonalPeriod int       `mapstructure:"max_seasonal_period"` // Longest period with seasonal candidates
	SimulationPaths   int       `mapstructure:"simulation_paths"`    // Sample paths for nonlinear intervals
	Seed              uint64    `mapstructure:"seed"`                // Simulation seed
	MaxHorizon        int       `mapstructure:"max_horizon"`         // Upper bound accepted from clients
	DefaultLevels     []float64 `mapstructure:"default_levels"`      // Interval levels when a request names none
}

// StoreConfig represents the fitted model store configuration
type StoreConfig struct {
	Type        string        `mapstructure:"type"`        // memory (default), redis
	URL         string        `mapstructure:"url"`         // redis://host:port/db
	Password    string        `mapstructure:"password"`    // Optional authentication
	DB          int           `mapstructure:"db"`          // Redis database number
	KeyPrefix   string        `mapstructure:"key_prefix"`  // Prefix for model keys
	TTL         time.Duration `mapstructure:"ttl"`         // Expiry of stored models (0 = never)
	Compression string        `mapstructure:"compression"` // none, snappy
}

// QueueConfig represents message queue configuration for forecast jobs
type QueueConfig struct {
	Type     string `mapstructure:"type"`     // none (default), nats, redis, kafka, memory
	URL      string `mapstructure:"url"`      // Queue server URL (e.g., nats://localhost:4222)
	Username string `mapstructure:"username"` // Optional authentication
	Password string `mapstructure:"password"` // Optional authentication

	RequestSubject string `mapstructure:"request_subject"` // Subject the job worker consumes
	ResultSubject  string `mapstructure:"result_subject"`  // Subject results are published to

	// Redis Streams options
	RedisDB    int    `mapstructure:"redis_db"`    // Redis database number
	RedisGroup string `mapstructure:"redis_group"` // Consumer group name

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`  // Kafka broker addresses
	KafkaGroupID string   `mapstructure:"kafka_group_id"` // Kafka consumer group ID
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.ETS.Validate(); err != nil {
		return fmt.Errorf("ets config: %w", err)
	}

	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	return nil
}

// Validate validates model fitting configuration
func (c *ETSConfig) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("ets.workers cannot be negative")
	}

	if c.MaxIterations < 1 {
		return fmt.Errorf("ets.max_iterations must be at least 1")
	}

	if c.MaxEvaluations < c.MaxIterations {
		return fmt.Errorf("ets.max_evaluations cannot be below ets.max_iterations")
	}

	if c.Tolerance <= 0 || c.Tolerance >= 1 {
		return fmt.Errorf("ets.tolerance must be in (0, 1)")
	}

	if c.SimulationPaths < 100 {
		return fmt.Errorf("ets.simulation_paths must be at least 100")
	}

	if c.MaxHorizon < 1 {
		return fmt.Errorf("ets.max_horizon must be at least 1")
	}

	for _, level := range c.DefaultLevels {
		if level <= 0 || level >= 1 {
			return fmt.Errorf("ets.default_levels must be in (0, 1), got %v", level)
		}
	}

	return nil
}

// Validate validates store configuration
func (c *StoreConfig) Validate() error {
	switch c.Type {
	case "memory":
	case "redis":
		if c.URL == "" {
			return fmt.Errorf("store.url is required for redis")
		}
	default:
		return fmt.Errorf("store.type must be 'memory' or 'redis'")
	}

	if c.Compression != "none" && c.Compression != "snappy" {
		return fmt.Errorf("store.compression must be 'none' or 'snappy'")
	}

	if c.TTL < 0 {
		return fmt.Errorf("store.ttl cannot be negative")
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "none":
		return nil
	case "memory":
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("queue.url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("queue.kafka_brokers is required for kafka")
		}
	default:
		return fmt.Errorf("queue.type must be one of: none, memory, nats, redis, kafka")
	}

	if c.RequestSubject == "" || c.ResultSubject == "" {
		return fmt.Errorf("queue.request_subject and queue.result_subject are required")
	}

	if c.RequestSubject == c.ResultSubject {
		return fmt.Errorf("queue.request_subject and queue.result_subject cannot be the same")
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
