package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout bounds a fit or forecast served over HTTP
	DefaultRequestTimeout = 30 * time.Second

	// StoreTimeout bounds a single model store round trip
	StoreTimeout = 5 * time.Second

	// ShutdownTimeout bounds graceful shutdown of the HTTP server and job worker
	ShutdownTimeout = 10 * time.Second
)

// Job Worker Timeouts
const (
	// JobTimeout bounds one queued forecast job
	JobTimeout = 60 * time.Second

	// QueueConnectTimeout bounds the initial broker ping
	QueueConnectTimeout = 5 * time.Second
)

// =============================================================================
// Retry and Backoff Constants
// =============================================================================

const (
	// DefaultMaxRetries is the default number of retry attempts
	DefaultMaxRetries = 3

	// DefaultRetryBackoff is the default backoff duration between retries
	DefaultRetryBackoff = 100 * time.Millisecond
)

// =============================================================================
// Request Limits
// =============================================================================

const (
	// MaxSeriesLength caps the observations accepted in one request
	MaxSeriesLength = 100000

	// MaxLevels caps the interval levels accepted in one request
	MaxLevels = 10
)

// =============================================================================
// Backend Type Constants
// =============================================================================

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNone disables the job worker
	QueueTypeNone QueueType = "none"

	// QueueTypeNATS represents NATS JetStream queue
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams queue
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka queue
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)

// StoreType represents the fitted model store backend
type StoreType string

const (
	// StoreTypeMemory keeps models in process memory
	StoreTypeMemory StoreType = "memory"

	// StoreTypeRedis keeps models in Redis
	StoreTypeRedis StoreType = "redis"
)
