package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soltixdb/autoets/internal/config"
	"github.com/soltixdb/autoets/internal/logging"
	"github.com/soltixdb/autoets/internal/queue"
	"github.com/soltixdb/autoets/internal/router"
	"github.com/soltixdb/autoets/internal/services"
	"github.com/soltixdb/autoets/internal/storage"
	"github.com/soltixdb/autoets/internal/utils"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

// sweepInterval is how often expired models are evicted from the memory store
const sweepInterval = time.Minute

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("AutoETS service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Open model store
	logger.Info("Opening model store", "type", cfg.Store.Type, "compression", cfg.Store.Compression, "ttl", cfg.Store.TTL)
	store, err := storage.NewStore(cfg.Store, logger)
	if err != nil {
		logger.Fatal("Failed to open model store", "error", err)
	}
	defer func() { _ = store.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if mem, ok := store.(*storage.MemoryStore); ok && cfg.Store.TTL > 0 {
		go sweepExpired(ctx, logger, mem)
	}

	forecastService := services.NewForecastService(logger, store, cfg.ETS)

	// Start the job worker when a queue backend is configured
	var (
		queueClient queue.Queue
		worker      *services.JobWorker
	)
	if cfg.QueueEnabled() {
		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		queueClient, err = queue.NewQueue(cfg.Queue)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = queueClient.Close() }()

		worker = services.NewJobWorker(logger, forecastService, queueClient, cfg.Queue)
		if err := worker.Start(); err != nil {
			logger.Fatal("Failed to start job worker", "error", err)
		}
	} else {
		logger.Info("Queue disabled, forecasts are served over HTTP only")
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	app := router.New(logger, forecastService, *cfg)

	// Start server in goroutine
	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if worker != nil {
		if err := worker.Stop(); err != nil {
			logger.Warn("Failed to stop job worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), utils.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}

func sweepExpired(ctx context.Context, logger *logging.Logger, store *storage.MemoryStore) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				logger.Debug("Evicted expired models", "count", n, "remaining", store.Len())
			}
		}
	}
}
