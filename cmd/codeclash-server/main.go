package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/akiroussama/codeClashServer/internal/config"
	"github.com/akiroussama/codeClashServer/internal/handlers"
	"github.com/akiroussama/codeClashServer/internal/logging"
	"github.com/akiroussama/codeClashServer/internal/ratelimit"
	"github.com/akiroussama/codeClashServer/internal/registry"
	"github.com/akiroussama/codeClashServer/internal/server"
	"github.com/akiroussama/codeClashServer/internal/service"
	"github.com/akiroussama/codeClashServer/internal/store"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize structured logging
	logger := logging.New(
		logging.ParseLevel(cfg.Logging.Level),
		cfg.Logging.Format,
	).With(logging.Service("codeclash-server"))
	logging.SetDefault(logger)

	slog.Info("Starting CodeClash relay server",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("log_format", cfg.Logging.Format),
	)
	if *configPath != "" {
		slog.Info("Loaded configuration", slog.String("config_path", *configPath))
	}

	connString := cfg.Database.ConnString()
	slog.Info("Connecting to PostgreSQL",
		slog.String("host", cfg.Database.Host),
		slog.Int("port", cfg.Database.Port),
		slog.String("database", cfg.Database.Database),
	)

	// Run database migrations
	slog.Info("Running database migrations")
	m, err := migrate.New("file://"+cfg.Database.MigrationsDir, connString)
	if err != nil {
		slog.Error("Failed to initialize migrations", logging.Error(err))
		os.Exit(1)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		slog.Error("Failed to run migrations", logging.Error(err))
		os.Exit(1)
	}
	version, dirty, err := m.Version()
	if err != nil {
		slog.Warn("Could not get migration version", logging.Error(err))
	} else {
		slog.Info("Database migration complete",
			slog.Uint64("version", uint64(version)),
			slog.Bool("dirty", dirty),
		)
	}

	// Initialize the event store
	eventStore, err := store.NewPostgresStore(context.Background(), connString)
	if err != nil {
		slog.Error("Failed to connect to PostgreSQL", logging.Error(err))
		os.Exit(1)
	}
	defer eventStore.Close()
	slog.Info("Connected to PostgreSQL")

	// Initialize rate limiter
	var limiter ratelimit.RateLimiter
	if cfg.Redis.Enabled && cfg.Ingestion.RateLimitEnabled {
		limiter, err = ratelimit.NewRedisRateLimiter(
			cfg.Redis.URL,
			cfg.Ingestion.RateLimitRequests,
			cfg.Ingestion.RateLimitWindow,
		)
		if err != nil {
			slog.Warn("Failed to initialize Redis rate limiter, continuing without rate limiting",
				logging.Error(err))
			limiter = &ratelimit.NoOpRateLimiter{}
		} else {
			slog.Info("Rate limiting enabled",
				slog.Int("requests", cfg.Ingestion.RateLimitRequests),
				slog.Duration("window", cfg.Ingestion.RateLimitWindow),
			)
		}
	} else {
		limiter = &ratelimit.NoOpRateLimiter{}
	}
	defer limiter.Close()

	// Connection registry for observers
	reg := registry.New(cfg.Websocket.SendBuffer, cfg.Websocket.WriteTimeout)

	// Service layer
	ingestService := service.NewIngestService(eventStore, reg)
	queryService := service.NewQueryService(eventStore)

	// HTTP handlers and router
	handler := handlers.New(ingestService, queryService, limiter, int64(cfg.Ingestion.MaxEventSize))
	wsHandler := handlers.NewWSHandler(reg)
	healthHandler := handlers.NewHealthHandler(eventStore)
	router := server.NewRouter(handler, wsHandler, healthHandler)

	// Create server with config values
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		slog.Info("CodeClash relay server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", logging.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", logging.Error(err))
	}

	slog.Info("Server stopped")
}
