package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"

	"github.com/terramesh/api/internal/api"
	"github.com/terramesh/api/internal/config"
	"github.com/terramesh/api/internal/playground"
	"github.com/terramesh/api/internal/store"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log.Debug("Configuration loaded", "server_port", cfg.Server.Port, "db_path", cfg.Database.Path, "log_level", cfg.Logging.Level)

	// Setup logging
	setupLogging(cfg.Logging)
	log.Debug("Logging configured", "level", cfg.Logging.Level, "format", cfg.Logging.Format)

	// Initialize database
	log.Debug("Initializing database connection", "path", cfg.Database.Path)
	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize database", "error", err)
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db, cfg.Database.MigrationsPath); err != nil {
		log.Fatal("Failed to run database migrations", "error", err)
	}

	// Initialize playground manager
	log.Debug("Initializing playground manager")
	manager := playground.NewManager(cfg.Terrain, store.New(db))

	// Start background services
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go startBackgroundServices(ctx, cfg.Terrain, manager)

	// Initialize API handlers
	handler := api.NewHandler(manager)
	router := api.SetupRoutes(handler)
	log.Debug("API routes configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Starting TerraMesh API server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info("Shutting down server...", "signal", sig.String())

	// Create context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown server
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server exited")
}

func setupLogging(cfg config.LoggingConfig) {
	// Set log level
	switch cfg.Level {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.Warn("Invalid log level, using info", "level", cfg.Level)
		log.SetLevel(log.InfoLevel)
	}

	// Configure output format
	if cfg.Format == "pretty" || !cfg.Structured {
		log.SetReportCaller(true)
		log.SetReportTimestamp(true)
	}

	// Add service info context
	log.SetPrefix("[terramesh-api] ")
}

func initializeDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	log.Debug("Opening database connection", "path", cfg.Path)
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Database initialized", "path", cfg.Path)
	return db, nil
}

func runMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsPath,
		"sqlite3",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations completed")
	return nil
}

func startBackgroundServices(ctx context.Context, cfg config.TerrainConfig, manager *playground.Manager) {
	log.Debug("Starting map eviction ticker", "interval", cfg.EvictionInterval, "ttl", cfg.MapTTL)
	evictTicker := time.NewTicker(cfg.EvictionInterval)
	defer evictTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Background services stopped")
			return

		case <-evictTicker.C:
			start := time.Now()
			if evicted := manager.EvictExpired(); evicted > 0 {
				log.Debug("Eviction cycle completed", "evicted", evicted, "duration", time.Since(start))
			}
		}
	}
}
