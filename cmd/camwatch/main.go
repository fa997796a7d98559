package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mverge/camwatch/internal/config"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/logger"
	"github.com/mverge/camwatch/internal/server"
)

func main() {
	fmt.Println("=====================================")
	fmt.Println("  Camwatch - Camera Monitoring Hub   ")
	fmt.Println("=====================================")

	// Initialize configuration first
	configPath := os.Getenv("CAMWATCH_CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat("./camwatch.yaml"); err == nil {
			configPath = "./camwatch.yaml"
		}
	}

	loadErr := config.Load(configPath)

	// The logger is configured through the environment; fill it from the
	// config file when the environment says nothing.
	if os.Getenv("LOG_LEVEL") == "" {
		os.Setenv("LOG_LEVEL", config.Get().Logging.Level)
	}
	if os.Getenv("LOG_FORMAT") == "" {
		os.Setenv("LOG_FORMAT", config.Get().Logging.Format)
	}

	if loadErr != nil {
		logger.Warn("failed to load configuration from %s: %v, using defaults", configPath, loadErr)
	} else if configPath != "" {
		logger.Info("configuration loaded from %s", configPath)
	} else {
		logger.Info("using default configuration")
	}

	// Hot reload config edits for new connections
	stopWatch, err := config.Watch()
	if err != nil {
		logger.Warn("config watcher unavailable: %v", err)
		stopWatch = func() {}
	}
	defer stopWatch()

	// Initialize database
	if err := database.Initialize(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if err := database.SeedDemoData(database.GetDB()); err != nil {
		logger.Warn("failed to seed demo data: %v", err)
	}

	// Setup router with all modules
	r := server.SetupRouter()

	cfg := config.Get()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down gracefully...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error: %v", err)
		}

		server.Shutdown()
		cancel()
	}()

	logger.Info("starting camwatch server on %s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}

	<-ctx.Done()
	logger.Info("server shutdown complete")
}
