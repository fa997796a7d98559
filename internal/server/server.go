// Package server assembles the HTTP surface: router, middleware, event bus
// and the module system.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/config"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/events"
	"github.com/mverge/camwatch/internal/logger"
	"github.com/mverge/camwatch/internal/middleware"
	"github.com/mverge/camwatch/internal/modules/modulemanager"

	// Import all modules to trigger their registration
	_ "github.com/mverge/camwatch/internal/modules/authmodule"
	_ "github.com/mverge/camwatch/internal/modules/cameramodule"
	_ "github.com/mverge/camwatch/internal/modules/eventsmodule"
	_ "github.com/mverge/camwatch/internal/modules/recordingmodule"
	_ "github.com/mverge/camwatch/internal/modules/sensormodule"
	_ "github.com/mverge/camwatch/internal/modules/streammodule"
	_ "github.com/mverge/camwatch/internal/modules/systemmodule"
)

var (
	systemEventBus    events.EventBus
	moduleInitialized bool
)

// SetupRouter configures and returns the main router
func SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorLogger())

	if config.Get().Server.EnableCORS {
		r.Use(corsMiddleware())
	}

	if err := initializeEventBus(); err != nil {
		logger.Error("failed to initialize event bus: %v", err)
	}

	if err := initializeModules(); err != nil {
		logger.Error("failed to initialize modules: %v", err)
	}

	modulemanager.RegisterRoutes(r)
	return r
}

// corsMiddleware allows the dashboard frontend to call the API from a
// different origin during development.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", c.GetHeader("Origin"))
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// initializeEventBus sets up and starts the system-wide event bus
func initializeEventBus() error {
	if systemEventBus != nil {
		return nil
	}

	systemEventBus = events.NewEventBus(events.DefaultEventBusConfig())
	if err := systemEventBus.Start(); err != nil {
		return err
	}

	events.SetGlobalEventBus(systemEventBus)
	logger.Info("system event bus initialized and started")
	return nil
}

// initializeModules loads every registered module against the database
func initializeModules() error {
	if moduleInitialized {
		return nil
	}

	if err := modulemanager.LoadAll(database.GetDB()); err != nil {
		return err
	}

	moduleInitialized = true
	logModuleStatus()
	return nil
}

// logModuleStatus logs the loaded modules
func logModuleStatus() {
	modules := modulemanager.ListModules()
	logger.Info("module system initialized with %d modules", len(modules))
	for _, module := range modules {
		core := "no"
		if module.Core() {
			core = "yes"
		}
		logger.Info("  %-20s %-20s core=%s", module.Name(), module.ID(), core)
	}
}

// GetEventBus returns the system event bus instance
func GetEventBus() events.EventBus {
	return systemEventBus
}

// Shutdown tears down modules and stops the event bus
func Shutdown() {
	modulemanager.Shutdown()

	if systemEventBus != nil {
		if err := systemEventBus.Stop(); err != nil {
			logger.Error("failed to stop event bus: %v", err)
		}
	}
}
