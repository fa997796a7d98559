// Package sensormodule manages the registered environmental sensors.
package sensormodule

import (
	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/logger"
	"github.com/mverge/camwatch/internal/modules/authmodule"
	"github.com/mverge/camwatch/internal/modules/modulemanager"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the sensor module
	ModuleID = "system.sensors"
	// ModuleName is the display name for the sensor module
	ModuleName = "Sensor Manager"
)

// Register the sensor module on startup
func init() {
	modulemanager.Register(&Module{})
}

// Module provides CRUD for sensor records.
type Module struct {
	db *gorm.DB
}

// NewModule creates a sensor module bound to a database, for tests.
func NewModule(db *gorm.DB) *Module {
	return &Module{db: db}
}

// ID returns the module ID
func (m *Module) ID() string {
	return ModuleID
}

// Name returns the module name
func (m *Module) Name() string {
	return ModuleName
}

// Core reports that this is not a core module
func (m *Module) Core() bool {
	return false
}

// Migrate runs the sensor table migration
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.Sensor{})
}

// Init initializes the sensor module
func (m *Module) Init() error {
	m.db = database.GetDB()
	logger.Info("sensor module initialized")
	return nil
}

// RegisterRoutes registers sensor CRUD routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	sensors := router.Group("/api/sensors", authmodule.RequireAuth())
	{
		sensors.GET("", m.ListSensors)
		sensors.POST("", m.CreateSensor)
		sensors.GET("/:id", m.GetSensor)
		sensors.PUT("/:id", m.UpdateSensor)
		sensors.DELETE("/:id", m.DeleteSensor)
	}
}
