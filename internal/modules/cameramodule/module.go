// Package cameramodule manages the registered IP cameras.
package cameramodule

import (
	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/logger"
	"github.com/mverge/camwatch/internal/modules/authmodule"
	"github.com/mverge/camwatch/internal/modules/modulemanager"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the camera module
	ModuleID = "system.cameras"
	// ModuleName is the display name for the camera module
	ModuleName = "Camera Manager"
)

// Register the camera module on startup
func init() {
	modulemanager.Register(&Module{})
}

// Module provides CRUD for camera records.
type Module struct {
	db *gorm.DB
}

// NewModule creates a camera module bound to a database, for tests.
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

// Migrate runs the camera table migration
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.Camera{})
}

// Init initializes the camera module
func (m *Module) Init() error {
	m.db = database.GetDB()
	logger.Info("camera module initialized")
	return nil
}

// RegisterRoutes registers camera CRUD routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	cameras := router.Group("/api/cameras", authmodule.RequireAuth())
	{
		cameras.GET("", m.ListCameras)
		cameras.POST("", m.CreateCamera)
		cameras.GET("/:id", m.GetCamera)
		cameras.PUT("/:id", m.UpdateCamera)
		cameras.DELETE("/:id", m.DeleteCamera)
	}
}
