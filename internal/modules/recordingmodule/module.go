// Package recordingmodule manages stored recording entries. The live
// capture itself runs in the stream engine; this module is the durable
// catalog behind it.
package recordingmodule

import (
	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/logger"
	"github.com/mverge/camwatch/internal/modules/authmodule"
	"github.com/mverge/camwatch/internal/modules/modulemanager"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the recording module
	ModuleID = "system.recordings"
	// ModuleName is the display name for the recording module
	ModuleName = "Recording Catalog"
)

// Register the recording module on startup
func init() {
	modulemanager.Register(&Module{})
}

// Module provides CRUD for recording entries.
type Module struct {
	db *gorm.DB
}

// NewModule creates a recording module bound to a database, for tests.
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

// Migrate runs the recording table migration
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.Recording{})
}

// Init initializes the recording module
func (m *Module) Init() error {
	m.db = database.GetDB()
	logger.Info("recording module initialized")
	return nil
}

// RegisterRoutes registers recording CRUD routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	recordings := router.Group("/api/recordings", authmodule.RequireAuth())
	{
		recordings.GET("", m.ListRecordings)
		recordings.POST("", m.CreateRecording)
		recordings.GET("/:id", m.GetRecording)
		recordings.PUT("/:id", m.UpdateRecording)
		recordings.DELETE("/:id", m.DeleteRecording)
	}
}
