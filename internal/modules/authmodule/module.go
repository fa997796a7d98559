// Package authmodule provides account registration and cookie-based session
// authentication for the dashboard API.
package authmodule

import (
	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/config"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/logger"
	"github.com/mverge/camwatch/internal/modules/modulemanager"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the auth module
	ModuleID = "system.auth"
	// ModuleName is the display name for the auth module
	ModuleName = "Authentication"
)

// Register the auth module on startup
func init() {
	modulemanager.Register(&Module{})
}

// Module handles user accounts and session tokens.
type Module struct {
	db *gorm.DB
}

// NewModule creates an auth module bound to a database, for tests.
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

// Core reports that this is a core module
func (m *Module) Core() bool {
	return true
}

// Migrate runs the user table migration
func (m *Module) Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&database.User{})
}

// Init initializes the auth module
func (m *Module) Init() error {
	m.db = database.GetDB()
	logger.Info("auth module initialized")
	return nil
}

// RegisterRoutes registers authentication routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	router.POST("/api/register", m.Register)
	router.POST("/api/login", m.Login)
	router.POST("/api/logout", m.Logout)
	router.GET("/api/user", RequireAuth(), m.CurrentUser)
}

func confAuth() config.AuthConfig {
	return config.Get().Auth
}
