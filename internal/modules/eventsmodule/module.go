// Package eventsmodule exposes the in-memory event feed over the API so the
// dashboard can show recent activity.
package eventsmodule

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/events"
	"github.com/mverge/camwatch/internal/logger"
	"github.com/mverge/camwatch/internal/modules/authmodule"
	"github.com/mverge/camwatch/internal/modules/modulemanager"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the events module
	ModuleID = "system.events"
	// ModuleName is the display name for the events module
	ModuleName = "Event Feed"
)

const defaultEventLimit = 50

// Register the events module on startup
func init() {
	modulemanager.Register(&Module{})
}

// Module serves the recent-events feed.
type Module struct{}

// NewModule creates an events module, for tests.
func NewModule() *Module {
	return &Module{}
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

// Migrate is a no-op: events are in-memory only
func (m *Module) Migrate(db *gorm.DB) error {
	return nil
}

// Init initializes the events module
func (m *Module) Init() error {
	logger.Info("events module initialized")
	return nil
}

// RegisterRoutes registers event feed routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/events", authmodule.RequireAuth())
	{
		group.GET("", m.ListEvents)
		group.GET("/stats", m.EventStats)
	}
}

// ListEvents returns recent events, newest first. Supports optional type,
// source and limit query parameters.
func (m *Module) ListEvents(c *gin.Context) {
	bus := events.GetGlobalEventBus()
	if bus == nil {
		c.JSON(http.StatusOK, []events.Event{})
		return
	}

	limit := defaultEventLimit
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	filter := events.EventFilter{}
	if v := c.Query("type"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			filter.Types = append(filter.Types, events.EventType(strings.TrimSpace(raw)))
		}
	}
	if v := c.Query("source"); v != "" {
		filter.Sources = append(filter.Sources, v)
	}

	result := bus.GetEvents(filter, limit)
	if result == nil {
		result = []events.Event{}
	}
	c.JSON(http.StatusOK, result)
}

// EventStats returns counters for the event feed.
func (m *Module) EventStats(c *gin.Context) {
	bus := events.GetGlobalEventBus()
	if bus == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, bus.GetStats())
}
