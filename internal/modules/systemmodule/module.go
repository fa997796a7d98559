// Package systemmodule exposes process health and host utilization for the
// dashboard status page.
package systemmodule

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mverge/camwatch/internal/database"
	"github.com/mverge/camwatch/internal/events"
	"github.com/mverge/camwatch/internal/logger"
	"github.com/mverge/camwatch/internal/modules/authmodule"
	"github.com/mverge/camwatch/internal/modules/modulemanager"
	"github.com/mverge/camwatch/internal/modules/streammodule"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the system module
	ModuleID = "system.status"
	// ModuleName is the display name for the system module
	ModuleName = "System Status"
)

// Register the system module on startup
func init() {
	modulemanager.Register(&Module{startedAt: time.Now()})
}

// Module reports process and host health.
type Module struct {
	startedAt time.Time
}

// NewModule creates a system module, for tests.
func NewModule() *Module {
	return &Module{startedAt: time.Now()}
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

// Migrate is a no-op: this module owns no tables
func (m *Module) Migrate(db *gorm.DB) error {
	return nil
}

// Init initializes the system module
func (m *Module) Init() error {
	logger.Info("system module initialized")
	return nil
}

// RegisterRoutes registers health and status routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	router.GET("/api/health", m.Health)
	router.GET("/api/system/status", authmodule.RequireAuth(), m.Status)
}

// Health is the liveness endpoint used by probes and the request logger skip
// list. It intentionally does no expensive work.
func (m *Module) Health(c *gin.Context) {
	status := gin.H{
		"status":    "ok",
		"timestamp": time.Now(),
		"uptime":    time.Since(m.startedAt).String(),
	}

	if bus := events.GetGlobalEventBus(); bus != nil {
		if err := bus.Health(); err != nil {
			status["status"] = "degraded"
			status["events"] = err.Error()
		}
	}
	c.JSON(http.StatusOK, status)
}

// Status returns host utilization plus live stream counters.
func (m *Module) Status(c *gin.Context) {
	ctx := c.Request.Context()

	status := gin.H{
		"uptime":     time.Since(m.startedAt).String(),
		"goroutines": runtime.NumGoroutine(),
		"num_cpu":    runtime.NumCPU(),
	}

	// Host metrics are best effort: a sandboxed host may refuse some of
	// these probes and the status page should still render.
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		status["cpu_percent"] = percents[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		status["memory_percent"] = vm.UsedPercent
		status["memory_total"] = vm.Total
		status["memory_used"] = vm.Used
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		status["load_1m"] = avg.Load1
		status["load_5m"] = avg.Load5
		status["load_15m"] = avg.Load15
	}

	if db := database.GetDB(); db != nil {
		var cameras, sensors, recordings int64
		db.Model(&database.Camera{}).Count(&cameras)
		db.Model(&database.Sensor{}).Count(&sensors)
		db.Model(&database.Recording{}).Count(&recordings)
		status["cameras"] = cameras
		status["sensors"] = sensors
		status["recordings"] = recordings
	}

	if mod, ok := modulemanager.GetModule(streammodule.ModuleID); ok {
		if stream, ok := mod.(*streammodule.Module); ok {
			status["stream_clients"] = stream.Hub().ClientCount()
			status["active_sessions"] = len(stream.Registry().ActiveSessions())
		}
	}

	c.JSON(http.StatusOK, status)
}
