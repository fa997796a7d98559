package streammodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/mverge/camwatch/internal/config"
	"github.com/mverge/camwatch/internal/logger"
	"github.com/mverge/camwatch/internal/modules/modulemanager"
	"gorm.io/gorm"
)

const (
	// ModuleID is the unique identifier for the stream module
	ModuleID = "system.stream"
	// ModuleName is the display name for the stream module
	ModuleName = "Stream Engine"
)

// Register the stream module on startup
func init() {
	modulemanager.Register(NewModule())
}

// Module is the live streaming engine: it owns the session registry, the
// client hub and the /ws endpoint.
type Module struct {
	hub      *Hub
	registry *Registry
	upgrader websocket.Upgrader
}

// NewModule creates a stream module with an empty registry and hub.
func NewModule() *Module {
	hub := NewHub()
	return &Module{
		hub:      hub,
		registry: NewRegistry(hub),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Dashboard is served from arbitrary origins in development
			},
		},
	}
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

// Migrate is a no-op: sessions are in-memory only and do not survive restart
func (m *Module) Migrate(db *gorm.DB) error {
	return nil
}

// Init initializes the stream module
func (m *Module) Init() error {
	logger.Info("stream module initialized")
	return nil
}

// Registry exposes the session registry to other modules
func (m *Module) Registry() *Registry {
	return m.registry
}

// Hub exposes the client hub to other modules
func (m *Module) Hub() *Hub {
	return m.hub
}

// RegisterRoutes registers the websocket endpoint
func (m *Module) RegisterRoutes(router *gin.Engine) {
	router.GET("/ws", m.HandleWebSocket)
}

// HandleWebSocket upgrades the request and services the connection until it
// closes. Timing knobs come from the live configuration so a reload applies
// to new connections.
func (m *Module) HandleWebSocket(c *gin.Context) {
	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed: %v", err)
		return
	}

	streamCfg := config.Get().Stream
	client := newClient(conn, m.hub, m.registry, Config{
		PingInterval:   streamCfg.GetPingInterval(),
		FrameInterval:  streamCfg.GetFrameInterval(),
		WriteTimeout:   streamCfg.GetWriteTimeout(),
		SendBufferSize: streamCfg.SendBufferSize,
	})
	client.run()
}
