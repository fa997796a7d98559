package streammodule

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mverge/camwatch/internal/events"
	"github.com/mverge/camwatch/internal/logger"
)

// Config holds the per-connection timing knobs. Tests shorten the intervals.
type Config struct {
	PingInterval   time.Duration
	FrameInterval  time.Duration
	WriteTimeout   time.Duration
	SendBufferSize int
}

func (cfg Config) withDefaults() Config {
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = time.Second
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = time.Second / 30
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 64
	}
	return cfg
}

// Client is the server side of one dashboard connection. It interprets
// control messages, streams synthetic frames for the camera it is bound to,
// and measures connection quality with a ping/pong heartbeat.
//
// A client owns no sessions. Closing the connection cancels its timers and
// discards its camera binding but leaves the session registry untouched, so
// an in-progress recording survives a disconnect.
type Client struct {
	id       string
	conn     *websocket.Conn
	hub      *Hub
	registry *Registry
	cfg      Config

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu              sync.Mutex
	selectedCamera  uint
	hasCamera       bool
	frameNumber     int64
	packetsSent     int64
	packetsReceived int64
	lastPingAt      time.Time
}

func newClient(conn *websocket.Conn, hub *Hub, registry *Registry, cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		id:       uuid.New().String(),
		conn:     conn,
		hub:      hub,
		registry: registry,
		cfg:      cfg,
		send:     make(chan []byte, cfg.SendBufferSize),
		done:     make(chan struct{}),
	}
}

// run services the connection until it closes. It blocks in the read loop;
// the write loop runs in its own goroutine because gorilla permits only one
// concurrent writer per connection.
func (c *Client) run() {
	c.hub.register(c)
	publishClientEvent(events.EventClientConnected, c.id)
	defer func() {
		c.close()
		c.hub.unregister(c)
		publishClientEvent(events.EventClientDisconnected, c.id)
	}()

	// New clients immediately learn about recordings already in progress
	c.trySend(newSessionsState(c.registry.ActiveSessions()))

	go c.writePump()
	c.readPump()
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *Client) readPump() {
	defer c.close()
	c.conn.SetPongHandler(c.handlePong)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("stream client read error: %v", err)
			}
			return
		}

		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Debug("ignoring malformed stream message: %v", err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg InboundMessage) {
	switch msg.Type {
	case msgCameraSelect:
		c.handleCameraSelect(msg)
	case msgStartRecording:
		c.handleStartRecording()
	case msgStopRecording:
		c.handleStopRecording()
	case msgGetSessionsState:
		c.trySend(newSessionsState(c.registry.ActiveSessions()))
	default:
		logger.Debug("ignoring unrecognized stream message type: %q", msg.Type)
	}
}

// handleCameraSelect binds the connection to a camera. Re-binding replaces
// the previous binding without stopping anything; recordings are scoped to
// cameras, not connections.
func (c *Client) handleCameraSelect(msg InboundMessage) {
	if msg.Camera == nil {
		logger.Debug("camera_select without camera payload, ignoring")
		return
	}

	c.mu.Lock()
	c.selectedCamera = msg.Camera.ID
	c.hasCamera = true
	c.mu.Unlock()

	if session := c.registry.Get(msg.Camera.ID); session != nil {
		c.trySend(SessionRestoredMessage{
			Type: msgSessionRestored,
			Session: RestoredSession{
				StartTime: session.StartTime,
				IsActive:  session.IsActive(),
			},
		})
	}

	if msg.Action == actionTestConnection {
		c.scheduleSyntheticProbe()
	}
}

// scheduleSyntheticProbe replies with a one-off quality estimate shortly
// after an explicit test_connection request, before the first real heartbeat
// round trip has completed.
func (c *Client) scheduleSyntheticProbe() {
	time.AfterFunc(100*time.Millisecond, func() {
		select {
		case <-c.done:
			return
		default:
		}
		c.trySend(ConnectionTestMessage{
			Type:       msgConnectionTest,
			Latency:    10 + rand.Float64()*40,
			PacketLoss: 0,
		})
	})
}

// handleStartRecording is idempotent: starting a camera that is already
// recording is silently ignored rather than surfaced as an error.
func (c *Client) handleStartRecording() {
	cameraID, bound := c.boundCamera()
	if !bound {
		logger.Debug("start_recording without a selected camera, ignoring")
		return
	}

	if _, err := c.registry.StartSession(cameraID); err != nil {
		if errors.Is(err, ErrSessionActive) {
			logger.Debug("start_recording for camera %d already active, ignoring", cameraID)
			return
		}
		logger.Error("failed to start recording session: %v", err)
	}
}

// handleStopRecording treats a stop with nothing recording as a no-op.
func (c *Client) handleStopRecording() {
	cameraID, bound := c.boundCamera()
	if !bound {
		logger.Debug("stop_recording without a selected camera, ignoring")
		return
	}

	if err := c.registry.StopSession(cameraID); err != nil {
		if errors.Is(err, ErrNoSession) {
			logger.Debug("stop_recording for camera %d with no session, ignoring", cameraID)
			return
		}
		logger.Error("failed to stop recording session: %v", err)
	}
}

func (c *Client) boundCamera() (uint, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedCamera, c.hasCamera
}

// writePump owns all writes to the connection: queued messages, heartbeat
// pings and the frame stream. Any write failure tears the connection down.
func (c *Client) writePump() {
	pingTicker := time.NewTicker(c.cfg.PingInterval)
	frameTicker := time.NewTicker(c.cfg.FrameInterval)
	defer func() {
		pingTicker.Stop()
		frameTicker.Stop()
		c.close()
	}()

	for {
		select {
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-pingTicker.C:
			c.mu.Lock()
			c.packetsSent++
			c.lastPingAt = time.Now()
			c.mu.Unlock()

			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-frameTicker.C:
			if err := c.emitFrame(); err != nil {
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		}
	}
}

// emitFrame synthesizes the next frame for the bound camera. The frame is
// always streamed to the client; it is retained in the session buffer only
// while that camera is recording. Numbering is monotonic from 0 for the
// lifetime of the connection.
func (c *Client) emitFrame() error {
	c.mu.Lock()
	if !c.hasCamera {
		c.mu.Unlock()
		return nil
	}
	cameraID := c.selectedCamera
	number := c.frameNumber
	c.frameNumber++
	c.mu.Unlock()

	frame := Frame{
		Number:    number,
		Timestamp: time.Now(),
		Payload:   fmt.Sprintf("camera-%d-frame-%d", cameraID, number),
	}
	if session := c.registry.Get(cameraID); session != nil {
		session.AppendFrame(frame)
	}

	data, err := json.Marshal(FrameMessage{
		Type:        msgFrame,
		FrameNumber: frame.Number,
		Timestamp:   frame.Timestamp,
		Payload:     frame.Payload,
	})
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// handlePong closes one heartbeat round trip: it updates the counters and
// pushes a fresh quality estimate to this connection only. The cumulative
// loss ratio is clamped to [0,1] since a pong can arrive after the sent
// counter has already advanced.
func (c *Client) handlePong(string) error {
	c.mu.Lock()
	c.packetsReceived++
	latency := time.Since(c.lastPingAt)
	sent := c.packetsSent
	received := c.packetsReceived
	c.mu.Unlock()

	var loss float64
	if sent > 0 {
		loss = 1 - float64(received)/float64(sent)
	}
	if loss < 0 {
		loss = 0
	}
	if loss > 1 {
		loss = 1
	}

	c.trySend(ConnectionTestMessage{
		Type:       msgConnectionTest,
		Latency:    float64(latency) / float64(time.Millisecond),
		PacketLoss: loss,
	})
	return nil
}

// trySend queues a message for delivery without ever blocking the caller. A
// full buffer or a closed connection drops the message; nothing is resent.
func (c *Client) trySend(v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal stream message: %v", err)
		return false
	}

	select {
	case <-c.done:
		return false
	case c.send <- data:
		return true
	default:
		return false
	}
}

func publishClientEvent(eventType events.EventType, clientID string) {
	bus := events.GetGlobalEventBus()
	if bus == nil {
		return
	}
	bus.PublishAsync(events.Event{
		Type:    eventType,
		Source:  ModuleID,
		Title:   string(eventType),
		Message: "stream client " + clientID,
		Data:    map[string]interface{}{"client_id": clientID},
	})
}
