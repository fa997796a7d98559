package streammodule

import "time"

// Inbound message types accepted from clients.
const (
	msgCameraSelect     = "camera_select"
	msgStartRecording   = "start_recording"
	msgStopRecording    = "stop_recording"
	msgGetSessionsState = "get_sessions_state"
)

// Outbound message types pushed to clients.
const (
	msgSessionsState   = "sessions_state"
	msgSessionRestored = "session_restored"
	msgConnectionTest  = "connection_test"
	msgFrame           = "frame"
)

// actionTestConnection on a camera_select asks for a synthetic quality probe
const actionTestConnection = "test_connection"

// InboundMessage is the envelope for all client-to-server messages.
// Unknown types are logged and ignored rather than treated as protocol errors.
type InboundMessage struct {
	Type   string     `json:"type"`
	Camera *CameraRef `json:"camera,omitempty"`
	Action string     `json:"action,omitempty"`
}

// CameraRef identifies a camera in a camera_select message. Clients may send
// the full camera record; only the id matters here.
type CameraRef struct {
	ID uint `json:"id"`
}

// SessionSummary is one entry in a sessions_state snapshot.
type SessionSummary struct {
	CameraID  uint      `json:"cameraId"`
	StartTime time.Time `json:"startTime"`
}

// SessionsStateMessage carries the full registry snapshot. It is broadcast to
// every open connection after each registry mutation and unicast in reply to
// get_sessions_state.
type SessionsStateMessage struct {
	Type     string           `json:"type"`
	Sessions []SessionSummary `json:"sessions"`
}

// SessionRestoredMessage tells a freshly bound connection about a recording
// that was already in progress for its camera.
type SessionRestoredMessage struct {
	Type    string          `json:"type"`
	Session RestoredSession `json:"session"`
}

// RestoredSession describes the in-progress recording.
type RestoredSession struct {
	StartTime time.Time `json:"startTime"`
	IsActive  bool      `json:"isActive"`
}

// ConnectionTestMessage reports connection quality back to one client.
type ConnectionTestMessage struct {
	Type       string  `json:"type"`
	Latency    float64 `json:"latency"`
	PacketLoss float64 `json:"packetLoss"`
}

// FrameMessage is one synthetic frame streamed to a bound connection.
type FrameMessage struct {
	Type        string    `json:"type"`
	FrameNumber int64     `json:"frameNumber"`
	Timestamp   time.Time `json:"timestamp"`
	Payload     string    `json:"payload"`
}

func newSessionsState(snapshot []SessionSummary) SessionsStateMessage {
	if snapshot == nil {
		snapshot = []SessionSummary{}
	}
	return SessionsStateMessage{Type: msgSessionsState, Sessions: snapshot}
}
