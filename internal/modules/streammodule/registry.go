package streammodule

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mverge/camwatch/internal/events"
	"github.com/mverge/camwatch/internal/logger"
)

var (
	// ErrSessionActive is returned when starting a session for a camera
	// that already has one.
	ErrSessionActive = errors.New("recording session already active for camera")
	// ErrNoSession is returned when stopping a camera with no active session.
	ErrNoSession = errors.New("no active recording session for camera")
)

// Broadcaster receives the fresh registry snapshot after every successful
// mutation. The hub implements it; tests substitute their own.
type Broadcaster interface {
	BroadcastState(snapshot []SessionSummary)
}

// Registry tracks at most one active recording session per camera. All
// mutations are serialized by a single mutex so that concurrent
// start_recording attempts for the same camera cannot both succeed.
type Registry struct {
	mu       sync.Mutex
	sessions map[uint]*Session
	order    []uint

	broadcaster Broadcaster
}

// NewRegistry creates a registry that reports mutations to the broadcaster.
func NewRegistry(b Broadcaster) *Registry {
	return &Registry{
		sessions:    make(map[uint]*Session),
		broadcaster: b,
	}
}

// StartSession creates a new active session for the camera. It fails with
// ErrSessionActive if one already exists. On success every connected client
// is sent the updated snapshot exactly once.
func (r *Registry) StartSession(cameraID uint) (*Session, error) {
	r.mu.Lock()
	if _, exists := r.sessions[cameraID]; exists {
		r.mu.Unlock()
		return nil, ErrSessionActive
	}

	session := newSession(cameraID)
	r.sessions[cameraID] = session
	r.order = append(r.order, cameraID)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	logger.Info("recording session started", "camera_id", cameraID, "session_id", session.ID)
	r.broadcaster.BroadcastState(snapshot)
	publishSessionEvent(events.EventRecordingStarted, session)
	return session, nil
}

// StopSession deactivates and removes the camera's session. It fails with
// ErrNoSession when nothing is recording. On success every connected client
// is sent the updated snapshot exactly once.
func (r *Registry) StopSession(cameraID uint) error {
	r.mu.Lock()
	session, exists := r.sessions[cameraID]
	if !exists {
		r.mu.Unlock()
		return ErrNoSession
	}

	session.deactivate()
	delete(r.sessions, cameraID)
	for i, id := range r.order {
		if id == cameraID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	logger.Info("recording session stopped",
		"camera_id", cameraID,
		"session_id", session.ID,
		"frames", session.FrameCount())
	r.broadcaster.BroadcastState(snapshot)
	publishSessionEvent(events.EventRecordingStopped, session)
	return nil
}

// Get returns the active session for the camera, or nil. Lookup only, no
// side effects.
func (r *Registry) Get(cameraID uint) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[cameraID]
}

// ActiveSessions returns the current snapshot in insertion order.
func (r *Registry) ActiveSessions() []SessionSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []SessionSummary {
	snapshot := make([]SessionSummary, 0, len(r.order))
	for _, cameraID := range r.order {
		session := r.sessions[cameraID]
		snapshot = append(snapshot, SessionSummary{
			CameraID:  cameraID,
			StartTime: session.StartTime,
		})
	}
	return snapshot
}

func publishSessionEvent(eventType events.EventType, session *Session) {
	bus := events.GetGlobalEventBus()
	if bus == nil {
		return
	}
	err := bus.PublishAsync(events.Event{
		Type:    eventType,
		Source:  ModuleID,
		Title:   string(eventType),
		Message: fmt.Sprintf("camera %d session %s", session.CameraID, session.ID),
		Data: map[string]interface{}{
			"camera_id":  session.CameraID,
			"session_id": session.ID,
			"start_time": session.StartTime,
		},
	})
	if err != nil {
		logger.Debug("failed to publish session event: %v", err)
	}
}
