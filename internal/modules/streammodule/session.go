package streammodule

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Frame is one synthetic frame record retained by a recording session.
type Frame struct {
	Number    int64     `json:"frameNumber"`
	Timestamp time.Time `json:"timestamp"`
	Payload   string    `json:"payload"`
}

// Session is one recording episode bound to a single camera. A session stays
// active until explicitly stopped; losing the connection that started it does
// not end it.
type Session struct {
	ID        string
	CameraID  uint
	StartTime time.Time

	mu     sync.Mutex
	active bool
	frames []Frame
}

func newSession(cameraID uint) *Session {
	return &Session{
		ID:        uuid.New().String(),
		CameraID:  cameraID,
		StartTime: time.Now(),
		active:    true,
	}
}

// IsActive reports whether the session is still recording.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// AppendFrame retains a frame if the session is still active. Appends racing
// a concurrent stop are dropped, which keeps the frame sequence frozen from
// the moment the session is deactivated.
func (s *Session) AppendFrame(f Frame) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	s.frames = append(s.frames, f)
	return true
}

// FrameCount returns the number of retained frames.
func (s *Session) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Frames returns a copy of the retained frame sequence.
func (s *Session) Frames() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

// deactivate ends the session. The object remains readable as an inert
// snapshot for anyone still holding a reference.
func (s *Session) deactivate() {
	s.mu.Lock()
	s.active = false
	s.mu.Unlock()
}
