// Package events provides the in-process event bus used for recording
// lifecycle notifications, auditing and dashboards.
package events

import (
	"time"
)

// EventType represents the type of event
type EventType string

const (
	// Recording session events
	EventRecordingStarted EventType = "recording.started"
	EventRecordingStopped EventType = "recording.stopped"

	// Connection events
	EventClientConnected    EventType = "client.connected"
	EventClientDisconnected EventType = "client.disconnected"

	// User events
	EventUserCreated  EventType = "user.created"
	EventUserLoggedIn EventType = "user.logged_in"

	// Device events
	EventCameraCreated EventType = "camera.created"
	EventCameraUpdated EventType = "camera.updated"
	EventSensorCreated EventType = "sensor.created"
	EventSensorUpdated EventType = "sensor.updated"

	// System events
	EventSystemStarted EventType = "system.started"
	EventSystemStopped EventType = "system.stopped"
)

// EventPriority represents the priority level of an event
type EventPriority int

const (
	PriorityLow      EventPriority = 1
	PriorityNormal   EventPriority = 5
	PriorityHigh     EventPriority = 10
	PriorityCritical EventPriority = 20
)

// Event represents a system event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Priority  EventPriority          `json:"priority"`
	Timestamp time.Time              `json:"timestamp"`
}

// EventHandler represents a function that handles events
type EventHandler func(event Event) error

// EventFilter represents filters for event subscriptions and queries
type EventFilter struct {
	Types   []EventType `json:"types,omitempty"`
	Sources []string    `json:"sources,omitempty"`
}

// Subscription represents an event subscription
type Subscription struct {
	ID            string       `json:"id"`
	Filter        EventFilter  `json:"filter"`
	Handler       EventHandler `json:"-"`
	Created       time.Time    `json:"created"`
	LastTriggered *time.Time   `json:"last_triggered,omitempty"`
	TriggerCount  int64        `json:"trigger_count"`
}

// EventStats represents statistics about events
type EventStats struct {
	TotalEvents         int64            `json:"total_events"`
	EventsByType        map[string]int64 `json:"events_by_type"`
	RecentEvents        []Event          `json:"recent_events"`
	ActiveSubscriptions int              `json:"active_subscriptions"`
}

// EventBusConfig represents configuration for the event bus
type EventBusConfig struct {
	BufferSize      int `json:"buffer_size"`
	MaxStoredEvents int `json:"max_stored_events"`
}

// DefaultEventBusConfig returns default configuration
func DefaultEventBusConfig() EventBusConfig {
	return EventBusConfig{
		BufferSize:      1000,
		MaxStoredEvents: 500,
	}
}

// EventBus is the interface exposed to the rest of the application
type EventBus interface {
	Start() error
	Stop() error
	PublishAsync(event Event) error
	Subscribe(filter EventFilter, handler EventHandler) (*Subscription, error)
	Unsubscribe(subscriptionID string) error
	GetEvents(filter EventFilter, limit int) []Event
	GetStats() EventStats
	Health() error
}

// MatchesFilter reports whether the event matches the filter
func MatchesFilter(event Event, filter EventFilter) bool {
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if event.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(filter.Sources) > 0 {
		found := false
		for _, s := range filter.Sources {
			if event.Source == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
