package events

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/mverge/camwatch/internal/logger"
)

// eventBus implements the EventBus interface with an in-memory ring of
// recent events and asynchronous delivery to subscribers.
type eventBus struct {
	config EventBusConfig

	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	eventChannel  chan Event
	running       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup

	recentEvents []Event
	stats        EventStats
}

// NewEventBus creates a new event bus instance
func NewEventBus(config EventBusConfig) EventBus {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultEventBusConfig().BufferSize
	}
	if config.MaxStoredEvents <= 0 {
		config.MaxStoredEvents = DefaultEventBusConfig().MaxStoredEvents
	}
	return &eventBus{
		config:        config,
		subscriptions: make(map[string]*Subscription),
		eventChannel:  make(chan Event, config.BufferSize),
		recentEvents:  make([]Event, 0, config.MaxStoredEvents),
		stopCh:        make(chan struct{}),
		stats: EventStats{
			EventsByType: make(map[string]int64),
		},
	}
}

// Start starts the event bus
func (eb *eventBus) Start() error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.running {
		return fmt.Errorf("event bus is already running")
	}

	eb.running = true
	eb.stopCh = make(chan struct{})

	eb.wg.Add(1)
	go eb.processEvents()

	logger.Info("event bus started", "buffer_size", eb.config.BufferSize)
	return nil
}

// Stop stops the event bus gracefully
func (eb *eventBus) Stop() error {
	eb.mu.Lock()
	if !eb.running {
		eb.mu.Unlock()
		return nil
	}
	eb.running = false
	eb.mu.Unlock()

	close(eb.stopCh)
	eb.wg.Wait()
	logger.Info("event bus stopped")
	return nil
}

// PublishAsync publishes an event without blocking the caller. A full
// channel drops the event.
func (eb *eventBus) PublishAsync(event Event) error {
	eb.mu.RLock()
	running := eb.running
	eb.mu.RUnlock()
	if !running {
		return fmt.Errorf("event bus is not running")
	}

	if event.ID == "" {
		event.ID = generateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.Source == "" {
		return fmt.Errorf("event source is required")
	}

	select {
	case eb.eventChannel <- event:
		return nil
	default:
		logger.Warn("event channel full, dropping event", "event_type", event.Type)
		return fmt.Errorf("event channel full")
	}
}

// Subscribe subscribes to events matching the filter
func (eb *eventBus) Subscribe(filter EventFilter, handler EventHandler) (*Subscription, error) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subscription := &Subscription{
		ID:      "sub-" + generateEventID(),
		Filter:  filter,
		Handler: handler,
		Created: time.Now(),
	}
	eb.subscriptions[subscription.ID] = subscription

	logger.Debug("new subscription created", "subscription_id", subscription.ID)
	return subscription, nil
}

// Unsubscribe removes a subscription
func (eb *eventBus) Unsubscribe(subscriptionID string) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if _, exists := eb.subscriptions[subscriptionID]; !exists {
		return fmt.Errorf("subscription not found: %s", subscriptionID)
	}
	delete(eb.subscriptions, subscriptionID)
	return nil
}

// GetEvents returns recent events matching the filter, newest first
func (eb *eventBus) GetEvents(filter EventFilter, limit int) []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	matched := make([]Event, 0, len(eb.recentEvents))
	for i := len(eb.recentEvents) - 1; i >= 0; i-- {
		if MatchesFilter(eb.recentEvents[i], filter) {
			matched = append(matched, eb.recentEvents[i])
			if limit > 0 && len(matched) >= limit {
				break
			}
		}
	}
	return matched
}

// GetStats returns event bus statistics
func (eb *eventBus) GetStats() EventStats {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	stats := EventStats{
		TotalEvents:         eb.stats.TotalEvents,
		EventsByType:        make(map[string]int64, len(eb.stats.EventsByType)),
		ActiveSubscriptions: len(eb.subscriptions),
	}
	for k, v := range eb.stats.EventsByType {
		stats.EventsByType[k] = v
	}
	stats.RecentEvents = append(stats.RecentEvents, eb.recentEvents...)
	return stats
}

// Health returns the health status of the event bus
func (eb *eventBus) Health() error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if !eb.running {
		return fmt.Errorf("event bus is not running")
	}

	usage := float64(len(eb.eventChannel)) / float64(cap(eb.eventChannel))
	if usage > 0.9 {
		return fmt.Errorf("event channel is %d%% full", int(usage*100))
	}
	return nil
}

// processEvents drains the channel until stopped
func (eb *eventBus) processEvents() {
	defer eb.wg.Done()

	for {
		select {
		case <-eb.stopCh:
			return
		case event := <-eb.eventChannel:
			eb.handleEvent(event)
		}
	}
}

// handleEvent records a single event and notifies matching subscribers
func (eb *eventBus) handleEvent(event Event) {
	eb.mu.Lock()
	eb.recentEvents = append(eb.recentEvents, event)
	if len(eb.recentEvents) > eb.config.MaxStoredEvents {
		eb.recentEvents = eb.recentEvents[1:]
	}
	eb.stats.TotalEvents++
	eb.stats.EventsByType[string(event.Type)]++

	var matching []*Subscription
	for _, sub := range eb.subscriptions {
		if MatchesFilter(event, sub.Filter) {
			matching = append(matching, sub)
		}
	}
	eb.mu.Unlock()

	for _, sub := range matching {
		eb.notifySubscriber(sub, event)
	}
}

// notifySubscriber invokes one handler, isolating panics
func (eb *eventBus) notifySubscriber(subscription *Subscription, event Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in event handler", "subscription_id", subscription.ID, "error", r)
		}
	}()

	if err := subscription.Handler(event); err != nil {
		logger.Error("event handler error", "subscription_id", subscription.ID, "error", err)
		return
	}

	eb.mu.Lock()
	subscription.TriggerCount++
	now := time.Now()
	subscription.LastTriggered = &now
	eb.mu.Unlock()
}

// generateEventID generates a unique event ID
func generateEventID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), hex.EncodeToString(bytes))
}
