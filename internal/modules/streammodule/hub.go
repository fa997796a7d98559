package streammodule

import (
	"sync"

	"github.com/mverge/camwatch/internal/logger"
)

// Hub tracks every open client connection and fans session-state snapshots
// out to all of them. Delivery is best effort: a client whose outbound buffer
// is full is skipped, never waited on.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()
	logger.Debug("stream client connected", "clients", count)
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()
	logger.Debug("stream client disconnected", "clients", count)
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastState sends the same snapshot to every open connection. Failures
// to enqueue for one recipient do not abort delivery to the others.
func (h *Hub) BroadcastState(snapshot []SessionSummary) {
	msg := newSessionsState(snapshot)

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(msg) {
			logger.Debug("skipped slow stream client during broadcast")
		}
	}
}
