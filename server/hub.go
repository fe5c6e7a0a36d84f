package server

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/stagehand/logging"
)

// client wraps a websocket connection with a write lock; gorilla connections
// do not allow concurrent writers.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub is one broadcast group of websocket clients. Delivery is best effort;
// a client whose write fails is closed and dropped.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	logger  logging.Logger
}

// NewHub creates an empty hub.
func NewHub(logger logging.Logger) *Hub {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Hub{clients: make(map[*client]struct{}), logger: logger}
}

func (h *Hub) add(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends one JSON message to every client, pruning the dead ones.
func (h *Hub) Broadcast(v any) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.send(v); err != nil {
			h.logger.Debug("Dropping dead websocket client", "error", err)
			c.conn.Close()
			h.remove(c)
		}
	}
}
