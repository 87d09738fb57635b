package websocket

import (
	"log"
	"sync"
)

// Event types pushed over WebSocket
const (
	EventTypeConnected    = "connected"
	EventTypeNotification = "new-notification"
)

// Event is the payload written to a live connection.
type Event struct {
	Type    string      `json:"type"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// Conn is the subset of *websocket.Conn the hub needs; tests substitute a
// fake.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client is one live connection bound to an identity key. A single identity
// may hold any number of simultaneous clients (multiple open sessions).
type Client struct {
	ID   string // unique per connection
	Key  string // identity key, e.g. "Owner-64fa..."
	Conn Conn

	send      chan Event
	closed    chan struct{}
	closeOnce sync.Once
}

// Hub is the in-process connection registry: identity key to live clients.
// It is not a source of truth — losing it loses nothing, because every
// notification is persisted before delivery is attempted.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]bool),
	}
}

// Register adds a client to the registry. Registering the same client twice
// is a no-op.
func (h *Hub) Register(client *Client) {
	h.add(client)
}

// Deregister removes a client and closes its connection. Safe to call more
// than once.
func (h *Hub) Deregister(client *Client) {
	h.remove(client)
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[client.Key] == nil {
		h.clients[client.Key] = make(map[*Client]bool)
	}
	h.clients[client.Key][client] = true
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	set, ok := h.clients[client.Key]
	if ok && set[client] {
		delete(set, client)
		if len(set) == 0 {
			delete(h.clients, client.Key)
		}
	} else {
		ok = false
	}
	h.mu.Unlock()

	if ok {
		client.close()
	}
}

// Deliver pushes an event to every client registered under key. Each push
// is a non-blocking attempt: a client whose send buffer is full is treated
// as dead, dropped and deregistered. The durable notification record is
// already committed by the time Deliver runs, so nothing is lost. Returns
// the number of clients the event was queued for.
func (h *Hub) Deliver(key string, event Event) int {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[key]))
	for client := range h.clients[key] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	delivered := 0
	for _, client := range targets {
		select {
		case client.send <- event:
			delivered++
		default:
			log.Printf("WebSocket client %s (%s) is not keeping up, dropping connection", client.ID, key)
			h.remove(client)
		}
	}
	return delivered
}

// Connections reports how many live clients an identity currently holds.
func (h *Hub) Connections(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[key])
}

// Shutdown closes every live connection and empties the registry.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, set := range h.clients {
		for client := range set {
			client.close()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
}
