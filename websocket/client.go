package websocket

import (
	"time"

	"github.com/google/uuid"
)

// sendBuffer bounds how far a slow consumer may fall behind before the hub
// drops it.
const sendBuffer = 32

const writeWait = 10 * time.Second

// NewClient creates a registry entry for one live connection.
func NewClient(key string, conn Conn) *Client {
	return &Client{
		ID:     uuid.NewString(),
		Key:    key,
		Conn:   conn,
		send:   make(chan Event, sendBuffer),
		closed: make(chan struct{}),
	}
}

// Enqueue attempts a non-blocking push to this client. Returns false when
// the send buffer is full.
func (c *Client) Enqueue(event Event) bool {
	select {
	case c.send <- event:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.Conn.Close()
	})
}

// WritePump drains the send buffer onto the wire. It exits on the first
// write error or when the client is closed; the caller deregisters the
// client afterwards.
func (c *Client) WritePump() {
	for {
		select {
		case event := <-c.send:
			if d, ok := c.Conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
				d.SetWriteDeadline(time.Now().Add(writeWait))
			}
			if err := c.Conn.WriteJSON(event); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}
