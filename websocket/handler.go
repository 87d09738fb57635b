package websocket

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the request and registers the connection under
// the caller's identity key. The transport layer resolves the key from the
// JWT before calling in, so every Deliver for that identity reaches this
// connection for as long as it lives.
func HandleWebSocket(c echo.Context, hub *Hub, identityKey string) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := NewClient(identityKey, conn)
	hub.Register(client)

	client.Enqueue(Event{
		Type:    EventTypeConnected,
		Message: "WebSocket connection established",
	})

	go func() {
		client.WritePump()
		hub.Deregister(client)
	}()

	// Reads are discarded; the socket is push-only. The read loop exists to
	// notice the peer going away.
	go func() {
		defer hub.Deregister(client)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}
