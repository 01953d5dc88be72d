package server

import (
	"sync"
	"time"

	"stockpulse/src/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait      = 2 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

// Client wraps one websocket connection. Its uuid is the connection handle
// the registry keys its reverse lookup by. The send channel is never
// closed; done signals the write pump instead, so a Push racing a
// disconnect is harmless.
type Client struct {
	server *Server
	id     string
	conn   *websocket.Conn
	send   chan models.MServerMessage
	done   chan struct{}
	once   sync.Once
}

func newClient(s *Server, conn *websocket.Conn) *Client {
	return &Client{
		server: s,
		id:     uuid.NewString(),
		conn:   conn,
		// Buffered channel so pushes never block the broadcast loop
		send: make(chan models.MServerMessage, 256),
		done: make(chan struct{}),
	}
}

// -----------------------------------------------------------------------------

func (c *Client) ID() string { return c.id }

// Push queues an outbound event. Delivery is fire-and-forget: if the
// connection is gone or the buffer is full the frame is dropped rather
// than blocking the caller.
func (c *Client) Push(event string, data any) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- models.MServerMessage{Event: event, Data: data}:
	default:
	}
}

// -----------------------------------------------------------------------------
// readPump - handles incoming messages from client
// Acts as a Watchdog for the connection
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer func() {
		if identity, ok := c.server.Registry.Disconnect(c); ok {
			c.server.Logger.Info("Disconnected: %s (%s)", c.id, identity)
		} else {
			c.server.Logger.Info("Disconnected: %s", c.id)
		}
		c.server.connCount.Add(-1)
		c.once.Do(func() { close(c.done) })
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.server.Logger.Info("WebSocket error: %v", err)
			}
			break
		}
		c.server.handleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------
// writePump - sends messages to client
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(message); err != nil {
				c.server.Logger.Info("Write error: %v", err)
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
