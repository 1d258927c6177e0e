package preview

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

// Connection timing. pingPeriod must stay under pongWait or healthy
// clients get reaped between pings.
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024 // panel clients send nothing but pongs
)

// wsClient is one panel connection. writePump is the only goroutine
// that writes to conn.
type wsClient struct {
	hub  *hub
	conn *websocket.Conn
	send chan wsMessage
}

func newWSClient(h *hub, conn *websocket.Conn) *wsClient {
	return &wsClient{hub: h, conn: conn, send: make(chan wsMessage, 64)}
}

// queue stages a message before the pumps start. Connect snapshots use
// it so they arrive ahead of any broadcast.
func (c *wsClient) queue(msg wsMessage) {
	select {
	case c.send <- msg:
	default:
	}
}

// run registers the client and blocks until the connection closes.
func (c *wsClient) run() {
	c.hub.register <- c
	go c.writePump()
	c.readPump()
}

// readPump drains the connection. A read error is the disconnect
// signal.
func (c *wsClient) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			kind := websocket.TextMessage
			if msg.binary {
				kind = websocket.BinaryMessage
			}
			if err := c.conn.WriteMessage(kind, msg.data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
