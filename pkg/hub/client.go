package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// Viewers only send control frames; anything larger is a misbehaving peer.
	maxMessageSize = 4 * 1024
)

// Client is one dashboard viewer. The hub writes to send; only the write
// pump touches the connection for writing.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
	done chan struct{}
}

// NewClient registers a viewer for conn. If the hub has already stopped,
// the client is returned closed and Run exits immediately.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan Message, clientQueue),
		done: make(chan struct{}),
	}
	select {
	case hub.register <- c:
	case <-hub.quit:
		close(c.send)
	}
	return c
}

// Run pumps events to the viewer and blocks until the connection is gone.
// The fiber handler must not return before Run does.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) leave() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.quit:
	}
}

// readPump discards viewer frames. Reading is still required to see
// pongs and to notice the peer going away.
func (c *Client) readPump() {
	defer func() {
		c.leave()
		c.conn.Close()
		<-c.done
	}()

	c.conn.SetReadLimit(maxMessageSize)
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
	extend("")
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) write(kind int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, data)
}

func (c *Client) writePump() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.write(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(websocket.TextMessage, msg.Data); err != nil {
				return
			}
		case <-ping.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
