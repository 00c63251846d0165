package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-strum/pkg/hub"
)

// EventClient consumes the dashboard event stream.
type EventClient struct {
	conn *websocket.Conn
}

// DialEvents connects to a dashboard's /ws/events endpoint. url is the
// websocket URL, e.g. ws://localhost:8080/ws/events.
func DialEvents(ctx context.Context, url string) (*EventClient, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, resp, err := dialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", url, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &EventClient{conn: conn}, nil
}

// Next blocks for the next event. A zero timeout waits indefinitely.
func (c *EventClient) Next(timeout time.Duration) (hub.RawEvent, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	c.conn.SetReadDeadline(deadline)

	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return hub.RawEvent{}, err
	}

	var ev hub.RawEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return hub.RawEvent{}, fmt.Errorf("decode event: %w", err)
	}
	return ev, nil
}

// NextOf skips events until one of type typ arrives.
func (c *EventClient) NextOf(typ string, timeout time.Duration) (hub.RawEvent, error) {
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if timeout > 0 && remaining <= 0 {
			return hub.RawEvent{}, fmt.Errorf("no %s event within %v", typ, timeout)
		}
		if timeout <= 0 {
			remaining = 0
		}
		ev, err := c.Next(remaining)
		if err != nil {
			return hub.RawEvent{}, err
		}
		if ev.Type == typ {
			return ev, nil
		}
	}
}

// Close sends a close frame and closes the connection.
func (c *EventClient) Close() error {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
