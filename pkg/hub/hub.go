package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

const (
	broadcastQueue = 256
	clientQueue    = 64
)

// Hub fans dashboard events out to every connected websocket client.
// A single goroutine (Run) owns membership; slow clients are evicted
// rather than allowed to stall the others.
type Hub struct {
	name   string
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]struct{}

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	quit     chan struct{}
	quitOnce sync.Once

	running atomic.Bool
	dropped atomic.Uint64
	evicted atomic.Uint64
}

// New creates a hub. name only tags log records.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:       name,
		logger:     logger.With("component", "hub."+name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, broadcastQueue),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run serves membership changes and broadcasts until ctx is done, then
// closes every client. Call it once, in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		h.quitOnce.Do(func() { close(h.quit) })
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.removeLocked(c)
			}
			h.mu.Unlock()
			h.logger.Debug("hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("viewer connected", "viewers", n)

		case c := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(c)
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("viewer disconnected", "viewers", n)

		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

func (h *Hub) fanOut(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.removeLocked(c)
			h.evicted.Add(1)
			h.logger.Warn("evicted slow viewer")
		}
	}
}

// removeLocked is idempotent; the send channel is closed exactly once.
func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Broadcast queues msg for every client. It never blocks; when the queue
// is full the message is counted as dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.dropped.Add(1)
		h.logger.Warn("broadcast queue full, dropping event")
	}
}

// BroadcastJSON marshals v and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// Publish broadcasts data wrapped in an Event of type typ.
func (h *Hub) Publish(typ string, data any) error {
	return h.BroadcastJSON(NewEvent(typ, data))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped counts broadcasts lost to a full queue.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// Evicted counts clients removed for falling behind.
func (h *Hub) Evicted() uint64 { return h.evicted.Load() }

func (h *Hub) IsRunning() bool { return h.running.Load() }
