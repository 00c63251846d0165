package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestNewHub(t *testing.T) {
	h := New("events", nil)
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("hub should not run before Run")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := New("events", nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for !h.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !h.IsRunning() {
		t.Fatal("hub did not start")
	}

	h.Publish(EventBeat, map[string]int{"index": 1})
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if h.IsRunning() {
		t.Error("hub should report stopped")
	}
}

func TestBroadcastDropsWhenFull(t *testing.T) {
	h := New("events", nil)
	for i := 0; i < cap(h.broadcast)+5; i++ {
		h.Broadcast(NewJSONMessage([]byte("{}")))
	}
	if h.Dropped() != 5 {
		t.Errorf("Dropped = %d, want 5", h.Dropped())
	}
}

func TestBroadcastJSONError(t *testing.T) {
	h := New("events", nil)
	if err := h.BroadcastJSON(make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}

func TestEventEnvelope(t *testing.T) {
	ev := NewEvent(EventStrum, map[string]int{"count": 7})
	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw RawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if raw.Type != EventStrum || raw.Time.IsZero() {
		t.Errorf("envelope = %+v", raw)
	}

	var payload struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(raw.Data, &payload); err != nil || payload.Count != 7 {
		t.Errorf("payload = %+v, err %v", payload, err)
	}
}

func TestFanOutEvictsSlowClient(t *testing.T) {
	h := New("events", nil)
	fast := &Client{hub: h, send: make(chan Message, 1)}
	slow := &Client{hub: h, send: make(chan Message)}
	h.clients[fast] = struct{}{}
	h.clients[slow] = struct{}{}

	h.fanOut(NewJSONMessage([]byte(`{"type":"beat"}`)))

	if h.ClientCount() != 1 || h.Evicted() != 1 {
		t.Fatalf("clients = %d, evicted = %d", h.ClientCount(), h.Evicted())
	}
	if _, ok := <-slow.send; ok {
		t.Error("evicted client's queue should be closed")
	}
	if msg := <-fast.send; string(msg.Data) != `{"type":"beat"}` {
		t.Errorf("fast client got %q", msg.Data)
	}

	h.mu.Lock()
	h.removeLocked(slow)
	h.mu.Unlock()
}
