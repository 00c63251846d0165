package audioio

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// MockSink is an in-memory Output. It keeps every written chunk and lets
// tests drive the suspend/resume lifecycle.
type MockSink struct {
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	resumeErr error
	resumes   int

	chunksWritten  atomic.Int64
	samplesWritten atomic.Int64

	// buffer holds chunks until Flush; history keeps all of them.
	buffer  []AudioChunk
	history []AudioChunk
}

// NewMockSink creates a new mock audio sink. It starts suspended, like an
// output that has not been started yet.
func NewMockSink(cfg Config, logger *slog.Logger) *MockSink {
	if logger == nil {
		logger = slog.Default()
	}

	return &MockSink{
		cfg:    cfg,
		logger: logger.With("component", "audioio.mock"),
		state:  StateSuspended,
	}
}

func (m *MockSink) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return ErrClosed
	}
	m.state = StateRunning
	return nil
}

// Stop suspends the sink; it is the same as Suspend.
func (m *MockSink) Stop() error {
	m.Suspend()
	return nil
}

// Suspend simulates the platform pausing playback, e.g. an autoplay policy.
func (m *MockSink) Suspend() {
	m.mu.Lock()
	if m.state == StateRunning {
		m.state = StateSuspended
	}
	m.mu.Unlock()
}

// FailResume makes every later Resume return err. A nil err restores
// normal behavior.
func (m *MockSink) FailResume(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeErr = err
}

// Resume moves the sink back to running.
func (m *MockSink) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resumes++
	switch {
	case m.state == StateClosed:
		return ErrClosed
	case m.resumeErr != nil:
		m.logger.Debug("resume refused", "error", m.resumeErr)
		return m.resumeErr
	}
	m.state = StateRunning
	return nil
}

// ResumeCalls returns how many times Resume was called.
func (m *MockSink) ResumeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resumes
}

// State returns the current state.
func (m *MockSink) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Write accepts an audio chunk.
func (m *MockSink) Write(ctx context.Context, chunk AudioChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateClosed:
		return ErrClosed
	case StateSuspended:
		return ErrSuspended
	}

	m.buffer = append(m.buffer, chunk)
	m.history = append(m.history, chunk)

	m.chunksWritten.Add(1)
	m.samplesWritten.Add(int64(len(chunk.Samples)))

	return nil
}

// Chunks returns a copy of every chunk written so far.
func (m *MockSink) Chunks() []AudioChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]AudioChunk, len(m.history))
	copy(out, m.history)
	return out
}

// Flush "plays" the pending chunks. It sleeps one hundredth of their
// real duration, capped at 10ms, so tests still observe a blocking call.
func (m *MockSink) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateClosed {
		return ErrClosed
	}

	if n := m.pendingLocked(); n > 0 && m.cfg.SampleRate > 0 {
		played := time.Duration(n) * time.Second / time.Duration(m.cfg.SampleRate)
		t := time.NewTimer(min(played/100, 10*time.Millisecond))
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	m.buffer = m.buffer[:0]
	return nil
}

func (m *MockSink) pendingLocked() int64 {
	var n int64
	for _, c := range m.buffer {
		n += int64(len(c.Samples))
	}
	return n
}

// Clear discards buffered audio.
func (m *MockSink) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buffer = m.buffer[:0]
	return nil
}

// Config returns the audio configuration.
func (m *MockSink) Config() Config {
	return m.cfg
}

// Name returns "mock".
func (m *MockSink) Name() string {
	return "mock"
}

// Close releases resources.
func (m *MockSink) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = StateClosed
	m.buffer = nil
	return nil
}

// Stats returns sink statistics.
func (m *MockSink) Stats() SinkStats {
	m.mu.Lock()
	state, buffered := m.state, m.pendingLocked()
	m.mu.Unlock()

	return SinkStats{
		ChunksWritten:   m.chunksWritten.Load(),
		SamplesWritten:  m.samplesWritten.Load(),
		State:           state,
		Backend:         "mock",
		BufferedSamples: buffered,
	}
}

// Ensure MockSink implements SinkWithStats.
var _ SinkWithStats = (*MockSink)(nil)
