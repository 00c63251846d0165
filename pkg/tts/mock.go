package tts

import (
	"context"
	"sync"
	"time"
)

const (
	mockSampleRate = 24000
	// mockCharDuration is how much silent audio the mock renders per character.
	mockCharDuration = 20 * time.Millisecond
)

// Mock is an in-memory Provider. Its behavior is swapped through the
// function fields; every call is recorded.
type Mock struct {
	// SynthesizeFunc produces the result. A nil func makes the provider
	// unavailable.
	SynthesizeFunc func(ctx context.Context, text string) (*AudioResult, error)
	HealthFunc     func(ctx context.Context) error
	CloseFunc      func() error

	mu    sync.Mutex
	calls []MockCall
}

// MockCall is one recorded call.
type MockCall struct {
	Method string
	Text   string
	Time   time.Time
}

// NewMock returns a healthy mock that renders silence.
func NewMock() *Mock {
	return &Mock{
		SynthesizeFunc: func(_ context.Context, text string) (*AudioResult, error) {
			return SilentResult(text), nil
		},
	}
}

// SilentResult is 24 kHz mono PCM silence, 20ms per character of text.
func SilentResult(text string) *AudioResult {
	n := len(text)
	samples := int(mockCharDuration.Seconds()*mockSampleRate) * n
	return &AudioResult{
		Audio: make([]byte, samples*2),
		Format: AudioFormat{
			Encoding:   EncodingPCM24,
			SampleRate: mockSampleRate,
			Channels:   1,
			BitDepth:   16,
		},
		CharCount: n,
		LatencyMs: 10,
		Duration:  time.Duration(n) * mockCharDuration,
	}
}

func (m *Mock) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	m.record("Synthesize", text)
	if m.SynthesizeFunc == nil {
		return nil, WrapError("mock", "synthesize", ErrProviderUnavailable)
	}
	return m.SynthesizeFunc(ctx, text)
}

func (m *Mock) Health(ctx context.Context) error {
	m.record("Health", "")
	if m.HealthFunc == nil {
		return nil
	}
	return m.HealthFunc(ctx)
}

func (m *Mock) Close() error {
	m.record("Close", "")
	if m.CloseFunc == nil {
		return nil
	}
	return m.CloseFunc()
}

func (m *Mock) record(method, text string) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{Method: method, Text: text, Time: time.Now()})
	m.mu.Unlock()
}

// Calls returns a copy of the recorded calls.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount counts recorded calls to method.
func (m *Mock) CallCount(method string) int {
	n := 0
	for _, c := range m.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// LastCall returns the most recent call, or nil.
func (m *Mock) LastCall() *MockCall {
	calls := m.Calls()
	if len(calls) == 0 {
		return nil
	}
	return &calls[len(calls)-1]
}

// Reset forgets the recorded calls.
func (m *Mock) Reset() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

// WithError returns a mock whose Synthesize and Health fail with err.
func WithError(err error) *Mock {
	return &Mock{
		SynthesizeFunc: func(context.Context, string) (*AudioResult, error) { return nil, err },
		HealthFunc:     func(context.Context) error { return err },
	}
}

// WithLatency delays every Synthesize on m by d.
func WithLatency(m *Mock, d time.Duration) *Mock {
	return holdBefore(m, func(ctx context.Context) error {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

// WithGate makes Synthesize on m block until gate yields or is closed,
// which keeps an announcement in flight for as long as a test needs.
func WithGate(m *Mock, gate <-chan struct{}) *Mock {
	return holdBefore(m, func(ctx context.Context) error {
		select {
		case <-gate:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func holdBefore(m *Mock, wait func(context.Context) error) *Mock {
	next := m.SynthesizeFunc
	m.SynthesizeFunc = func(ctx context.Context, text string) (*AudioResult, error) {
		if err := wait(ctx); err != nil {
			return nil, err
		}
		if next == nil {
			return nil, WrapError("mock", "synthesize", ErrProviderUnavailable)
		}
		return next(ctx, text)
	}
	return m
}

var _ Provider = (*Mock)(nil)
