package audioio

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrSuspended is returned by Write while the output is suspended.
	// Callers may Resume and retry.
	ErrSuspended = errors.New("audioio: output suspended")

	// ErrClosed is returned by any operation after Close.
	ErrClosed = errors.New("audioio: output closed")
)

// State is the lifecycle state of an Output.
type State string

const (
	StateRunning   State = "running"
	StateSuspended State = "suspended"
	StateClosed    State = "closed"
)

// Sink plays audio to a speaker or other output device.
type Sink interface {
	// Start begins audio playback.
	// After calling Start, audio can be written via Write.
	Start(ctx context.Context) error

	// Stop halts audio playback.
	// It is safe to call Stop multiple times.
	Stop() error

	// Write sends an audio chunk to the output device.
	Write(ctx context.Context, chunk AudioChunk) error

	// Flush waits for all buffered audio to be played.
	Flush(ctx context.Context) error

	// Clear discards all buffered audio immediately.
	Clear() error

	// Config returns the current audio configuration.
	Config() Config

	// Name returns the backend name (e.g., "rtp", "mock").
	Name() string

	// Close releases all resources.
	// After Close, the sink cannot be restarted.
	io.Closer
}

// Output is a Sink whose playback can be suspended by its environment
// and must be resumed before it accepts audio again.
type Output interface {
	Sink

	// State reports running, suspended or closed.
	State() State

	// Resume moves a suspended output back to running.
	Resume(ctx context.Context) error
}

// SinkStats contains statistics about the audio sink.
type SinkStats struct {
	// ChunksWritten is the total number of chunks written.
	ChunksWritten int64 `json:"chunks_written"`

	// SamplesWritten is the total number of samples written.
	SamplesWritten int64 `json:"samples_written"`

	// PacketsSent is the number of network packets emitted (RTP only).
	PacketsSent int64 `json:"packets_sent,omitempty"`

	// State is the current output state.
	State State `json:"state"`

	// Backend is the name of the audio backend.
	Backend string `json:"backend"`

	// BufferedSamples is the number of samples currently buffered.
	BufferedSamples int64 `json:"buffered_samples"`
}

// SinkWithStats extends Output with statistics.
type SinkWithStats interface {
	Output
	Stats() SinkStats
}
