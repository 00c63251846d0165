// Package audioio provides audio playback outputs for ticks and spoken
// announcements.
//
// Backends:
//   - RTP - Opus-encoded RTP over UDP, for a networked speaker or a
//     gstreamer/ffplay receiver
//   - Mock - CI/Testing without hardware
//
// The backend is chosen from configuration; BackendAuto picks RTP when a
// destination address is configured and falls back to the mock otherwise.
package audioio

import (
	"fmt"
	"time"
)

// Backend represents the audio backend type.
type Backend string

const (
	// BackendAuto selects RTP when RTPAddr is set, mock otherwise.
	BackendAuto Backend = "auto"
	// BackendRTP streams Opus over RTP/UDP.
	BackendRTP Backend = "rtp"
	// BackendMock uses a mock implementation for testing.
	BackendMock Backend = "mock"
)

// Opus only runs at a handful of rates; RTP output always uses 48 kHz.
const (
	RTPSampleRate  = 48000
	RTPFrameLength = 20 * time.Millisecond
	RTPPayloadType = 96
)

// Config holds audio configuration.
type Config struct {
	// Backend specifies which audio backend to use.
	// Default: "auto"
	Backend Backend `yaml:"backend" json:"backend"`

	// SampleRate is the rate callers render audio at, in Hz.
	// Chunks at other rates are resampled by the sink.
	// Default: 24000 (matches the pcm_24000 speech output)
	SampleRate int `yaml:"sample_rate" json:"sample_rate"`

	// Channels is the number of audio channels.
	// Default: 1 (mono)
	Channels int `yaml:"channels" json:"channels"`

	// BufferDuration is the size of audio buffers.
	// Default: 20ms
	BufferDuration time.Duration `yaml:"buffer_duration" json:"buffer_duration"`

	// RTPAddr is the UDP destination for BackendRTP, e.g. "127.0.0.1:5004".
	RTPAddr string `yaml:"rtp_addr" json:"rtp_addr"`

	// PayloadType is the RTP payload type. Default: 96 (dynamic).
	PayloadType uint8 `yaml:"payload_type" json:"payload_type"`

	// Bitrate is the Opus target bitrate in bits/s. Default: 64000.
	Bitrate int `yaml:"bitrate" json:"bitrate"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Backend:        BackendAuto,
		SampleRate:     24000,
		Channels:       1,
		BufferDuration: 20 * time.Millisecond,
		PayloadType:    RTPPayloadType,
		Bitrate:        64000,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels != 1 && c.Channels != 2 {
		return fmt.Errorf("channels must be 1 or 2, got %d", c.Channels)
	}
	if c.BufferDuration <= 0 {
		return fmt.Errorf("buffer_duration must be positive, got %v", c.BufferDuration)
	}
	if c.Backend == BackendRTP && c.RTPAddr == "" {
		return fmt.Errorf("rtp backend requires rtp_addr")
	}
	if c.PayloadType > 127 {
		return fmt.Errorf("payload_type must be 0-127, got %d", c.PayloadType)
	}
	return nil
}
