// Package practice runs a strumming practice session: frames from a camera
// feed the motion detector, detected strums are counted, a metronome ticks
// independently, and every milestone count is announced by voice.
package practice

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-strum/pkg/announce"
	"github.com/teslashibe/go-strum/pkg/audioio"
	"github.com/teslashibe/go-strum/pkg/camera"
	"github.com/teslashibe/go-strum/pkg/metronome"
	"github.com/teslashibe/go-strum/pkg/motion"
	"github.com/teslashibe/go-strum/pkg/tts"
)

// DefaultFrameInterval polls the camera at roughly 60 Hz.
const DefaultFrameInterval = 16 * time.Millisecond

var (
	// ErrNoSource is returned by New without a frame source.
	ErrNoSource = errors.New("practice: no frame source")

	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("practice: session closed")
)

// Config holds session settings.
type Config struct {
	BPM          int
	Sensitivity  float64
	Cooldown     time.Duration
	SoundEnabled bool

	// MilestoneEvery is the announcement step. 0 disables milestones.
	MilestoneEvery int

	// BeatsPerBar accents the first beat of each bar. 0 disables accents.
	BeatsPerBar int

	FrameInterval       time.Duration
	AnnouncementTimeout time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns the practice defaults: 60 bpm, sensitivity 30,
// 150ms cooldown, sound on, a milestone every 100 strums.
func DefaultConfig() Config {
	det := motion.DefaultConfig()
	return Config{
		BPM:                 metronome.DefaultBPM,
		Sensitivity:         det.Sensitivity,
		Cooldown:            det.Cooldown,
		SoundEnabled:        true,
		MilestoneEvery:      announce.DefaultEvery,
		FrameInterval:       DefaultFrameInterval,
		AnnouncementTimeout: 15 * time.Second,
	}
}

// Validate checks the settings a session cannot correct on its own.
// BPM is clamped rather than rejected.
func (c Config) Validate() error {
	if err := (motion.Config{Sensitivity: c.Sensitivity, Cooldown: c.Cooldown}).Validate(); err != nil {
		return err
	}
	if c.MilestoneEvery < 0 {
		return fmt.Errorf("practice: milestone step must not be negative, got %d", c.MilestoneEvery)
	}
	if c.BeatsPerBar < 0 {
		return fmt.Errorf("practice: beats per bar must not be negative, got %d", c.BeatsPerBar)
	}
	if c.FrameInterval < 0 {
		return fmt.Errorf("practice: frame interval must not be negative, got %v", c.FrameInterval)
	}
	return nil
}

// Deps are the external collaborators of a session.
type Deps struct {
	Source camera.Source

	// Output plays clicks and announcements. Nil runs silently.
	Output audioio.Output

	// Speech synthesizes milestone announcements. Nil disables them.
	Speech tts.Provider

	// Clock drives the metronome. Defaults to the real clock.
	Clock metronome.Clock
}
