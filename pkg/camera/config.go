// Package camera captures frames for strum detection.
// Settings can be changed at runtime through a Manager, the same way the
// dashboard changes tempo and sensitivity.
package camera

import "fmt"

// Config holds all camera configuration parameters.
type Config struct {
	// DeviceID is the capture device index (/dev/videoN on Linux).
	DeviceID int `json:"device_id" yaml:"device_id"`

	// === Resolution ===
	Width     int `json:"width" yaml:"width"`         // Requested capture width
	Height    int `json:"height" yaml:"height"`       // Requested capture height
	Framerate int `json:"framerate" yaml:"framerate"` // Target FPS

	// Mirror flips frames horizontally, as a user-facing camera preview
	// does. Strum direction is symmetric so detection is unaffected.
	Mirror bool `json:"mirror" yaml:"mirror"`

	// ProcessWidth downscales frames before detection, keeping the aspect
	// ratio. 0 keeps the capture size.
	ProcessWidth int `json:"process_width" yaml:"process_width"`
}

// Capture limits.
const (
	MinWidth     = 160
	MaxWidth     = 3840
	MinHeight    = 120
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns the user-facing 720p configuration at 30 fps,
// processed at 320 px wide.
func DefaultConfig() Config {
	return Config{
		DeviceID:     0,
		Width:        1280,
		Height:       720,
		Framerate:    30,
		Mirror:       true,
		ProcessWidth: 320,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errs []string

	if c.DeviceID < 0 {
		errs = append(errs, "device_id must be >= 0")
	}
	if c.Width < MinWidth || c.Width > MaxWidth {
		errs = append(errs, fmt.Sprintf("width must be between %d and %d", MinWidth, MaxWidth))
	}
	if c.Height < MinHeight || c.Height > MaxHeight {
		errs = append(errs, fmt.Sprintf("height must be between %d and %d", MinHeight, MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errs = append(errs, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.ProcessWidth != 0 && (c.ProcessWidth < 32 || c.ProcessWidth > c.Width) {
		errs = append(errs, "process_width must be 0 or between 32 and width")
	}

	return errs
}

// ProcessSize returns the frame size handed to the detector.
func (c *Config) ProcessSize() (int, int) {
	if c.ProcessWidth == 0 || c.ProcessWidth >= c.Width || c.Width == 0 {
		return c.Width, c.Height
	}
	return c.ProcessWidth, c.Height * c.ProcessWidth / c.Width
}
