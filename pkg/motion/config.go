package motion

import (
	"fmt"
	"strings"
	"time"
)

// Fixed classification constants.
const (
	// NoiseFloor is the per-pixel luminance change (0-255) a pixel must
	// exceed before it counts as motion.
	NoiseFloor = 20

	// DirectionRatio is how much horizontal gradient energy must exceed
	// vertical gradient energy for motion to count as a strum.
	DirectionRatio = 1.5
)

// Config holds the tunable detection parameters.
type Config struct {
	// Sensitivity is the minimum mean luminance change of the moving
	// pixels. Lower values detect lighter strums.
	Sensitivity float64 `json:"sensitivity" yaml:"sensitivity"`

	// Cooldown is the minimum time between two emitted strums.
	Cooldown time.Duration `json:"cooldown" yaml:"cooldown"`
}

// DefaultConfig returns the tuned defaults (sensitivity 30, 150ms cooldown).
func DefaultConfig() Config {
	return Config{
		Sensitivity: 30,
		Cooldown:    150 * time.Millisecond,
	}
}

// SensitiveConfig picks up lighter, faster strums at the cost of more
// false positives.
func SensitiveConfig() Config {
	cfg := DefaultConfig()
	cfg.Sensitivity = 20
	return cfg
}

// StrictConfig suits noisy scenes or slow strumming: heavier motion is
// required and detections are at least 300ms apart.
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.Sensitivity = 45
	cfg.Cooldown = 300 * time.Millisecond
	return cfg
}

var presets = map[string]func() Config{
	"default":   DefaultConfig,
	"sensitive": SensitiveConfig,
	"strict":    StrictConfig,
}

// Preset returns the named detection preset.
func Preset(name string) (Config, bool) {
	fn, ok := presets[strings.ToLower(name)]
	if !ok {
		return Config{}, false
	}
	return fn(), true
}

// PresetNames lists the preset names in a stable order.
func PresetNames() []string {
	return []string{"default", "sensitive", "strict"}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Sensitivity < 0 || c.Sensitivity > 255 {
		return fmt.Errorf("motion: sensitivity must be between 0 and 255, got %v", c.Sensitivity)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("motion: cooldown must not be negative, got %v", c.Cooldown)
	}
	return nil
}
