// Package app assembles the strum counter: camera, practice session,
// audio output, speech provider and the web dashboard.
package app

import (
	"fmt"

	"github.com/teslashibe/go-strum/internal/config"
	"github.com/teslashibe/go-strum/pkg/audioio"
	"github.com/teslashibe/go-strum/pkg/camera"
	"github.com/teslashibe/go-strum/pkg/practice"
	"github.com/teslashibe/go-strum/pkg/tts"
)

// TTS modes.
const (
	TTSElevenLabs = "elevenlabs"
	TTSOpenAI     = "openai"
	TTSMock       = "mock"
	TTSNone       = "none"
)

// Config holds all configuration for the application.
// Flag parsing is done in cmd/strumcount/main.go; this struct is data only.
type Config struct {
	// Debug enables debug logging.
	Debug bool

	// Camera capture settings.
	Camera camera.Config

	// Demo replaces the camera with a synthetic strumming pattern.
	Demo bool

	// AutoStart starts a session without waiting for the dashboard.
	AutoStart bool

	// Practice settings.
	Practice practice.Config

	// Audio output.
	Audio audioio.Config

	// TTS configuration.
	TTSMode  string
	TTSVoice string

	// API keys (typically from environment variables).
	ElevenLabsKey string
	OpenAIKey     string

	// Dashboard.
	Addr      string
	StaticDir string

	// SettingsPath is where practice settings are loaded from and saved
	// to on shutdown. Empty disables persistence.
	SettingsPath string
}

// DefaultConfig returns the application defaults.
func DefaultConfig() Config {
	return Config{
		Camera:   camera.DefaultConfig(),
		Practice: practice.DefaultConfig(),
		Audio:    audioio.DefaultConfig(),
		TTSMode:  TTSElevenLabs,
		TTSVoice: tts.DefaultElevenLabsVoice,
		Addr:     ":8080",
	}
}

// ApplySettings copies saved practice settings into the config.
func (c *Config) ApplySettings(s config.Settings) {
	c.Practice.BPM = s.BPM
	c.Practice.Sensitivity = s.Sensitivity
	c.Practice.Cooldown = s.Cooldown
	c.Practice.SoundEnabled = s.SoundEnabled
	c.Practice.MilestoneEvery = s.MilestoneEvery
}

// LoadEnvConfig loads configuration values from environment variables.
// Call this after flag parsing to apply environment overrides.
func (c *Config) LoadEnvConfig() {
	c.ElevenLabsKey = config.Env("ELEVENLABS_API_KEY", c.ElevenLabsKey)
	c.OpenAIKey = config.Env("OPENAI_API_KEY", c.OpenAIKey)

	// Voice can come from env if not set by flag
	if c.TTSVoice == "" || c.TTSVoice == tts.DefaultElevenLabsVoice {
		c.TTSVoice = config.Env("ELEVENLABS_VOICE_ID", c.TTSVoice)
	}
	if c.Audio.RTPAddr == "" {
		c.Audio.RTPAddr = config.Env("STRUM_RTP_ADDR", "")
	}
	c.Practice.AnnouncementTimeout = config.EnvDuration("STRUM_ANNOUNCE_TIMEOUT", c.Practice.AnnouncementTimeout)
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	switch c.TTSMode {
	case TTSElevenLabs:
		if c.ElevenLabsKey == "" {
			return &ConfigError{Field: "ElevenLabsKey", Message: "ELEVENLABS_API_KEY environment variable is required for ElevenLabs TTS (or use -tts none)"}
		}
	case TTSOpenAI:
		if c.OpenAIKey == "" {
			return &ConfigError{Field: "OpenAIKey", Message: "OPENAI_API_KEY environment variable is required for OpenAI TTS (or use -tts none)"}
		}
	case TTSMock, TTSNone:
	default:
		return &ConfigError{Field: "TTSMode", Message: fmt.Sprintf("unknown tts mode %q", c.TTSMode)}
	}

	if !c.Demo {
		if errs := c.Camera.Validate(); len(errs) > 0 {
			return &ConfigError{Field: "Camera", Message: fmt.Sprintf("invalid camera config: %v", errs)}
		}
	}
	if err := c.Audio.Validate(); err != nil {
		return &ConfigError{Field: "Audio", Message: err.Error()}
	}
	if err := c.Practice.Validate(); err != nil {
		return &ConfigError{Field: "Practice", Message: err.Error()}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
