package tts

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/teslashibe/go-strum/internal/httpc"
)

// Config is shared by all HTTP providers. Build it with Options.
type Config struct {
	APIKey  string
	BaseURL string // empty means the provider's public endpoint

	VoiceID       string
	ModelID       string
	VoiceSettings VoiceSettings
	OutputFormat  Encoding

	// Timeout bounds a whole request including the body read.
	Timeout time.Duration

	Logger *slog.Logger
}

// Option configures a provider.
type Option func(*Config)

func WithAPIKey(key string) Option { return func(c *Config) { c.APIKey = key } }

// WithBaseURL points the provider at another endpoint, e.g. a test server.
func WithBaseURL(url string) Option { return func(c *Config) { c.BaseURL = url } }

// WithVoice sets the voice. For ElevenLabs, preset names are resolved.
func WithVoice(id string) Option { return func(c *Config) { c.VoiceID = id } }

func WithModel(id string) Option { return func(c *Config) { c.ModelID = id } }

// WithTimeout bounds each request. Non-positive values keep the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		if l != nil {
			c.Logger = l
		}
	}
}

// DefaultConfig returns the announcement defaults: the "sarah" voice on
// the English v1 model, 24 kHz PCM output.
func DefaultConfig() *Config {
	return &Config{
		VoiceID:       ResolveElevenLabsVoice(DefaultElevenLabsVoice),
		ModelID:       ModelMonolingualV1,
		OutputFormat:  EncodingPCM24,
		VoiceSettings: DefaultVoiceSettings(),
		Timeout:       15 * time.Second,
		Logger:        slog.Default(),
	}
}

func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Validate requires an API key.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrNoAPIKey
	}
	return nil
}

// ValidateWithVoice additionally requires a voice ID.
func (c *Config) ValidateWithVoice() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.VoiceID == "" {
		return ErrNoVoiceID
	}
	return nil
}

func (c *Config) client() *http.Client {
	return httpc.NewClient(c.Timeout)
}
