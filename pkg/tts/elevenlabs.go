package tts

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const (
	elevenLabsBaseURL  = "https://api.elevenlabs.io/v1"
	providerElevenLabs = "elevenlabs"
)

// ElevenLabs model IDs.
const (
	// ModelMonolingualV1 is the English model used for announcements.
	ModelMonolingualV1 = "eleven_monolingual_v1"
	// ModelTurboV2_5 trades some quality for latency.
	ModelTurboV2_5      = "eleven_turbo_v2_5"
	ModelMultilingualV2 = "eleven_multilingual_v2"
)

// ElevenLabs speaks through the ElevenLabs text-to-speech REST endpoint.
type ElevenLabs struct {
	config *Config
	api    *api
	logger *slog.Logger
}

// NewElevenLabs creates an ElevenLabs provider. An API key is required;
// preset voice names such as "sarah" are resolved to voice IDs.
func NewElevenLabs(opts ...Option) (*ElevenLabs, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	cfg.VoiceID = ResolveElevenLabsVoice(cfg.VoiceID)
	if err := cfg.ValidateWithVoice(); err != nil {
		return nil, err
	}

	base := cfg.BaseURL
	if base == "" {
		base = elevenLabsBaseURL
	}
	return &ElevenLabs{
		config: cfg,
		api: &api{
			provider:    providerElevenLabs,
			baseURL:     base,
			client:      cfg.client(),
			authorize:   func(r *http.Request) { r.Header.Set("xi-api-key", cfg.APIKey) },
			errorDetail: elevenLabsErrorDetail,
		},
		logger: cfg.Logger.With("component", "tts.elevenlabs"),
	}, nil
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	SpeakerBoost    bool    `json:"use_speaker_boost,omitempty"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if text == "" {
		return nil, WrapError(providerElevenLabs, "synthesize", ErrEmptyText)
	}
	vs := e.config.VoiceSettings
	payload := elevenLabsRequest{
		Text:    text,
		ModelID: e.config.ModelID,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       vs.Stability,
			SimilarityBoost: vs.SimilarityBoost,
			Style:           vs.Style,
			SpeakerBoost:    vs.SpeakerBoost,
		},
	}
	path := "/text-to-speech/" + url.PathEscape(e.config.VoiceID) + "?" +
		url.Values{"output_format": {string(e.config.OutputFormat)}}.Encode()

	start := time.Now()
	audio, err := e.api.call(ctx, "synthesize", http.MethodPost, path, payload, mimeType(e.config.OutputFormat))
	if err != nil {
		return nil, err
	}
	latency := time.Since(start).Milliseconds()
	e.logger.Debug("synthesized", "chars", len(text), "bytes", len(audio), "latency_ms", latency, "model", e.config.ModelID)

	format := AudioFormat{
		Encoding:   e.config.OutputFormat,
		SampleRate: SampleRateFromEncoding(e.config.OutputFormat),
		Channels:   1,
		BitDepth:   16,
	}
	res := &AudioResult{Audio: audio, Format: format, CharCount: len(text), LatencyMs: latency}
	if format.Encoding.IsPCM() {
		res.Duration = pcmDuration(len(audio), format.SampleRate)
	}
	return res, nil
}

// Health validates the API key against the user endpoint.
func (e *ElevenLabs) Health(ctx context.Context) error {
	_, err := e.api.call(ctx, "health", http.MethodGet, "/user", nil, "")
	return err
}

func (e *ElevenLabs) Close() error {
	e.api.client.CloseIdleConnections()
	return nil
}

func (e *ElevenLabs) VoiceID() string { return e.config.VoiceID }

func (e *ElevenLabs) ModelID() string { return e.config.ModelID }

func elevenLabsErrorDetail(body []byte) (string, string, bool) {
	var r struct {
		Detail struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"detail"`
	}
	if json.Unmarshal(body, &r) != nil || r.Detail.Message == "" {
		return "", "", false
	}
	return r.Detail.Message, r.Detail.Status, true
}

func mimeType(enc Encoding) string {
	switch {
	case enc.IsPCM():
		return "audio/pcm"
	case enc == EncodingULaw:
		return "audio/basic"
	default:
		return "audio/mpeg"
	}
}

var _ Provider = (*ElevenLabs)(nil)
