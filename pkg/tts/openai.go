package tts

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

const (
	openAIBaseURL  = "https://api.openai.com/v1"
	providerOpenAI = "openai"

	// openAIPCMRate is the fixed rate of response_format=pcm.
	openAIPCMRate = 24000
)

// OpenAI voices.
const (
	VoiceAlloy   = "alloy"
	VoiceEcho    = "echo"
	VoiceFable   = "fable"
	VoiceOnyx    = "onyx"
	VoiceNova    = "nova"
	VoiceShimmer = "shimmer"
)

// OpenAI models.
const (
	ModelTTS1   = "tts-1"
	ModelTTS1HD = "tts-1-hd"
)

// OpenAI speaks through the OpenAI audio/speech endpoint. Audio is always
// requested as raw 24 kHz PCM16 so it needs no decoder.
type OpenAI struct {
	config *Config
	api    *api
	logger *slog.Logger
}

// NewOpenAI creates an OpenAI provider, defaulting to tts-1 with "nova".
func NewOpenAI(opts ...Option) (*OpenAI, error) {
	cfg := DefaultConfig()
	cfg.ModelID = ModelTTS1
	cfg.VoiceID = VoiceNova
	cfg.Apply(opts...)
	cfg.OutputFormat = EncodingPCM24
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.VoiceID == "" {
		cfg.VoiceID = VoiceNova
	}

	base := cfg.BaseURL
	if base == "" {
		base = openAIBaseURL
	}
	return &OpenAI{
		config: cfg,
		api: &api{
			provider:    providerOpenAI,
			baseURL:     base,
			client:      cfg.client(),
			authorize:   func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+cfg.APIKey) },
			errorDetail: openAIErrorDetail,
		},
		logger: cfg.Logger.With("component", "tts.openai"),
	}, nil
}

type openAIRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	ResponseFormat string `json:"response_format"`
}

func (o *OpenAI) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if text == "" {
		return nil, WrapError(providerOpenAI, "synthesize", ErrEmptyText)
	}
	payload := openAIRequest{
		Model:          o.config.ModelID,
		Voice:          o.config.VoiceID,
		Input:          text,
		ResponseFormat: "pcm",
	}

	start := time.Now()
	audio, err := o.api.call(ctx, "synthesize", http.MethodPost, "/audio/speech", payload, "")
	if err != nil {
		return nil, err
	}
	latency := time.Since(start).Milliseconds()
	o.logger.Debug("synthesized", "chars", len(text), "bytes", len(audio), "latency_ms", latency, "voice", o.config.VoiceID)

	return &AudioResult{
		Audio: audio,
		Format: AudioFormat{
			Encoding:   EncodingPCM24,
			SampleRate: openAIPCMRate,
			Channels:   1,
			BitDepth:   16,
		},
		CharCount: len(text),
		LatencyMs: latency,
		Duration:  pcmDuration(len(audio), openAIPCMRate),
	}, nil
}

// Health lists models, which fails fast on a bad key.
func (o *OpenAI) Health(ctx context.Context) error {
	_, err := o.api.call(ctx, "health", http.MethodGet, "/models", nil, "")
	return err
}

func (o *OpenAI) Close() error {
	o.api.client.CloseIdleConnections()
	return nil
}

func (o *OpenAI) VoiceID() string { return o.config.VoiceID }

func openAIErrorDetail(body []byte) (string, string, bool) {
	var r struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &r) != nil || r.Error.Message == "" {
		return "", "", false
	}
	return r.Error.Message, r.Error.Code, true
}

var _ Provider = (*OpenAI)(nil)
