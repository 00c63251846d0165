package tts_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/go-strum/pkg/tts"
)

func TestMockProvider(t *testing.T) {
	mock := tts.NewMock()
	ctx := context.Background()

	t.Run("Synthesize returns audio", func(t *testing.T) {
		result, err := mock.Synthesize(ctx, "100!")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Audio) != 4*960 {
			t.Errorf("expected %d bytes, got %d", 4*960, len(result.Audio))
		}
		if result.CharCount != 4 {
			t.Errorf("expected 4 chars, got %d", result.CharCount)
		}
		if result.Format.SampleRate != 24000 {
			t.Errorf("expected 24000 sample rate, got %d", result.Format.SampleRate)
		}
	})

	t.Run("Health returns nil", func(t *testing.T) {
		if err := mock.Health(ctx); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Calls are tracked", func(t *testing.T) {
		if len(mock.Calls()) != 2 {
			t.Errorf("expected 2 calls, got %d", len(mock.Calls()))
		}
		if mock.CallCount("Synthesize") != 1 {
			t.Errorf("expected 1 Synthesize call, got %d", mock.CallCount("Synthesize"))
		}
		if last := mock.LastCall(); last == nil || last.Method != "Health" {
			t.Errorf("unexpected last call: %+v", last)
		}
	})

	t.Run("Reset clears calls", func(t *testing.T) {
		mock.Reset()
		if len(mock.Calls()) != 0 {
			t.Error("expected calls to be cleared")
		}
	})
}

func TestMockWithError(t *testing.T) {
	testErr := errors.New("test error")
	mock := tts.WithError(testErr)

	if _, err := mock.Synthesize(context.Background(), "Hello"); !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}
	if err := mock.Health(context.Background()); !errors.Is(err, testErr) {
		t.Errorf("expected test error, got %v", err)
	}
}

func TestMockWithLatency(t *testing.T) {
	mock := tts.WithLatency(tts.NewMock(), 50*time.Millisecond)

	start := time.Now()
	if _, err := mock.Synthesize(context.Background(), "Hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected at least 50ms latency, got %v", elapsed)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := mock.Synthesize(ctx, "Hi"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestMockWithGate(t *testing.T) {
	gate := make(chan struct{})
	mock := tts.WithGate(tts.NewMock(), gate)

	done := make(chan error, 1)
	go func() {
		_, err := mock.Synthesize(context.Background(), "200!")
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("Synthesize returned before the gate opened")
	case <-time.After(30 * time.Millisecond):
	}

	close(gate)
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Synthesize did not return after the gate opened")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := tts.DefaultConfig()
	if cfg.VoiceID != "EXAVITQu4vr4xnSDxMaL" {
		t.Errorf("voice = %q", cfg.VoiceID)
	}
	if cfg.ModelID != tts.ModelMonolingualV1 {
		t.Errorf("model = %q", cfg.ModelID)
	}
	if cfg.VoiceSettings.Stability != 0.71 || cfg.VoiceSettings.SimilarityBoost != 0.5 {
		t.Errorf("voice settings = %+v", cfg.VoiceSettings)
	}
	if cfg.OutputFormat != tts.EncodingPCM24 {
		t.Errorf("output format = %q", cfg.OutputFormat)
	}
}

func TestFunctionalOptions(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Apply(
		tts.WithAPIKey("test-key"),
		tts.WithVoice("rachel"),
		tts.WithModel("test-model"),
		tts.WithTimeout(5*time.Second),
	)

	if cfg.APIKey != "test-key" {
		t.Errorf("expected API key 'test-key', got '%s'", cfg.APIKey)
	}
	if cfg.VoiceID != "rachel" {
		t.Errorf("expected voice 'rachel', got '%s'", cfg.VoiceID)
	}
	if cfg.ModelID != "test-model" {
		t.Errorf("expected model 'test-model', got '%s'", cfg.ModelID)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.Timeout)
	}

	cfg.Apply(tts.WithTimeout(0), tts.WithLogger(nil))
	if cfg.Timeout != 5*time.Second || cfg.Logger == nil {
		t.Errorf("zero options should keep previous values, got timeout %v", cfg.Timeout)
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := tts.DefaultConfig()
	if err := cfg.Validate(); !errors.Is(err, tts.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}

	cfg.APIKey = "key"
	cfg.VoiceID = ""
	if err := cfg.ValidateWithVoice(); !errors.Is(err, tts.ErrNoVoiceID) {
		t.Errorf("expected ErrNoVoiceID, got %v", err)
	}

	if _, err := tts.NewElevenLabs(); !errors.Is(err, tts.ErrNoAPIKey) {
		t.Errorf("NewElevenLabs without key: %v", err)
	}
	if _, err := tts.NewOpenAI(); !errors.Is(err, tts.ErrNoAPIKey) {
		t.Errorf("NewOpenAI without key: %v", err)
	}
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		status      int
		rateLimited bool
		unauth      bool
		server      bool
	}{
		{429, true, false, false},
		{401, false, true, false},
		{503, false, false, true},
		{400, false, false, false},
	}
	for _, tc := range tests {
		e := &tts.APIError{StatusCode: tc.status, Provider: "x", Message: "m"}
		if e.IsRateLimited() != tc.rateLimited || e.IsUnauthorized() != tc.unauth || e.IsServerError() != tc.server {
			t.Errorf("status %d: classification wrong", tc.status)
		}
	}

	withCode := &tts.APIError{StatusCode: 401, Code: "invalid_api_key", Message: "bad key", Provider: "openai"}
	if got := withCode.Error(); got != "tts: openai returned 401 invalid_api_key: bad key" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSampleRateFromEncoding(t *testing.T) {
	tests := []struct {
		enc  tts.Encoding
		want int
	}{
		{tts.EncodingPCM16, 16000},
		{tts.EncodingPCM22, 22050},
		{tts.EncodingPCM24, 24000},
		{tts.EncodingPCM44, 44100},
		{tts.EncodingMP3, 44100},
		{tts.EncodingULaw, 8000},
		{"unknown", 24000},
	}
	for _, tc := range tests {
		if got := tts.SampleRateFromEncoding(tc.enc); got != tc.want {
			t.Errorf("SampleRateFromEncoding(%s) = %d, want %d", tc.enc, got, tc.want)
		}
	}
}

func TestProviderError(t *testing.T) {
	inner := errors.New("connection reset")
	err := tts.WrapError("elevenlabs", "synthesize", inner)

	var pe *tts.ProviderError
	if !errors.As(err, &pe) || pe.Provider != "elevenlabs" || pe.Op != "synthesize" {
		t.Fatalf("expected ProviderError, got %T", err)
	}
	if !errors.Is(err, inner) {
		t.Error("ProviderError should unwrap to the inner error")
	}
	if got := err.Error(); got != "tts: elevenlabs synthesize: connection reset" {
		t.Errorf("Error() = %q", got)
	}
	if tts.WrapError("x", "health", nil) != nil {
		t.Error("WrapError(nil) should be nil")
	}
}

func TestElevenLabs_Synthesize(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/text-to-speech/EXAVITQu4vr4xnSDxMaL" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("output_format"); got != "pcm_24000" {
			t.Errorf("output_format = %q", got)
		}
		if r.Header.Get("xi-api-key") != "k" {
			t.Errorf("missing api key header")
		}

		var body struct {
			Text          string `json:"text"`
			ModelID       string `json:"model_id"`
			VoiceSettings struct {
				Stability       float64 `json:"stability"`
				SimilarityBoost float64 `json:"similarity_boost"`
			} `json:"voice_settings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body.Text != "300!" || body.ModelID != "eleven_monolingual_v1" {
			t.Errorf("body = %+v", body)
		}
		if body.VoiceSettings.Stability != 0.71 || body.VoiceSettings.SimilarityBoost != 0.5 {
			t.Errorf("voice settings = %+v", body.VoiceSettings)
		}

		w.Header().Set("Content-Type", "audio/pcm")
		w.Write(make([]byte, 48000)) // 1s at 24kHz
	}))
	defer srv.Close()

	p, err := tts.NewElevenLabs(tts.WithAPIKey("k"), tts.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewElevenLabs: %v", err)
	}
	defer p.Close()

	res, err := p.Synthesize(context.Background(), "300!")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Duration != time.Second {
		t.Errorf("duration = %v, want 1s", res.Duration)
	}
	if res.Format.Encoding != tts.EncodingPCM24 {
		t.Errorf("encoding = %s", res.Format.Encoding)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1", hits.Load())
	}
}

func TestElevenLabs_NoRetryOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"detail":{"status":"overloaded","message":"try later"}}`))
	}))
	defer srv.Close()

	p, _ := tts.NewElevenLabs(tts.WithAPIKey("k"), tts.WithBaseURL(srv.URL))
	_, err := p.Synthesize(context.Background(), "100!")

	var apiErr *tts.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != 503 || apiErr.Message != "try later" || apiErr.Code != "overloaded" {
		t.Errorf("api error = %+v", apiErr)
	}
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want exactly 1", hits.Load())
	}
}

func TestElevenLabs_EmptyText(t *testing.T) {
	p, _ := tts.NewElevenLabs(tts.WithAPIKey("k"), tts.WithBaseURL("http://127.0.0.1:1"))
	if _, err := p.Synthesize(context.Background(), ""); !errors.Is(err, tts.ErrEmptyText) {
		t.Errorf("expected ErrEmptyText, got %v", err)
	}
}

func TestElevenLabs_Health(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("xi-api-key") == "bad" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	good, _ := tts.NewElevenLabs(tts.WithAPIKey("good"), tts.WithBaseURL(srv.URL))
	if err := good.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}

	bad, _ := tts.NewElevenLabs(tts.WithAPIKey("bad"), tts.WithBaseURL(srv.URL))
	var apiErr *tts.APIError
	if err := bad.Health(context.Background()); !errors.As(err, &apiErr) || !apiErr.IsUnauthorized() {
		t.Errorf("expected 401 APIError, got %v", err)
	}
}

func TestOpenAI_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer token")
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["response_format"] != "pcm" || body["input"] != "400!" || body["voice"] != tts.VoiceNova {
			t.Errorf("body = %v", body)
		}
		w.Write(make([]byte, 24000)) // 0.5s
	}))
	defer srv.Close()

	p, err := tts.NewOpenAI(tts.WithAPIKey("k"), tts.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}
	res, err := p.Synthesize(context.Background(), "400!")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if res.Format.SampleRate != 24000 || res.Duration != 500*time.Millisecond {
		t.Errorf("result format=%+v duration=%v", res.Format, res.Duration)
	}
}

func TestOpenAI_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down","code":"rate_limit_exceeded"}}`))
	}))
	defer srv.Close()

	p, _ := tts.NewOpenAI(tts.WithAPIKey("k"), tts.WithBaseURL(srv.URL))
	_, err := p.Synthesize(context.Background(), "500!")
	var apiErr *tts.APIError
	if !errors.As(err, &apiErr) || !apiErr.IsRateLimited() || apiErr.Code != "rate_limit_exceeded" {
		t.Errorf("expected rate limit APIError, got %v", err)
	}
}

func TestResolveElevenLabsVoice(t *testing.T) {
	if got := tts.ResolveElevenLabsVoice("sarah"); got != "EXAVITQu4vr4xnSDxMaL" {
		t.Errorf("sarah -> %q", got)
	}
	if got := tts.ResolveElevenLabsVoice("custom-id"); got != "custom-id" {
		t.Errorf("raw id changed: %q", got)
	}
	if got := tts.ResolveElevenLabsVoice("Rachel"); got != "21m00Tcm4TlvDq8ikWAM" {
		t.Errorf("preset lookup should ignore case, got %q", got)
	}
	if !tts.IsElevenLabsPreset("rachel") || tts.IsElevenLabsPreset("nobody") {
		t.Error("IsElevenLabsPreset mismatch")
	}
	if names := tts.VoiceNames(); len(names) != len(tts.ElevenLabsVoices) || names[0] != tts.DefaultElevenLabsVoice {
		t.Errorf("VoiceNames = %v", names)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"rate limited", tts.WrapError("x", "synthesize", &tts.APIError{StatusCode: 429}), true},
		{"server error", &tts.APIError{StatusCode: 502}, true},
		{"unauthorized", &tts.APIError{StatusCode: 401}, false},
		{"timeout", tts.WrapError("x", "synthesize", context.DeadlineExceeded), true},
		{"empty text", tts.ErrEmptyText, false},
		{"nil", nil, false},
	}
	for _, tc := range tests {
		if got := tts.IsTransient(tc.err); got != tc.want {
			t.Errorf("%s: IsTransient = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAPIError_RawBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	p, _ := tts.NewOpenAI(tts.WithAPIKey("k"), tts.WithBaseURL(srv.URL))
	err := p.Health(context.Background())
	var apiErr *tts.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "upstream down" || apiErr.Code != "" || !apiErr.IsServerError() {
		t.Errorf("api error = %+v", apiErr)
	}
	if !tts.IsTransient(err) {
		t.Error("502 should be transient")
	}
}
