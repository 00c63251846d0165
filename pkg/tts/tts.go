// Package tts turns short texts into speech audio.
//
// Providers make exactly one request per Synthesize call. There is no
// retry layer: a milestone whose announcement fails is skipped.
//
//	provider, err := tts.NewElevenLabs(tts.WithAPIKey(key))
//	if err != nil { ... }
//	defer provider.Close()
//	res, err := provider.Synthesize(ctx, "100!")
package tts

import (
	"context"
	"time"
)

// Provider synthesizes speech.
type Provider interface {
	// Synthesize returns the complete audio for text.
	Synthesize(ctx context.Context, text string) (*AudioResult, error)
	// Health checks connectivity and credentials.
	Health(ctx context.Context) error
	Close() error
}

// AudioResult is the audio for one utterance.
type AudioResult struct {
	Audio     []byte
	Format    AudioFormat
	Duration  time.Duration // zero when the encoding is compressed
	CharCount int
	LatencyMs int64 // request round trip
}

// AudioFormat describes AudioResult.Audio.
type AudioFormat struct {
	Encoding   Encoding
	SampleRate int
	Channels   int
	BitDepth   int
}

// Encoding names an output format using ElevenLabs' identifiers.
type Encoding string

const (
	// Little-endian PCM16 mono.
	EncodingPCM16 Encoding = "pcm_16000"
	EncodingPCM22 Encoding = "pcm_22050"
	EncodingPCM24 Encoding = "pcm_24000"
	EncodingPCM44 Encoding = "pcm_44100"

	EncodingMP3  Encoding = "mp3_44100_128"
	EncodingULaw Encoding = "ulaw_8000"
)

func (e Encoding) IsPCM() bool {
	switch e {
	case EncodingPCM16, EncodingPCM22, EncodingPCM24, EncodingPCM44:
		return true
	}
	return false
}

// VoiceSettings tune ElevenLabs voices. All values are 0.0-1.0.
type VoiceSettings struct {
	Stability       float64
	SimilarityBoost float64
	Style           float64 // v2 models only
	SpeakerBoost    bool
}

// DefaultVoiceSettings is a steady delivery that stays close to the stock voice.
func DefaultVoiceSettings() VoiceSettings {
	return VoiceSettings{Stability: 0.71, SimilarityBoost: 0.5}
}

// SampleRateFromEncoding returns the rate implied by enc, 24 kHz if unknown.
func SampleRateFromEncoding(enc Encoding) int {
	switch enc {
	case EncodingPCM16:
		return 16000
	case EncodingPCM22:
		return 22050
	case EncodingPCM44, EncodingMP3:
		return 44100
	case EncodingULaw:
		return 8000
	}
	return 24000
}

// pcmDuration is the playback time of a mono PCM16 buffer.
func pcmDuration(bytes, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(bytes/2) * time.Second / time.Duration(sampleRate)
}
