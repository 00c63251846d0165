package announce

import (
	"fmt"

	"github.com/teslashibe/go-strum/pkg/audioio"
	"github.com/teslashibe/go-strum/pkg/tts"
)

// Decode turns a synthesis result into a chunk at the output's rate and
// channel count. PCM16 and μ-law are supported.
func Decode(res *tts.AudioResult, sampleRate, channels int) (audioio.AudioChunk, error) {
	if res == nil || len(res.Audio) == 0 {
		return audioio.AudioChunk{}, ErrEmptyAudio
	}

	srcRate := res.Format.SampleRate
	if srcRate == 0 {
		srcRate = tts.SampleRateFromEncoding(res.Format.Encoding)
	}
	srcChannels := res.Format.Channels
	if srcChannels == 0 {
		srcChannels = 1
	}

	var samples []int16
	switch enc := res.Format.Encoding; {
	case enc.IsPCM():
		samples = audioio.BytesToSamples(res.Audio)
	case enc == tts.EncodingULaw:
		samples = make([]int16, len(res.Audio))
		for i, b := range res.Audio {
			samples[i] = ulawToLinear(b)
		}
	default:
		return audioio.AudioChunk{}, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, enc)
	}
	if len(samples) == 0 {
		return audioio.AudioChunk{}, ErrEmptyAudio
	}

	src := audioio.AudioChunk{Samples: samples, SampleRate: srcRate, Channels: srcChannels}
	return src.Convert(sampleRate, channels), nil
}

// ulawToLinear expands one G.711 μ-law byte.
func ulawToLinear(u byte) int16 {
	u = ^u
	sign := u & 0x80
	exponent := (u >> 4) & 0x07
	mantissa := u & 0x0F
	sample := ((int32(mantissa) << 3) + 0x84) << exponent
	sample -= 0x84
	if sign != 0 {
		return int16(-sample)
	}
	return int16(sample)
}
