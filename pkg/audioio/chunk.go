package audioio

import "time"

// AudioChunk represents a chunk of audio data.
type AudioChunk struct {
	// Samples contains interleaved PCM16 samples.
	Samples []int16

	// SampleRate is the sample rate of this chunk.
	SampleRate int

	// Channels is the number of channels in this chunk.
	Channels int
}

// Bytes returns the chunk as little-endian PCM16.
func (c *AudioChunk) Bytes() []byte {
	return SamplesToBytes(c.Samples)
}

// FromBytes populates the chunk from raw PCM16 bytes.
func (c *AudioChunk) FromBytes(data []byte, sampleRate, channels int) {
	c.SampleRate = sampleRate
	c.Channels = channels
	c.Samples = BytesToSamples(data)
}

// Duration returns the playback length of this chunk.
func (c *AudioChunk) Duration() time.Duration {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	frames := len(c.Samples) / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}

// Convert returns the chunk at the given rate and channel count.
// The receiver is returned unchanged when it already matches.
func (c AudioChunk) Convert(sampleRate, channels int) AudioChunk {
	samples := c.Samples
	switch {
	case c.Channels == 2 && channels == 1:
		samples = StereoToMono(samples)
	case c.Channels == 1 && channels == 2:
		// Resample first so the interleaving stays intact.
		samples = MonoToStereo(Resample(samples, c.SampleRate, sampleRate))
		return AudioChunk{Samples: samples, SampleRate: sampleRate, Channels: channels}
	}
	if channels == 1 {
		samples = Resample(samples, c.SampleRate, sampleRate)
	} else if c.SampleRate != sampleRate {
		l, r := splitStereo(samples)
		samples = interleave(Resample(l, c.SampleRate, sampleRate), Resample(r, c.SampleRate, sampleRate))
	}
	return AudioChunk{Samples: samples, SampleRate: sampleRate, Channels: channels}
}

func splitStereo(s []int16) (l, r []int16) {
	l = make([]int16, len(s)/2)
	r = make([]int16, len(s)/2)
	for i := range l {
		l[i], r[i] = s[i*2], s[i*2+1]
	}
	return l, r
}

func interleave(l, r []int16) []int16 {
	n := min(len(l), len(r))
	out := make([]int16, n*2)
	for i := 0; i < n; i++ {
		out[i*2], out[i*2+1] = l[i], r[i]
	}
	return out
}
