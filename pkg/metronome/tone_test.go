package metronome

import (
	"math"
	"testing"
	"time"
)

func peakOf(s []float32) float64 {
	var p float64
	for _, v := range s {
		p = math.Max(p, math.Abs(float64(v)))
	}
	return p
}

func TestSynthesizeTone_Shape(t *testing.T) {
	p := DefaultTick()
	tone := SynthesizeTone(p)

	if got, want := len(tone.Samples), 720; got != want {
		t.Fatalf("samples = %d, want %d (30ms at 24kHz)", got, want)
	}
	if tone.Duration() != 30*time.Millisecond {
		t.Errorf("Duration() = %v, want 30ms", tone.Duration())
	}

	peak := tone.Peak()
	if peak <= 0.02 || peak > p.Peak {
		t.Errorf("peak = %f, want in (0.02, %f]", peak, p.Peak)
	}

	// 3 ms windows at the start and end of the envelope.
	w := 72
	head := peakOf(tone.Samples[:w])
	tail := peakOf(tone.Samples[len(tone.Samples)-w:])
	if tail*20 > head {
		t.Errorf("envelope did not decay: head=%f tail=%f", head, tail)
	}
	if tail > 0.005 {
		t.Errorf("tail = %f, want near silence", tail)
	}
}

func TestSynthesizeTone_Pitch(t *testing.T) {
	tone := SynthesizeTone(DefaultTick())

	// Zero crossings over the first 10 ms; ~1.8-2.4 kHz gives 36-48.
	n := 240
	crossings := 0
	for i := 1; i < n; i++ {
		if (tone.Samples[i-1] < 0) != (tone.Samples[i] < 0) {
			crossings++
		}
	}
	if crossings < 20 || crossings > 80 {
		t.Errorf("zero crossings in 10ms = %d, want roughly 36-48", crossings)
	}
}

func TestSynthesizeTone_AccentLouder(t *testing.T) {
	normal := SynthesizeTone(DefaultTick())
	accent := SynthesizeTone(AccentTick())
	if accent.Peak() <= normal.Peak() {
		t.Errorf("accent peak %f should exceed normal peak %f", accent.Peak(), normal.Peak())
	}
}

func TestSynthesizeTone_Deterministic(t *testing.T) {
	a := SynthesizeTone(DefaultTick())
	b := SynthesizeTone(DefaultTick())
	for i := range a.Samples {
		if a.Samples[i] != b.Samples[i] {
			t.Fatalf("sample %d differs: %f vs %f", i, a.Samples[i], b.Samples[i])
		}
	}
}

func TestSynthesizeTone_SampleRate(t *testing.T) {
	p := DefaultTick()
	p.SampleRate = 48000
	tone := SynthesizeTone(p)
	if len(tone.Samples) != 1440 {
		t.Errorf("samples at 48kHz = %d, want 1440", len(tone.Samples))
	}

	p.SampleRate = 0
	if got := SynthesizeTone(p); len(got.Samples) != 0 {
		t.Errorf("zero sample rate should render nothing, got %d samples", len(got.Samples))
	}
}

func TestTone_Chunk(t *testing.T) {
	c := SynthesizeTone(DefaultTick()).Chunk()
	if c.SampleRate != 24000 || c.Channels != 1 || len(c.Samples) != 720 {
		t.Errorf("chunk = %d samples @ %d Hz x%d", len(c.Samples), c.SampleRate, c.Channels)
	}
}
