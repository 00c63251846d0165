package metronome

import (
	"math"
	"time"

	"github.com/teslashibe/go-strum/pkg/audioio"
)

// TickParams describes one metronome click.
type TickParams struct {
	// SampleRate of the rendered tone in Hz.
	SampleRate int

	// CarrierHz is the triangle oscillator frequency.
	CarrierHz float64

	// FilterHz and FilterQ set the band-pass that gives the click its
	// woody color.
	FilterHz float64
	FilterQ  float64

	// Peak is the envelope's starting gain; it decays exponentially to
	// Floor over Duration.
	Peak     float64
	Floor    float64
	Duration time.Duration
}

// DefaultTick returns the standard click: 1.8 kHz triangle through a
// 2.4 kHz band-pass, 0.3 peak, 30 ms.
func DefaultTick() TickParams {
	return TickParams{
		SampleRate: 24000,
		CarrierHz:  1800,
		FilterHz:   2400,
		FilterQ:    3,
		Peak:       0.3,
		Floor:      0.001,
		Duration:   30 * time.Millisecond,
	}
}

// AccentTick is DefaultTick with a louder peak, used on the first beat of
// a bar.
func AccentTick() TickParams {
	p := DefaultTick()
	p.Peak = 0.45
	return p
}

// Tone is a rendered click as normalized float samples.
type Tone struct {
	SampleRate int
	Samples    []float32
}

// SynthesizeTone renders a click. Rendering is deterministic: the same
// params always give the same samples.
func SynthesizeTone(p TickParams) Tone {
	if p.SampleRate <= 0 || p.Duration <= 0 {
		return Tone{SampleRate: p.SampleRate}
	}
	n := int(float64(p.SampleRate) * p.Duration.Seconds())
	out := make([]float32, n)

	bp := newBandPass(p.FilterHz, p.FilterQ, float64(p.SampleRate))
	phaseInc := p.CarrierHz / float64(p.SampleRate)
	phase := 0.0

	floor := p.Floor
	if floor <= 0 {
		floor = 1e-4
	}
	ratio := floor / p.Peak
	for i := range out {
		// Triangle in [-1, 1].
		osc := 4*math.Abs(phase-0.5) - 1
		phase += phaseInc
		phase -= math.Floor(phase)

		t := float64(i) / float64(n)
		gain := p.Peak * math.Pow(ratio, t)
		out[i] = float32(bp.process(osc) * gain)
	}
	return Tone{SampleRate: p.SampleRate, Samples: out}
}

// PCM16 converts the tone to 16-bit samples.
func (t Tone) PCM16() []int16 {
	return audioio.FloatToPCM16(t.Samples)
}

// Chunk returns the tone as a mono audio chunk.
func (t Tone) Chunk() audioio.AudioChunk {
	return audioio.AudioChunk{Samples: t.PCM16(), SampleRate: t.SampleRate, Channels: 1}
}

// Duration returns the tone length.
func (t Tone) Duration() time.Duration {
	if t.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(t.Samples)) * time.Second / time.Duration(t.SampleRate)
}

// Peak returns the largest absolute sample.
func (t Tone) Peak() float64 {
	var peak float64
	for _, s := range t.Samples {
		peak = math.Max(peak, math.Abs(float64(s)))
	}
	return peak
}

// biquad is a direct form I second-order section.
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// newBandPass builds a constant 0 dB peak gain band-pass (RBJ cookbook).
func newBandPass(f0, q, fs float64) *biquad {
	if q <= 0 {
		q = 1
	}
	w0 := 2 * math.Pi * f0 / fs
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	return &biquad{
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * math.Cos(w0) / a0,
		a2: (1 - alpha) / a0,
	}
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}
