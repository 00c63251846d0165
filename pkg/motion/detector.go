package motion

import (
	"math"
	"sync"
	"time"
)

// State is the detector's position in its Idle/Armed lifecycle.
type State int

const (
	// StateIdle means no previous frame is held; the next frame only primes.
	StateIdle State = iota
	// StateArmed means each new frame is compared with the previous one.
	StateArmed
)

func (s State) String() string {
	if s == StateArmed {
		return "armed"
	}
	return "idle"
}

// StrumEvent is emitted once per recognized strum.
type StrumEvent struct {
	At         time.Time `json:"at"`
	Score      float64   `json:"score"` // mean change of moving pixels
	Horizontal float64   `json:"horizontal"`
	Vertical   float64   `json:"vertical"`
	Pixels     int       `json:"pixels"`
}

// Analysis is the raw motion signal between two frames.
type Analysis struct {
	MotionScore   float64
	Horizontal    float64
	Vertical      float64
	PixelsChecked int
}

// Mean returns MotionScore / PixelsChecked, or 0 when nothing moved.
func (a Analysis) Mean() float64 {
	if a.PixelsChecked == 0 {
		return 0
	}
	return a.MotionScore / float64(a.PixelsChecked)
}

// IsStrum applies the classification rule: predominantly horizontal
// motion whose mean magnitude exceeds sensitivity.
func (a Analysis) IsStrum(sensitivity float64) bool {
	if a.PixelsChecked == 0 {
		return false
	}
	return a.Horizontal > DirectionRatio*a.Vertical && a.Mean() > sensitivity
}

// Analyze compares two equally sized luminance buffers over the mask.
// Gradients are only accumulated for pixels above the noise floor.
func Analyze(prev, cur []float32, width int, mask *ROIMask) Analysis {
	var a Analysis
	n := len(cur)
	if len(prev) != n || mask == nil {
		return a
	}

	for _, i := range mask.Indices {
		c := cur[i]
		diff := absf(c - prev[i])
		if diff <= NoiseFloor {
			continue
		}
		a.MotionScore += float64(diff)
		a.PixelsChecked++

		if i+1 < n {
			a.Horizontal += float64(absf(cur[i+1] - c))
		}
		if i+width < n {
			a.Vertical += float64(absf(cur[i+width] - c))
		}
	}
	return a
}

// DetectorStats is a snapshot of detector counters.
type DetectorStats struct {
	Frames     uint64 `json:"frames"`
	Detections uint64 `json:"detections"`
	MaskBuilds uint64 `json:"mask_builds"`
	State      string `json:"state"`
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock sets the time source used for frames without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

// Detector turns frames into debounced strum events. It is safe for
// concurrent use, though frames are expected from a single loop.
type Detector struct {
	mu  sync.Mutex
	cfg Config
	now func() time.Time

	mask    *ROIMask
	prev    []float32
	spare   []float32
	hasPrev bool

	lastDetection time.Time

	frames     uint64
	detections uint64
	maskBuilds uint64
}

// NewDetector creates a detector in the Idle state.
func NewDetector(cfg Config, opts ...Option) *Detector {
	d := &Detector{
		cfg: cfg,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ProcessFrame feeds one frame and reports whether it completed a strum.
// Invalid frames are ignored and leave the state untouched.
func (d *Detector) ProcessFrame(f Frame) (StrumEvent, bool) {
	if !f.Valid() {
		return StrumEvent{}, false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.frames++

	if !d.mask.Matches(f.Width, f.Height) {
		d.mask = NewROIMask(f.Width, f.Height)
		d.maskBuilds++
		// A buffer of the old size cannot be compared pixel for pixel.
		d.hasPrev = false
	}

	cur := grayscaleSpan(f, d.spare, d.mask).Lum

	if !d.hasPrev {
		d.spare, d.prev = d.prev, cur
		d.hasPrev = true
		return StrumEvent{}, false
	}

	a := Analyze(d.prev, cur, f.Width, d.mask)
	d.spare, d.prev = d.prev, cur

	if !a.IsStrum(d.cfg.Sensitivity) {
		return StrumEvent{}, false
	}

	now := f.Timestamp
	if now.IsZero() {
		now = d.now()
	}
	if !d.lastDetection.IsZero() && now.Sub(d.lastDetection) < d.cfg.Cooldown {
		return StrumEvent{}, false
	}
	d.lastDetection = now
	d.detections++

	return StrumEvent{
		At:         now,
		Score:      a.Mean(),
		Horizontal: a.Horizontal,
		Vertical:   a.Vertical,
		Pixels:     a.PixelsChecked,
	}, true
}

// Reset returns the detector to Idle: the previous frame is dropped and
// the cooldown timestamp zeroed. The ROI mask is kept.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hasPrev = false
	d.lastDetection = time.Time{}
}

// State returns Idle or Armed.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasPrev {
		return StateArmed
	}
	return StateIdle
}

// Config returns the current configuration.
func (d *Detector) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// SetSensitivity updates the mean-change threshold.
func (d *Detector) SetSensitivity(v float64) {
	d.mu.Lock()
	d.cfg.Sensitivity = math.Max(0, v)
	d.mu.Unlock()
}

// SetCooldown updates the minimum time between detections.
func (d *Detector) SetCooldown(c time.Duration) {
	if c < 0 {
		c = 0
	}
	d.mu.Lock()
	d.cfg.Cooldown = c
	d.mu.Unlock()
}

// Stats returns a snapshot of the detector counters.
func (d *Detector) Stats() DetectorStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	state := StateIdle
	if d.hasPrev {
		state = StateArmed
	}
	return DetectorStats{
		Frames:     d.frames,
		Detections: d.detections,
		MaskBuilds: d.maskBuilds,
		State:      state.String(),
	}
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
