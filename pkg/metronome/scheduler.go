// Package metronome runs the beat timer and renders the click it plays.
//
// The scheduler re-arms a one-shot timer after every tick. Re-arming
// relative to the tick that just fired lets scheduling jitter accumulate
// as drift over long sessions; for a practice metronome at 30-240 bpm
// that drift is inaudible and the simple model is kept.
package metronome

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-strum/pkg/audioio"
)

// Tempo limits.
const (
	MinBPM     = 30
	MaxBPM     = 240
	DefaultBPM = 60
	// BPMStep is the increment used by tempo controls.
	BPMStep = 5
)

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("metronome: scheduler closed")

// ClampBPM limits n to [MinBPM, MaxBPM].
func ClampBPM(n int) int {
	return min(max(n, MinBPM), MaxBPM)
}

// Period returns the beat interval for a tempo.
func Period(bpm int) time.Duration {
	return time.Minute / time.Duration(ClampBPM(bpm))
}

// Beat is delivered to OnBeat handlers on every tick.
type Beat struct {
	// Index counts ticks since Start, starting at 0.
	Index   uint64    `json:"index"`
	At      time.Time `json:"at"`
	BPM     int       `json:"bpm"`
	Audible bool      `json:"audible"`
	Accent  bool      `json:"accent"`
}

// Config configures a Scheduler.
type Config struct {
	BPM          int
	SoundEnabled bool

	// BeatsPerBar accents every Nth beat starting with the first.
	// 0 disables accents.
	BeatsPerBar int

	Tick   TickParams
	Accent TickParams

	// Output receives clicks. Nil makes the scheduler silent.
	Output audioio.Output

	// ResumeTimeout bounds resume and write of a single click.
	ResumeTimeout time.Duration

	// QueueSize is the number of clicks that may wait for the player.
	// Further clicks are dropped rather than delaying the timer.
	QueueSize int

	Clock  Clock
	Logger *slog.Logger
}

// DefaultConfig returns 60 bpm with sound on.
func DefaultConfig() Config {
	return Config{
		BPM:           DefaultBPM,
		SoundEnabled:  true,
		Tick:          DefaultTick(),
		Accent:        AccentTick(),
		ResumeTimeout: 500 * time.Millisecond,
		QueueSize:     4,
	}
}

// Stats counts scheduler activity.
type Stats struct {
	Beats        uint64 `json:"beats"`
	TonesPlayed  uint64 `json:"tones_played"`
	TonesSkipped uint64 `json:"tones_skipped"`
	TonesDropped uint64 `json:"tones_dropped"`
}

// Status is a snapshot of the scheduler's state.
type Status struct {
	Active       bool  `json:"active"`
	BPM          int   `json:"bpm"`
	SoundEnabled bool  `json:"sound_enabled"`
	Stats        Stats `json:"stats"`
}

type toneRequest struct {
	accent     bool
	resumeOnly bool
}

// Scheduler drives beats at a configurable tempo.
//
// OnBeat handlers run on the timer goroutine (or on the caller of Start
// and SetBPM for the immediate tick). They must not call Start, Stop or
// SetBPM synchronously.
type Scheduler struct {
	cfg    Config
	clock  Clock
	out    audioio.Output
	logger *slog.Logger

	normal audioio.AudioChunk
	accent audioio.AudioChunk

	mu       sync.Mutex
	bpm      int
	active   bool
	sound    bool
	closed   bool
	gen      uint64
	index    uint64
	timer    Timer
	handlers []func(Beat)

	// dispatchMu is held for the whole of a tick so Stop can wait for an
	// in-progress tick to finish.
	dispatchMu sync.Mutex

	tones     chan toneRequest
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	beats        atomic.Uint64
	tonesPlayed  atomic.Uint64
	tonesSkipped atomic.Uint64
	tonesDropped atomic.Uint64
}

// New creates a stopped scheduler and starts its click player.
func New(cfg Config) *Scheduler {
	def := DefaultConfig()
	if cfg.Clock == nil {
		cfg.Clock = RealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Tick.SampleRate == 0 {
		cfg.Tick = def.Tick
	}
	if cfg.Accent.SampleRate == 0 {
		cfg.Accent = def.Accent
	}
	if cfg.ResumeTimeout <= 0 {
		cfg.ResumeTimeout = def.ResumeTimeout
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.BPM == 0 {
		cfg.BPM = DefaultBPM
	}
	if cfg.Output != nil {
		rate := cfg.Output.Config().SampleRate
		cfg.Tick.SampleRate = rate
		cfg.Accent.SampleRate = rate
	}

	s := &Scheduler{
		cfg:    cfg,
		clock:  cfg.Clock,
		out:    cfg.Output,
		logger: cfg.Logger.With("component", "metronome.scheduler"),
		normal: SynthesizeTone(cfg.Tick).Chunk(),
		accent: SynthesizeTone(cfg.Accent).Chunk(),
		bpm:    ClampBPM(cfg.BPM),
		sound:  cfg.SoundEnabled,
		tones:  make(chan toneRequest, cfg.QueueSize),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.playLoop()
	return s
}

// OnBeat registers a handler called on every tick, audible or not.
func (s *Scheduler) OnBeat(fn func(Beat)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

// Start begins ticking. The first beat fires before Start returns.
// Starting an active scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.active {
		s.mu.Unlock()
		return nil
	}
	s.active = true
	s.index = 0
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.logger.Debug("metronome started", "bpm", s.BPM())
	s.tick(gen)
	return nil
}

// Stop cancels the pending tick. Once Stop returns no further beat is
// delivered until the next Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	// Wait out a tick that passed its generation check before we bumped it.
	s.dispatchMu.Lock()
	s.dispatchMu.Unlock()

	s.logger.Debug("metronome stopped")
}

// SetBPM clamps n to the supported range and applies it. A running
// scheduler restarts its period with an immediate beat. Returns the tempo
// in effect.
func (s *Scheduler) SetBPM(n int) int {
	bpm := ClampBPM(n)

	s.mu.Lock()
	if bpm == s.bpm {
		s.mu.Unlock()
		return bpm
	}
	s.bpm = bpm
	if !s.active {
		s.mu.Unlock()
		return bpm
	}
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.tick(gen)
	return bpm
}

// BPM returns the current tempo.
func (s *Scheduler) BPM() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bpm
}

// SetSoundEnabled toggles clicks. Beats keep firing either way. Enabling
// sound also asks a suspended output to resume.
func (s *Scheduler) SetSoundEnabled(on bool) {
	s.mu.Lock()
	s.sound = on
	s.mu.Unlock()

	if on && s.out != nil && s.out.State() == audioio.StateSuspended {
		s.enqueue(toneRequest{resumeOnly: true})
	}
}

// SoundEnabled reports whether clicks are played.
func (s *Scheduler) SoundEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sound
}

// Active reports whether the scheduler is ticking.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Status returns a snapshot of the scheduler.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	st := Status{Active: s.active, BPM: s.bpm, SoundEnabled: s.sound}
	s.mu.Unlock()
	st.Stats = s.Stats()
	return st
}

// Stats returns the activity counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Beats:        s.beats.Load(),
		TonesPlayed:  s.tonesPlayed.Load(),
		TonesSkipped: s.tonesSkipped.Load(),
		TonesDropped: s.tonesDropped.Load(),
	}
}

// Close stops the scheduler and its player. The output is not closed.
func (s *Scheduler) Close() error {
	s.Stop()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
	return nil
}

func (s *Scheduler) tick(gen uint64) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	if !s.active || gen != s.gen {
		s.mu.Unlock()
		return
	}
	beat := Beat{
		Index:   s.index,
		At:      s.clock.Now(),
		BPM:     s.bpm,
		Audible: s.sound && s.out != nil,
		Accent:  s.cfg.BeatsPerBar > 0 && s.index%uint64(s.cfg.BeatsPerBar) == 0,
	}
	s.index++
	s.timer = s.clock.AfterFunc(Period(s.bpm), func() { s.tick(gen) })
	handlers := slices.Clone(s.handlers)
	s.mu.Unlock()

	s.beats.Add(1)
	if beat.Audible {
		s.enqueue(toneRequest{accent: beat.Accent})
	}
	for _, h := range handlers {
		h(beat)
	}
}

func (s *Scheduler) enqueue(req toneRequest) {
	select {
	case s.tones <- req:
	default:
		s.tonesDropped.Add(1)
		s.logger.Debug("click queue full, dropping")
	}
}

func (s *Scheduler) playLoop() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case req := <-s.tones:
			s.play(req)
		}
	}
}

func (s *Scheduler) play(req toneRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ResumeTimeout)
	defer cancel()

	switch s.out.State() {
	case audioio.StateClosed:
		s.skip(req)
		return
	case audioio.StateSuspended:
		if err := s.out.Resume(ctx); err != nil {
			s.logger.Warn("audio output suspended, skipping click", "error", err)
			s.skip(req)
			return
		}
	}
	if req.resumeOnly {
		return
	}

	chunk := s.normal
	if req.accent {
		chunk = s.accent
	}
	if err := s.out.Write(ctx, chunk); err != nil {
		s.logger.Warn("click write failed", "error", err)
		s.tonesSkipped.Add(1)
		return
	}
	if err := s.out.Flush(ctx); err != nil {
		s.logger.Debug("click flush failed", "error", err)
	}
	s.tonesPlayed.Add(1)
}

func (s *Scheduler) skip(req toneRequest) {
	if !req.resumeOnly {
		s.tonesSkipped.Add(1)
	}
}
