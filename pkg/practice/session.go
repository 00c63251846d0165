package practice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-strum/pkg/announce"
	"github.com/teslashibe/go-strum/pkg/camera"
	"github.com/teslashibe/go-strum/pkg/metronome"
	"github.com/teslashibe/go-strum/pkg/motion"
)

// State is the session lifecycle state.
type State string

const (
	StateIdle               State = "idle"
	StateRunning            State = "running"
	StateCaptureUnavailable State = "capture_unavailable"
	StateClosed             State = "closed"
)

// Strum is delivered to OnStrumDetected handlers.
type Strum struct {
	SessionID string            `json:"session_id"`
	Count     int               `json:"count"`
	Event     motion.StrumEvent `json:"event"`
}

// Milestone is delivered to OnMilestone handlers when the count crosses a
// milestone. Announced is false when the announcement was dropped.
type Milestone struct {
	SessionID string `json:"session_id"`
	Count     int    `json:"count"`
	Announced bool   `json:"announced"`
}

// Status is a snapshot of the session.
type Status struct {
	SessionID    string        `json:"session_id,omitempty"`
	State        State         `json:"state"`
	Count        int           `json:"count"`
	BPM          int           `json:"bpm"`
	Sensitivity  float64       `json:"sensitivity"`
	Cooldown     time.Duration `json:"cooldown"`
	SoundEnabled bool          `json:"sound_enabled"`
	Source       string        `json:"source"`
	StartedAt    time.Time     `json:"started_at,omitzero"`
	Error        string        `json:"error,omitempty"`

	Detector   motion.DetectorStats `json:"detector"`
	Metronome  metronome.Stats      `json:"metronome"`
	Announcer  announce.Stats       `json:"announcer"`
	Announcing bool                 `json:"announcing"`
}

// Session counts strums from one frame source. Handlers run on the frame
// loop or the metronome timer and must not call Start, Stop or Close.
type Session struct {
	cfg    Config
	src    camera.Source
	logger *slog.Logger

	detector  *motion.Detector
	metronome *metronome.Scheduler
	announcer *announce.Announcer

	// lifecycle serializes Start, Stop and Close.
	lifecycle sync.Mutex

	mu        sync.Mutex
	state     State
	id        string
	count     int
	startedAt time.Time
	lastErr   error
	cancel    context.CancelFunc
	loopDone  chan struct{}

	hmu               sync.Mutex
	strumHandlers     []func(Strum)
	milestoneHandlers []func(Milestone)
	stateHandlers     []func(Status)
}

// New wires a session. Nothing runs until Start.
func New(cfg Config, deps Deps) (*Session, error) {
	if deps.Source == nil {
		return nil, ErrNoSource
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.FrameInterval == 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	cfg.BPM = metronome.ClampBPM(cfg.BPM)

	mcfg := metronome.DefaultConfig()
	mcfg.BPM = cfg.BPM
	mcfg.SoundEnabled = cfg.SoundEnabled
	mcfg.BeatsPerBar = cfg.BeatsPerBar
	mcfg.Output = deps.Output
	mcfg.Clock = deps.Clock
	mcfg.Logger = cfg.Logger

	s := &Session{
		cfg:    cfg,
		src:    deps.Source,
		logger: cfg.Logger.With("component", "practice.session"),
		detector: motion.NewDetector(motion.Config{
			Sensitivity: cfg.Sensitivity,
			Cooldown:    cfg.Cooldown,
		}),
		metronome: metronome.New(mcfg),
		announcer: announce.New(announce.Config{
			Provider: deps.Speech,
			Output:   deps.Output,
			Timeout:  cfg.AnnouncementTimeout,
			Logger:   cfg.Logger,
		}),
		state: StateIdle,
	}
	return s, nil
}

// OnStrumDetected registers a handler for every counted strum.
func (s *Session) OnStrumDetected(fn func(Strum)) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.strumHandlers = append(s.strumHandlers, fn)
}

// OnMilestone registers a handler for milestone crossings.
func (s *Session) OnMilestone(fn func(Milestone)) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.milestoneHandlers = append(s.milestoneHandlers, fn)
}

// OnStateChange registers a handler for lifecycle transitions.
func (s *Session) OnStateChange(fn func(Status)) {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.stateHandlers = append(s.stateHandlers, fn)
}

// OnBeat registers a handler for every metronome tick.
func (s *Session) OnBeat(fn func(metronome.Beat)) {
	s.metronome.OnBeat(fn)
}

// OnAnnouncement registers a handler run after each announcement ends.
func (s *Session) OnAnnouncement(fn func(announce.Result)) {
	s.announcer.OnComplete(fn)
}

// Start opens the source, resets the count and starts the frame loop and
// the metronome under a new session ID. ctx bounds opening the source
// only; the session runs until Stop or Close.
//
// A source that cannot be opened leaves the session in
// StateCaptureUnavailable and returns the *camera.CaptureError. It is not
// retried. Starting a running session is a no-op.
func (s *Session) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	switch s.state {
	case StateRunning:
		s.mu.Unlock()
		return nil
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	if err := s.src.Open(ctx); err != nil {
		s.mu.Lock()
		s.state = StateCaptureUnavailable
		s.lastErr = err
		s.mu.Unlock()
		s.logger.Error("capture unavailable", "source", s.src.Name(), "error", err)
		s.emitState()
		return fmt.Errorf("practice: start: %w", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.state = StateRunning
	s.id = uuid.NewString()
	s.count = 0
	s.startedAt = time.Now()
	s.lastErr = nil
	s.cancel = cancel
	s.loopDone = done
	id := s.id
	s.mu.Unlock()

	s.detector.Reset()
	go s.frameLoop(loopCtx, done)

	if err := s.metronome.Start(); err != nil {
		s.logger.Warn("metronome not started", "error", err)
	}

	s.logger.Info("session started", "session_id", id, "source", s.src.Name(), "bpm", s.metronome.BPM())
	s.emitState()
	return nil
}

// Stop ends the frame loop and the metronome and releases the source.
// The count is kept until the next Start. No strum or beat handler runs
// after Stop returns.
func (s *Session) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stop()
}

func (s *Session) stop() {
	s.mu.Lock()
	if s.state != StateRunning {
		if s.state == StateCaptureUnavailable {
			s.state = StateIdle
		}
		s.mu.Unlock()
		return
	}
	s.state = StateIdle
	cancel, done := s.cancel, s.loopDone
	s.cancel, s.loopDone = nil, nil
	id, count := s.id, s.count
	s.mu.Unlock()

	cancel()
	<-done
	s.detector.Reset()
	s.metronome.Stop()

	if err := s.src.Close(); err != nil {
		s.logger.Warn("source close failed", "error", err)
	}

	s.logger.Info("session stopped", "session_id", id, "count", count)
	s.emitState()
}

// Close stops the session and releases the metronome and the announcer.
func (s *Session) Close() error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.stop()

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosed
	s.mu.Unlock()

	s.metronome.Close()
	return s.announcer.Close()
}

// SetBPM clamps and applies the tempo. Returns the tempo in effect.
func (s *Session) SetBPM(n int) int {
	bpm := s.metronome.SetBPM(n)
	s.mu.Lock()
	s.cfg.BPM = bpm
	s.mu.Unlock()
	return bpm
}

// SetSensitivity sets the detection threshold (0-255).
func (s *Session) SetSensitivity(v float64) error {
	if err := (motion.Config{Sensitivity: v}).Validate(); err != nil {
		return err
	}
	s.detector.SetSensitivity(v)
	s.mu.Lock()
	s.cfg.Sensitivity = v
	s.mu.Unlock()
	return nil
}

// SetCooldown sets the minimum time between counted strums.
func (s *Session) SetCooldown(d time.Duration) error {
	if err := (motion.Config{Cooldown: d}).Validate(); err != nil {
		return err
	}
	s.detector.SetCooldown(d)
	s.mu.Lock()
	s.cfg.Cooldown = d
	s.mu.Unlock()
	return nil
}

// SetSoundEnabled toggles metronome clicks.
func (s *Session) SetSoundEnabled(on bool) {
	s.metronome.SetSoundEnabled(on)
	s.mu.Lock()
	s.cfg.SoundEnabled = on
	s.mu.Unlock()
}

// Count returns the strums counted in the current or last session.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot of the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	st := Status{
		SessionID:    s.id,
		State:        s.state,
		Count:        s.count,
		BPM:          s.cfg.BPM,
		Sensitivity:  s.cfg.Sensitivity,
		Cooldown:     s.cfg.Cooldown,
		SoundEnabled: s.cfg.SoundEnabled,
		Source:       s.src.Name(),
		StartedAt:    s.startedAt,
	}
	if s.lastErr != nil {
		st.Error = s.lastErr.Error()
	}
	s.mu.Unlock()

	st.Detector = s.detector.Stats()
	st.Metronome = s.metronome.Stats()
	st.Announcer = s.announcer.Stats()
	st.Announcing = s.announcer.InFlight()
	return st
}

func (s *Session) frameLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, ok := s.src.NextFrame()
			if !ok {
				continue
			}
			if ev, ok := s.detector.ProcessFrame(frame); ok {
				s.countStrum(ev)
			}
		}
	}
}

func (s *Session) countStrum(ev motion.StrumEvent) {
	s.mu.Lock()
	prev := s.count
	s.count++
	count, id := s.count, s.id
	every := s.cfg.MilestoneEvery
	s.mu.Unlock()

	s.logger.Debug("strum", "count", count, "score", ev.Score)

	s.hmu.Lock()
	strumHandlers := append([]func(Strum){}, s.strumHandlers...)
	milestoneHandlers := append([]func(Milestone){}, s.milestoneHandlers...)
	s.hmu.Unlock()

	for _, h := range strumHandlers {
		h(Strum{SessionID: id, Count: count, Event: ev})
	}

	m, ok := announce.NextMilestone(prev, count, every)
	if !ok {
		return
	}
	announced := s.announcer.Trigger(m)
	s.logger.Info("milestone reached", "count", m, "announced", announced)
	for _, h := range milestoneHandlers {
		h(Milestone{SessionID: id, Count: m, Announced: announced})
	}
}

func (s *Session) emitState() {
	st := s.Status()
	s.hmu.Lock()
	handlers := append([]func(Status){}, s.stateHandlers...)
	s.hmu.Unlock()
	for _, h := range handlers {
		h(st)
	}
}
