// Package announce speaks milestone counts through a TTS provider.
//
// At most one announcement is in flight at any time. A Trigger that
// arrives while another announcement is running is dropped, not queued.
package announce

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-strum/pkg/audioio"
	"github.com/teslashibe/go-strum/pkg/tts"
)

// DefaultEvery is the milestone step.
const DefaultEvery = 100

// Utterance is the default text for a count: "100!".
func Utterance(count int) string {
	return fmt.Sprintf("%d!", count)
}

// NextMilestone reports the highest multiple of every in (prev, next].
// It returns false when the count did not cross one.
func NextMilestone(prev, next, every int) (int, bool) {
	if every <= 0 || next <= prev {
		return 0, false
	}
	m := next - next%every
	if m <= prev || m <= 0 {
		return 0, false
	}
	return m, true
}

// Config configures an Announcer.
type Config struct {
	// Provider synthesizes speech. Nil disables announcements.
	Provider tts.Provider

	// Output plays the decoded speech.
	Output audioio.Output

	// Timeout bounds a whole announcement.
	Timeout time.Duration

	// Text builds the utterance for a count. Default: Utterance.
	Text func(count int) string

	Logger *slog.Logger
}

// Result is passed to OnComplete handlers after every announcement.
type Result struct {
	Count    int           `json:"count"`
	Text     string        `json:"text"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

// Stats counts announcer activity.
type Stats struct {
	Triggered uint64 `json:"triggered"`
	Dropped   uint64 `json:"dropped"`
	Succeeded uint64 `json:"succeeded"`
	Failed    uint64 `json:"failed"`
}

// Announcer gates speech so only one announcement runs at a time.
type Announcer struct {
	cfg    Config
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	inFlight atomic.Bool

	// mu guards closed and handlers. Trigger holds it across the closed
	// check and wg.Add so Close never waits on a counter that can still grow.
	mu       sync.Mutex
	closed   bool
	handlers []func(Result)

	triggered atomic.Uint64
	dropped   atomic.Uint64
	succeeded atomic.Uint64
	failed    atomic.Uint64
}

// New creates an Announcer.
func New(cfg Config) *Announcer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Text == nil {
		cfg.Text = Utterance
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Announcer{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "announce.announcer"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Enabled reports whether a provider is configured.
func (a *Announcer) Enabled() bool {
	return a.cfg.Provider != nil
}

// OnComplete registers a handler run after each announcement finishes,
// successfully or not. InFlight is already false when it runs.
func (a *Announcer) OnComplete(fn func(Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers = append(a.handlers, fn)
}

// Trigger starts announcing count in the background and returns true, or
// returns false without doing anything if an announcement is already in
// flight, no provider is configured, or the announcer is closed.
// It never blocks.
func (a *Announcer) Trigger(count int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cfg.Provider == nil || a.closed {
		return false
	}
	if !a.inFlight.CompareAndSwap(false, true) {
		a.dropped.Add(1)
		a.logger.Debug("announcement in flight, dropping", "count", count)
		return false
	}
	a.triggered.Add(1)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		start := time.Now()
		text := a.cfg.Text(count)

		err := a.run(count, text)
		a.inFlight.Store(false)

		res := Result{Count: count, Text: text, Err: err, Duration: time.Since(start)}
		if err != nil {
			a.failed.Add(1)
			a.logger.Warn("announcement failed", "count", count, "transient", tts.IsTransient(err), "error", err)
		} else {
			a.succeeded.Add(1)
			a.logger.Info("announced milestone", "count", count, "duration_ms", res.Duration.Milliseconds())
		}

		a.mu.Lock()
		handlers := append([]func(Result){}, a.handlers...)
		a.mu.Unlock()
		for _, h := range handlers {
			h(res)
		}
	}()
	return true
}

// InFlight reports whether an announcement is running.
func (a *Announcer) InFlight() bool {
	return a.inFlight.Load()
}

// Stats returns the activity counters.
func (a *Announcer) Stats() Stats {
	return Stats{
		Triggered: a.triggered.Load(),
		Dropped:   a.dropped.Load(),
		Succeeded: a.succeeded.Load(),
		Failed:    a.failed.Load(),
	}
}

// Wait blocks until no announcement is running.
func (a *Announcer) Wait() {
	a.wg.Wait()
}

// Close cancels a running announcement and waits for it to finish.
func (a *Announcer) Close() error {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.cancel()
	a.wg.Wait()
	return nil
}

func (a *Announcer) run(count int, text string) error {
	ctx, cancel := context.WithTimeout(a.ctx, a.cfg.Timeout)
	defer cancel()

	res, err := a.cfg.Provider.Synthesize(ctx, text)
	if err != nil {
		return &Error{Stage: StageSynthesize, Count: count, Err: err}
	}

	out := a.cfg.Output
	if out == nil {
		return &Error{Stage: StagePlay, Count: count, Err: ErrNoOutput}
	}
	oc := out.Config()

	chunk, err := Decode(res, oc.SampleRate, oc.Channels)
	if err != nil {
		return &Error{Stage: StageDecode, Count: count, Err: err}
	}
	a.logger.Debug("speech decoded",
		"count", count,
		"duration_ms", chunk.Duration().Milliseconds(),
		"peak", audioio.PeakLevel(chunk.Samples),
	)

	if err := play(ctx, out, chunk); err != nil {
		return &Error{Stage: StagePlay, Count: count, Err: err}
	}
	return nil
}

func play(ctx context.Context, out audioio.Output, chunk audioio.AudioChunk) error {
	if out.State() == audioio.StateSuspended {
		if err := out.Resume(ctx); err != nil {
			return fmt.Errorf("resume output: %w", err)
		}
	}
	if err := out.Write(ctx, chunk); err != nil {
		return err
	}
	return out.Flush(ctx)
}
