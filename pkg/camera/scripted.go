package camera

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/go-strum/pkg/motion"
)

// FrameFunc produces frame i, or false when the script has ended.
type FrameFunc func(i int) (motion.Frame, bool)

// ScriptedSource plays back generated frames. Used by tests and demo mode.
type ScriptedSource struct {
	name    string
	next    FrameFunc
	openErr error

	mu     sync.Mutex
	open   bool
	index  int
	opened int
}

var _ Source = (*ScriptedSource)(nil)

// NewScriptedSource plays frames in order, once.
func NewScriptedSource(frames []motion.Frame) *ScriptedSource {
	return NewGeneratedSource("scripted", func(i int) (motion.Frame, bool) {
		if i >= len(frames) {
			return motion.Frame{}, false
		}
		return frames[i], true
	})
}

// NewGeneratedSource plays frames produced by fn.
func NewGeneratedSource(name string, fn FrameFunc) *ScriptedSource {
	return &ScriptedSource{name: name, next: fn}
}

// FailOpen makes the next Open calls return err.
func (s *ScriptedSource) FailOpen(err error) *ScriptedSource {
	s.mu.Lock()
	s.openErr = err
	s.mu.Unlock()
	return s
}

// Name returns the source name.
func (s *ScriptedSource) Name() string { return s.name }

// Open rewinds the script.
func (s *ScriptedSource) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.open = true
	s.index = 0
	s.opened++
	return nil
}

// NextFrame returns the next scripted frame with a fresh timestamp if it
// has none.
func (s *ScriptedSource) NextFrame() (motion.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return motion.Frame{}, false
	}
	f, ok := s.next(s.index)
	if !ok {
		return motion.Frame{}, false
	}
	s.index++
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now()
	}
	return f, true
}

// Close stops playback.
func (s *ScriptedSource) Close() error {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
	return nil
}

// Served returns how many frames were delivered since the last Open.
func (s *ScriptedSource) Served() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// Opens returns how many times Open succeeded.
func (s *ScriptedSource) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opened
}

// StrumPattern returns a generator for a synthetic strumming hand: a bright
// vertical bar inside the detection region that jumps sideways every
// `every` frames and stays still in between. Frames never run out.
func StrumPattern(width, height, every int) FrameFunc {
	if every < 1 {
		every = 1
	}
	still := motion.NewFrame(width, height)
	left := barFrame(width, height, width*2/5)
	right := barFrame(width, height, width*3/5)

	return func(i int) (motion.Frame, bool) {
		if i%every != 0 {
			return still, true
		}
		if (i/every)%2 == 0 {
			return left, true
		}
		return right, true
	}
}

func barFrame(width, height, cx int) motion.Frame {
	f := motion.NewFrame(width, height)
	half := width / 20
	if half < 1 {
		half = 1
	}
	for y := height / 4; y < height*3/4; y++ {
		for x := cx - half; x <= cx+half; x++ {
			if x >= 0 && x < width {
				f.SetGray(x, y, 255)
			}
		}
	}
	return f
}
