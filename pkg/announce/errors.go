package announce

import (
	"errors"
	"fmt"
)

var (
	// ErrAnnouncementFailed matches every *Error via errors.Is.
	ErrAnnouncementFailed = errors.New("announce: announcement failed")

	// ErrUnsupportedEncoding is returned by Decode for compressed audio.
	ErrUnsupportedEncoding = errors.New("announce: unsupported audio encoding")

	// ErrEmptyAudio is returned by Decode when the provider sent nothing.
	ErrEmptyAudio = errors.New("announce: empty audio")

	// ErrNoOutput is returned when there is no audio output to play on.
	ErrNoOutput = errors.New("announce: no audio output")
)

// Stage names the step of an announcement that failed.
type Stage string

const (
	StageSynthesize Stage = "synthesize"
	StageDecode     Stage = "decode"
	StagePlay       Stage = "play"
)

// Error describes a failed announcement.
type Error struct {
	Stage Stage
	Count int
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("announce %d: %s: %v", e.Count, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match against ErrAnnouncementFailed.
func (e *Error) Is(target error) bool {
	return target == ErrAnnouncementFailed
}
