package camera

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCaptureUnavailable matches every *CaptureError via errors.Is.
var ErrCaptureUnavailable = errors.New("camera: capture unavailable")

// ErrNotOpen is returned when reading from a source that is not open.
var ErrNotOpen = errors.New("camera: source not open")

// ErrorKind classifies why capture could not start.
type ErrorKind string

const (
	KindDenied   ErrorKind = "denied"    // permission refused
	KindNotFound ErrorKind = "not_found" // no such device
	KindBusy     ErrorKind = "busy"      // device in use or unreadable
	KindUnknown  ErrorKind = "unknown"
)

// CaptureError reports a camera that could not be opened.
// It is returned to the caller and never retried internally.
type CaptureError struct {
	Kind   ErrorKind
	Device string
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("camera %s: capture unavailable (%s)", e.Device, e.Kind)
	}
	return fmt.Sprintf("camera %s: capture unavailable (%s): %v", e.Device, e.Kind, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Is reports a match against ErrCaptureUnavailable.
func (e *CaptureError) Is(target error) bool {
	return target == ErrCaptureUnavailable
}

// ClassifyError guesses the kind of an open failure from its message.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "not permitted"),
		strings.Contains(msg, "denied"), strings.Contains(msg, "not allowed"):
		return KindDenied
	case strings.Contains(msg, "no such"), strings.Contains(msg, "not found"),
		strings.Contains(msg, "does not exist"):
		return KindNotFound
	case strings.Contains(msg, "busy"), strings.Contains(msg, "in use"),
		strings.Contains(msg, "not readable"):
		return KindBusy
	}
	return KindUnknown
}
