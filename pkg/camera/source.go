package camera

import (
	"context"

	"github.com/teslashibe/go-strum/pkg/motion"
)

// Source yields frames for the detector.
type Source interface {
	// Open acquires the device. Failures are *CaptureError.
	Open(ctx context.Context) error

	// NextFrame returns the latest frame, or false when none is
	// available (not ready yet, or the source ended).
	NextFrame() (motion.Frame, bool)

	// Close releases the device. Safe to call more than once.
	Close() error

	// Name identifies the source in logs.
	Name() string
}
