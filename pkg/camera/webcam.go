package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-strum/pkg/motion"
)

// Webcam captures frames from a local device through OpenCV.
type Webcam struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	capture *gocv.VideoCapture
	raw     gocv.Mat
	frames  uint64
	dropped uint64
}

var _ Source = (*Webcam)(nil)

// NewWebcam creates a webcam source. Nothing is opened until Open.
func NewWebcam(cfg Config, logger *slog.Logger) *Webcam {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webcam{
		cfg:    cfg,
		logger: logger.With("component", "camera.webcam"),
	}
}

// Name identifies the device.
func (w *Webcam) Name() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.nameLocked()
}

func (w *Webcam) nameLocked() string {
	return fmt.Sprintf("webcam:%d", w.cfg.DeviceID)
}

// Open acquires the device and applies resolution and frame rate.
// Any failure is a *CaptureError.
func (w *Webcam) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capture != nil {
		return nil
	}
	return w.openLocked()
}

// Reconfigure applies cfg. An open device is reopened with the new
// settings; a closed one picks them up on the next Open.
func (w *Webcam) Reconfigure(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: invalid config: %v", errs)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.cfg = cfg
	if w.capture == nil {
		return nil
	}
	w.closeLocked()
	return w.openLocked()
}

// Config returns the current configuration.
func (w *Webcam) Config() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cfg
}

func (w *Webcam) openLocked() error {
	device := w.nameLocked()
	if runtime.GOOS == "linux" {
		path := fmt.Sprintf("/dev/video%d", w.cfg.DeviceID)
		if _, err := os.Stat(path); err != nil {
			kind := KindNotFound
			if errors.Is(err, os.ErrPermission) {
				kind = KindDenied
			}
			return &CaptureError{Kind: kind, Device: device, Err: err}
		}
	}

	vc, err := gocv.OpenVideoCapture(w.cfg.DeviceID)
	if err != nil {
		return &CaptureError{Kind: ClassifyError(err), Device: device, Err: err}
	}
	if !vc.IsOpened() {
		vc.Close()
		return &CaptureError{Kind: KindBusy, Device: device, Err: errors.New("device could not be opened")}
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(w.cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(w.cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(w.cfg.Framerate))

	w.capture = vc
	w.raw = gocv.NewMat()

	w.logger.Info("camera opened",
		"device", device,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
		"fps", vc.Get(gocv.VideoCaptureFPS),
		"mirror", w.cfg.Mirror,
	)
	return nil
}

// NextFrame reads one frame and converts it to RGBA at the processing size.
// An empty read reports no frame.
func (w *Webcam) NextFrame() (motion.Frame, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capture == nil {
		return motion.Frame{}, false
	}

	if ok := w.capture.Read(&w.raw); !ok || w.raw.Empty() {
		w.dropped++
		return motion.Frame{}, false
	}
	ts := time.Now()

	frame, err := w.convert(w.raw)
	if err != nil {
		w.dropped++
		w.logger.Debug("frame conversion failed", "error", err)
		return motion.Frame{}, false
	}
	frame.Timestamp = ts
	w.frames++
	return frame, true
}

func (w *Webcam) convert(src gocv.Mat) (motion.Frame, error) {
	work := src

	if w.cfg.Mirror {
		flipped := gocv.NewMat()
		defer flipped.Close()
		if err := gocv.Flip(work, &flipped, 1); err != nil {
			return motion.Frame{}, fmt.Errorf("flip: %w", err)
		}
		work = flipped
	}

	pw, ph := w.cfg.ProcessSize()
	if pw > 0 && ph > 0 && (work.Cols() != pw || work.Rows() != ph) {
		resized := gocv.NewMat()
		defer resized.Close()
		if err := gocv.Resize(work, &resized, image.Pt(pw, ph), 0, 0, gocv.InterpolationArea); err != nil {
			return motion.Frame{}, fmt.Errorf("resize: %w", err)
		}
		work = resized
	}

	rgba := gocv.NewMat()
	defer rgba.Close()
	if err := gocv.CvtColor(work, &rgba, gocv.ColorBGRToRGBA); err != nil {
		return motion.Frame{}, fmt.Errorf("convert color: %w", err)
	}

	f := motion.Frame{
		Width:  rgba.Cols(),
		Height: rgba.Rows(),
		Pix:    rgba.ToBytes(),
	}
	if !f.Valid() {
		return motion.Frame{}, fmt.Errorf("unexpected frame layout %dx%d (%d bytes)", f.Width, f.Height, len(f.Pix))
	}
	return f, nil
}

// Stats returns frames delivered and reads that yielded nothing.
func (w *Webcam) Stats() (frames, dropped uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames, w.dropped
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.capture == nil {
		return nil
	}
	return w.closeLocked()
}

func (w *Webcam) closeLocked() error {
	w.raw.Close()
	err := w.capture.Close()
	w.capture = nil
	w.logger.Info("camera closed", "frames", w.frames, "dropped", w.dropped)
	return err
}
