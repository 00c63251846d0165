// Package motion turns successive RGBA video frames into debounced strum
// events.
//
// A Detector keeps the previous frame's luminance, compares it with the
// current frame inside a fixed region of interest, and recognizes a strum
// when the changed pixels move predominantly side to side. Vertical
// head or body motion of the same magnitude is rejected.
//
//	det := motion.NewDetector(motion.DefaultConfig())
//	for frame := range frames {
//	    if ev, ok := det.ProcessFrame(frame); ok {
//	        counter.Inc()
//	        _ = ev
//	    }
//	}
package motion

import "time"

// Luminance weights applied to R, G and B.
const (
	WeightR = 0.21
	WeightG = 0.72
	WeightB = 0.07
)

// Frame is one captured video frame.
type Frame struct {
	Width  int
	Height int

	// Pix holds 4 interleaved channels (R, G, B, A) per pixel, row-major.
	Pix []byte

	// Timestamp is the capture time. Zero means "use the detector clock".
	Timestamp time.Time
}

// NewFrame allocates a black, opaque frame.
func NewFrame(width, height int) Frame {
	pix := make([]byte, width*height*4)
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 255
	}
	return Frame{Width: width, Height: height, Pix: pix}
}

// Valid reports whether the frame has positive dimensions and a buffer
// large enough for them.
func (f Frame) Valid() bool {
	return f.Width > 0 && f.Height > 0 && len(f.Pix) >= f.Width*f.Height*4
}

// SetGray writes an opaque gray pixel at (x, y).
func (f Frame) SetGray(x, y int, v uint8) {
	i := (y*f.Width + x) * 4
	f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3] = v, v, v, 255
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	f.Pix = pix
	return f
}

// GrayBuffer holds one luminance value (0-255 scale) per pixel.
type GrayBuffer struct {
	Width  int
	Height int
	Lum    []float32
}

// Grayscale converts an RGBA frame to luminance using fixed weights.
func Grayscale(f Frame) GrayBuffer {
	return grayscaleInto(f, nil)
}

func luminance(pix []byte) float32 {
	return float32(WeightR*float64(pix[0]) + WeightG*float64(pix[1]) + WeightB*float64(pix[2]))
}

// grayscaleInto converts every pixel, reusing dst when it has enough capacity.
func grayscaleInto(f Frame, dst []float32) GrayBuffer {
	n := f.Width * f.Height
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = luminance(f.Pix[i*4:])
	}
	return GrayBuffer{Width: f.Width, Height: f.Height, Lum: dst}
}

// grayscaleSpan converts only the pixels inside m's read span, so the
// cost follows the region size rather than the frame size. The buffer is
// frame-sized; entries outside the span keep whatever dst held.
func grayscaleSpan(f Frame, dst []float32, m *ROIMask) GrayBuffer {
	n := f.Width * f.Height
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]

	minX, maxX, minY, maxY := m.ReadSpan()
	for y := minY; y <= maxY; y++ {
		row := y * f.Width
		for i := row + minX; i <= row+maxX; i++ {
			dst[i] = luminance(f.Pix[i*4:])
		}
	}
	return GrayBuffer{Width: f.Width, Height: f.Height, Lum: dst}
}
