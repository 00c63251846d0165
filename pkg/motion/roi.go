package motion

import "math"

// Fractional bounds of the region of interest. The band excludes the
// head (top) and background (sides) where the strumming hand rarely is.
const (
	ROIStartX = 0.33
	ROIEndX   = 0.67
	ROIStartY = 0.20
	ROIEndY   = 0.80
)

// ROIMask marks the pixels eligible for motion analysis.
// Bounds are inclusive: x in [floor(0.33w), floor(0.67w)], y in
// [floor(0.20h), floor(0.80h)].
type ROIMask struct {
	Width  int
	Height int

	MinX, MaxX int
	MinY, MaxY int

	// Mask is true for pixels inside the region.
	Mask []bool

	// Indices lists the pixel indices where Mask is true, in row-major
	// order.
	Indices []int
}

// NewROIMask builds the mask for a frame of the given size.
func NewROIMask(width, height int) *ROIMask {
	m := &ROIMask{
		Width:  width,
		Height: height,
		MinX:   int(math.Floor(float64(width) * ROIStartX)),
		MaxX:   int(math.Floor(float64(width) * ROIEndX)),
		MinY:   int(math.Floor(float64(height) * ROIStartY)),
		MaxY:   int(math.Floor(float64(height) * ROIEndY)),
		Mask:   make([]bool, width*height),
	}
	m.MaxX = min(m.MaxX, width-1)
	m.MaxY = min(m.MaxY, height-1)

	for y := m.MinY; y <= m.MaxY; y++ {
		row := y * width
		for x := m.MinX; x <= m.MaxX; x++ {
			m.Mask[row+x] = true
			m.Indices = append(m.Indices, row+x)
		}
	}
	return m
}

// Matches reports whether the mask was built for these dimensions.
func (m *ROIMask) Matches(width, height int) bool {
	return m != nil && m.Width == width && m.Height == height
}

// Contains reports whether (x, y) lies inside the region.
func (m *ROIMask) Contains(x, y int) bool {
	return x >= m.MinX && x <= m.MaxX && y >= m.MinY && y <= m.MaxY
}

// ReadSpan returns the inclusive pixel rectangle Analyze reads: the region
// plus the column to its right and the row below it, clipped to the frame.
// When the region touches the right edge, the horizontal neighbour of its
// last column is the first pixel of the next row, so the span starts at x=0.
func (m *ROIMask) ReadSpan() (minX, maxX, minY, maxY int) {
	minX, maxX = m.MinX, m.MaxX+1
	if maxX >= m.Width {
		minX, maxX = 0, m.Width-1
	}
	return minX, maxX, m.MinY, min(m.MaxY+1, m.Height-1)
}

// Len returns the number of pixels inside the region.
func (m *ROIMask) Len() int {
	return len(m.Indices)
}
