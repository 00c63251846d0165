package motion

import (
	"math"
	"testing"
)

func TestGrayscale_Weights(t *testing.T) {
	f := NewFrame(2, 1)
	copy(f.Pix[0:4], []byte{100, 0, 0, 255})
	copy(f.Pix[4:8], []byte{10, 20, 30, 255})

	g := Grayscale(f)
	if g.Width != 2 || g.Height != 1 || len(g.Lum) != 2 {
		t.Fatalf("unexpected buffer shape: %dx%d len=%d", g.Width, g.Height, len(g.Lum))
	}

	tests := []struct {
		idx  int
		want float64
	}{
		{0, 21},                         // 0.21 * 100
		{1, 0.21*10 + 0.72*20 + 0.07*30}, // 18.6
	}
	for _, tc := range tests {
		if math.Abs(float64(g.Lum[tc.idx])-tc.want) > 1e-3 {
			t.Errorf("lum[%d] = %v, want %v", tc.idx, g.Lum[tc.idx], tc.want)
		}
	}
}

func TestGrayscale_IgnoresAlpha(t *testing.T) {
	a := NewFrame(1, 1)
	b := NewFrame(1, 1)
	copy(a.Pix, []byte{50, 60, 70, 0})
	copy(b.Pix, []byte{50, 60, 70, 255})

	if Grayscale(a).Lum[0] != Grayscale(b).Lum[0] {
		t.Error("alpha channel must not affect luminance")
	}
}

func TestFrame_Valid(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  bool
	}{
		{"ok", NewFrame(4, 4), true},
		{"zero width", Frame{Width: 0, Height: 4, Pix: make([]byte, 64)}, false},
		{"short buffer", Frame{Width: 4, Height: 4, Pix: make([]byte, 10)}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.frame.Valid(); got != tc.want {
				t.Errorf("Valid() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFrame_Clone(t *testing.T) {
	f := NewFrame(2, 2)
	c := f.Clone()
	c.SetGray(0, 0, 99)
	if f.Pix[0] == 99 {
		t.Error("clone shares pixel buffer with original")
	}
}

func TestGrayscaleSpan_SkipsPixelsOutsideReadSpan(t *testing.T) {
	const w, h = 320, 240
	f := NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f.SetGray(x, y, 200)
		}
	}
	m := NewROIMask(w, h)

	dst := make([]float32, w*h)
	for i := range dst {
		dst[i] = -1
	}
	g := grayscaleSpan(f, dst, m)

	converted := 0
	for _, v := range g.Lum {
		if v != -1 {
			converted++
		}
	}
	if want := (215 - 105 + 1) * (193 - 48 + 1); converted != want {
		t.Errorf("converted %d pixels, want %d (region plus right column and bottom row)", converted, want)
	}

	checks := []struct {
		x, y      int
		converted bool
	}{
		{105, 48, true},
		{215, 100, true},  // right neighbour column
		{150, 193, true},  // row below
		{104, 100, false}, // left of region
		{216, 100, false},
		{150, 47, false},
		{150, 194, false},
	}
	for _, c := range checks {
		v := g.Lum[c.y*w+c.x]
		if c.converted && math.Abs(float64(v)-200) > 1e-3 {
			t.Errorf("(%d,%d) = %v, want 200", c.x, c.y, v)
		}
		if !c.converted && v != -1 {
			t.Errorf("(%d,%d) was converted", c.x, c.y)
		}
	}
}

func TestGrayscaleSpan_MatchesFullConversionForAnalysis(t *testing.T) {
	const w, h = 64, 48
	a, b := NewFrame(w, h), NewFrame(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a.SetGray(x, y, uint8((x*7+y*3)%256))
			b.SetGray(x, y, uint8((x*13+y*5)%256))
		}
	}
	m := NewROIMask(w, h)

	full := Analyze(Grayscale(a).Lum, Grayscale(b).Lum, w, m)
	span := Analyze(grayscaleSpan(a, nil, m).Lum, grayscaleSpan(b, nil, m).Lum, w, m)
	if full != span {
		t.Errorf("span analysis %+v differs from full analysis %+v", span, full)
	}
}
