package motion

import "testing"

func TestNewROIMask_Bounds320x240(t *testing.T) {
	m := NewROIMask(320, 240)

	if m.MinX != 105 || m.MaxX != 214 {
		t.Errorf("x bounds = [%d,%d], want [105,214]", m.MinX, m.MaxX)
	}
	if m.MinY != 48 || m.MaxY != 192 {
		t.Errorf("y bounds = [%d,%d], want [48,192]", m.MinY, m.MaxY)
	}

	wantLen := (214 - 105 + 1) * (192 - 48 + 1)
	if m.Len() != wantLen {
		t.Errorf("Len() = %d, want %d", m.Len(), wantLen)
	}

	checks := []struct {
		x, y int
		want bool
	}{
		{105, 48, true},
		{214, 192, true},
		{104, 100, false},
		{215, 100, false},
		{150, 47, false},
		{150, 193, false},
	}
	for _, c := range checks {
		if got := m.Mask[c.y*320+c.x]; got != c.want {
			t.Errorf("Mask(%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
		if got := m.Contains(c.x, c.y); got != c.want {
			t.Errorf("Contains(%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestROIMask_IndicesMatchMask(t *testing.T) {
	m := NewROIMask(64, 48)
	count := 0
	for _, in := range m.Mask {
		if in {
			count++
		}
	}
	if count != len(m.Indices) {
		t.Fatalf("mask has %d set pixels, indices has %d", count, len(m.Indices))
	}
	for _, i := range m.Indices {
		if !m.Mask[i] {
			t.Fatalf("index %d not set in mask", i)
		}
	}
}

func TestROIMask_Matches(t *testing.T) {
	var nilMask *ROIMask
	if nilMask.Matches(10, 10) {
		t.Error("nil mask must not match")
	}
	m := NewROIMask(10, 20)
	if !m.Matches(10, 20) {
		t.Error("expected match for same dimensions")
	}
	if m.Matches(20, 10) {
		t.Error("expected mismatch for swapped dimensions")
	}
}

func TestNewROIMask_TinyFrame(t *testing.T) {
	m := NewROIMask(1, 1)
	if m.Len() != 1 || !m.Mask[0] {
		t.Errorf("1x1 frame should have its single pixel in the ROI, got len=%d", m.Len())
	}
}

func TestROIMask_ReadSpan(t *testing.T) {
	tests := []struct {
		w, h                   int
		minX, maxX, minY, maxY int
	}{
		{320, 240, 105, 215, 48, 193},
		{1280, 720, 422, 858, 144, 577},
		{3, 3, 0, 2, 0, 2},
		{1, 1, 0, 0, 0, 0},
	}
	for _, tc := range tests {
		m := NewROIMask(tc.w, tc.h)
		minX, maxX, minY, maxY := m.ReadSpan()
		if minX != tc.minX || maxX != tc.maxX || minY != tc.minY || maxY != tc.maxY {
			t.Errorf("%dx%d: span x[%d,%d] y[%d,%d], want x[%d,%d] y[%d,%d]",
				tc.w, tc.h, minX, maxX, minY, maxY, tc.minX, tc.maxX, tc.minY, tc.maxY)
		}
	}
}
