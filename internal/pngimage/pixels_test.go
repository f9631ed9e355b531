package pngimage

import (
	"testing"

	"github.com/oxipng/oxipng/internal/colors"
)

func TestGetSetPixelRoundTripByteAligned(t *testing.T) {
	cases := []struct {
		c colors.ColorType
		b colors.BitDepth
	}{
		{colors.Grayscale, colors.Eight},
		{colors.Grayscale, colors.Sixteen},
		{colors.RGB, colors.Eight},
		{colors.RGBA, colors.Eight},
		{colors.GrayscaleAlpha, colors.Sixteen},
	}
	for _, tc := range cases {
		stride := BytesPerRow(4, tc.c, tc.b)
		row := make([]byte, stride)
		want := [4]uint16{0x12, 0x34, 0x56, 0x78}
		if tc.b == colors.Sixteen {
			want = [4]uint16{0x1234, 0x5678, 0x9abc, 0xdef0}
		}
		SetPixel(row, 1, tc.c, tc.b, want)
		got := GetPixel(row, 1, tc.c, tc.b)
		n := tc.c.Channels()
		for i := 0; i < n; i++ {
			if got[i] != want[i] {
				t.Fatalf("%v/%v channel %d: got %#x, want %#x", tc.c, tc.b, i, got[i], want[i])
			}
		}
	}
}

func TestGetSetPixelRoundTripSubByte(t *testing.T) {
	for _, bd := range []colors.BitDepth{colors.One, colors.Two, colors.Four} {
		stride := BytesPerRow(9, colors.Grayscale, bd)
		row := make([]byte, stride)
		maxVal := uint16(1<<uint(bd)) - 1
		for i := 0; i < 9; i++ {
			v := uint16(i) % (maxVal + 1)
			SetPixel(row, i, colors.Grayscale, bd, [4]uint16{v})
		}
		for i := 0; i < 9; i++ {
			want := uint16(i) % (maxVal + 1)
			if got := GetPixel(row, i, colors.Grayscale, bd)[0]; got != want {
				t.Fatalf("bitDepth=%v pixel %d: got %d, want %d", bd, i, got, want)
			}
		}
	}
}

func TestBytesPerRow(t *testing.T) {
	cases := []struct {
		width int
		c     colors.ColorType
		b     colors.BitDepth
		want  int
	}{
		{8, colors.Grayscale, colors.One, 1},
		{9, colors.Grayscale, colors.One, 2},
		{1, colors.RGB, colors.Eight, 3},
		{1, colors.RGBA, colors.Sixteen, 8},
		{3, colors.Indexed, colors.Four, 2},
	}
	for _, c := range cases {
		if got := BytesPerRow(uint32(c.width), c.c, c.b); got != c.want {
			t.Errorf("BytesPerRow(%d, %v, %v) = %d, want %d", c.width, c.c, c.b, got, c.want)
		}
	}
}

func TestAdam7PassesZeroForTinyImages(t *testing.T) {
	passes := adam7Passes(1, 1)
	if passes[0].rows != 1 || passes[0].cols != 1 {
		t.Fatalf("pass 0 for a 1x1 image = %+v, want rows=1 cols=1", passes[0])
	}
	// Passes 1-6 start past the only column or the only row, so each has a
	// zero count on that axis (and 1 on the other) and holds no pixels.
	want := [7]adam7Pass{1: {rows: 1}, 2: {cols: 1}, 3: {rows: 1}, 4: {cols: 1}, 5: {rows: 1}, 6: {cols: 1}}
	for i := 1; i < 7; i++ {
		if passes[i] != want[i] {
			t.Fatalf("pass %d for a 1x1 image = %+v, want %+v", i, passes[i], want[i])
		}
	}
}

func TestAdam7PixelPosCoversEveryPixelExactlyOnce(t *testing.T) {
	const w, h = 13, 11
	seen := make([][]bool, h)
	for i := range seen {
		seen[i] = make([]bool, w)
	}
	for passIdx, pass := range adam7Passes(w, h) {
		for row := 0; row < pass.rows; row++ {
			for col := 0; col < pass.cols; col++ {
				x, y := Adam7PixelPos(passIdx, row, col)
				if x < 0 || x >= w || y < 0 || y >= h {
					t.Fatalf("pass %d (%d,%d) maps out of bounds: (%d,%d)", passIdx, row, col, x, y)
				}
				if seen[y][x] {
					t.Fatalf("pixel (%d,%d) visited twice", x, y)
				}
				seen[y][x] = true
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !seen[y][x] {
				t.Fatalf("pixel (%d,%d) never visited by any Adam7 pass", x, y)
			}
		}
	}
}
