package colors

import "testing"

func TestValidCombination(t *testing.T) {
	cases := []struct {
		c    ColorType
		b    BitDepth
		want bool
	}{
		{Grayscale, One, true},
		{Grayscale, Sixteen, true},
		{RGB, Eight, true},
		{RGB, Four, false},
		{Indexed, Four, true},
		{Indexed, Sixteen, false},
		{GrayscaleAlpha, Eight, true},
		{GrayscaleAlpha, One, false},
		{RGBA, Sixteen, true},
	}
	for _, c := range cases {
		if got := ValidCombination(c.c, c.b); got != c.want {
			t.Errorf("ValidCombination(%v, %v) = %v, want %v", c.c, c.b, got, c.want)
		}
	}
}

func TestChannels(t *testing.T) {
	cases := map[ColorType]int{
		Grayscale: 1, RGB: 3, Indexed: 1, GrayscaleAlpha: 2, RGBA: 4,
	}
	for c, want := range cases {
		if got := c.Channels(); got != want {
			t.Errorf("%v.Channels() = %d, want %d", c, got, want)
		}
	}
}

func TestSortKeyOrdersByAlphaThenLuma(t *testing.T) {
	transparent := RGBA8{R: 255, G: 255, B: 255, A: 0}
	opaqueDark := RGBA8{R: 0, G: 0, B: 0, A: 255}
	opaqueBright := RGBA8{R: 255, G: 255, B: 255, A: 255}

	if transparent.SortKey() >= opaqueDark.SortKey() {
		t.Fatal("a fully transparent entry must sort before any opaque entry")
	}
	if opaqueBright.SortKey() >= opaqueDark.SortKey() {
		t.Fatal("higher luma must sort before lower luma at equal alpha (descending luma)")
	}
}

func TestSampleDepthIndexedIsAlways8(t *testing.T) {
	if got := SampleDepth(Indexed, Two); got != Eight {
		t.Fatalf("SampleDepth(Indexed, Two) = %v, want Eight", got)
	}
	if got := SampleDepth(Grayscale, Four); got != Four {
		t.Fatalf("SampleDepth(Grayscale, Four) = %v, want Four", got)
	}
}
