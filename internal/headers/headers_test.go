package headers

import (
	"testing"

	"github.com/oxipng/oxipng/internal/colors"
)

func TestIhdrDataValid(t *testing.T) {
	h := IhdrData{ColorType: colors.RGB, BitDepth: colors.Eight}
	if !h.Valid() {
		t.Fatal("RGB/8 should be a legal combination")
	}
	h.BitDepth = colors.Four
	if h.Valid() {
		t.Fatal("RGB/4 is not a legal IHDR combination")
	}
}

func TestIhdrDataValidIndexedNeedsPalette(t *testing.T) {
	h := IhdrData{ColorType: colors.Indexed, BitDepth: colors.Four}
	if h.Valid() {
		t.Fatal("an Indexed image with no palette entries should be invalid")
	}
	h.Palette = make([]colors.RGBA8, 16)
	if !h.Valid() {
		t.Fatal("16 entries should fit a bit depth of 4 (2^4 = 16)")
	}
	h.Palette = make([]colors.RGBA8, 17)
	if h.Valid() {
		t.Fatal("17 entries exceed 2^4 and should be invalid")
	}
}

func TestStripChunksNeverDropsCritical(t *testing.T) {
	for _, policy := range []StripChunks{
		{Kind: StripNone}, {Kind: StripAll}, {Kind: StripSafe},
		{Kind: StripKeep, Set: map[string]bool{}},
		{Kind: StripSet, Set: map[string]bool{"IDAT": true}},
	} {
		for _, critical := range []string{"IHDR", "IDAT", "PLTE", "tRNS", "IEND"} {
			if !policy.Keep(critical) {
				t.Fatalf("policy %+v should never drop critical chunk %s", policy, critical)
			}
		}
	}
}

func TestStripSafeKeepsDisplayRelevantOnly(t *testing.T) {
	s := StripChunks{Kind: StripSafe}
	if !s.Keep("gAMA") {
		t.Fatal("StripSafe should keep gAMA")
	}
	if s.Keep("tEXt") {
		t.Fatal("StripSafe should drop tEXt")
	}
}

func TestStripSetDropsExactlyNamed(t *testing.T) {
	s := StripChunks{Kind: StripSet, Set: map[string]bool{"tEXt": true}}
	if s.Keep("tEXt") {
		t.Fatal("StripSet should drop the named chunk")
	}
	if !s.Keep("gAMA") {
		t.Fatal("StripSet should keep everything not named")
	}
}

func TestStripKeepDropsExceptNamed(t *testing.T) {
	s := StripChunks{Kind: StripKeep, Set: map[string]bool{"gAMA": true}}
	if !s.Keep("gAMA") {
		t.Fatal("StripKeep should keep the named chunk")
	}
	if s.Keep("tEXt") {
		t.Fatal("StripKeep should drop everything not named")
	}
}
