package apngchunk

import (
	"bytes"
	"testing"

	"github.com/oxipng/oxipng/internal/colors"
)

func TestIHDRRoundTripBytes(t *testing.T) {
	ihdr := &Chunk_IHDR{Width: 4, Height: 2, BitDepth: colors.Eight, ColorType: colors.RGBA}
	var buf bytes.Buffer
	n, err := ihdr.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("reported %d bytes, wrote %d", n, buf.Len())
	}
	if buf.Len() != 25 { // 4 length + 4 type + 13 payload + 4 crc
		t.Fatalf("unexpected IHDR chunk size %d", buf.Len())
	}
	if string(buf.Bytes()[4:8]) != "IHDR" {
		t.Fatalf("chunk type = %q, want IHDR", buf.Bytes()[4:8])
	}
}

func TestSequenceNumbersStrictlyIncrease(t *testing.T) {
	seq := NewSequenceNumbers()
	for i := uint32(0); i < 5; i++ {
		if got := seq.Next(); got != i {
			t.Fatalf("Next() = %d, want %d", got, i)
		}
	}
}

func TestChunk_tRNS_IndexedTrimsTrailingOpaque(t *testing.T) {
	palette := []colors.RGBA8{
		{R: 1, G: 2, B: 3, A: 0},
		{R: 4, G: 5, B: 6, A: 255},
		{R: 7, G: 8, B: 9, A: 255},
	}
	chunk := NewChunk_tRNS_Indexed(palette)
	if chunk == nil {
		t.Fatal("expected non-nil tRNS chunk")
	}
	if len(chunk.data) != 1 {
		t.Fatalf("tRNS data length = %d, want 1 (trailing opaque entries trimmed)", len(chunk.data))
	}

	allOpaque := []colors.RGBA8{{A: 255}, {A: 255}}
	if got := NewChunk_tRNS_Indexed(allOpaque); got != nil {
		t.Fatalf("expected nil tRNS chunk for an all-opaque palette, got %v", got)
	}
}
