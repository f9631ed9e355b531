package pngimage

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/oxipng/oxipng/internal/chunkio"
	"github.com/oxipng/oxipng/internal/colors"
	"github.com/oxipng/oxipng/internal/filters"
	"github.com/oxipng/oxipng/internal/headers"
)

// buildChunks assembles a minimal PNG chunk stream (signature, IHDR, any
// extra chunks, one IDAT, IEND) for feeding straight into Assemble.
func buildChunks(t *testing.T, ihdr []byte, idatPayload []byte, extra ...chunkio.Chunk) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(chunkio.Signature[:])
	mustWrite := func(typ string, data []byte) {
		if _, err := chunkio.WriteChunk(&buf, typ, data); err != nil {
			t.Fatalf("WriteChunk(%s): %v", typ, err)
		}
	}
	mustWrite("IHDR", ihdr)
	for _, c := range extra {
		mustWrite(c.Type, c.Data)
	}
	mustWrite("IDAT", idatPayload)
	mustWrite("IEND", nil)
	return buf.Bytes()
}

func ihdrBytes(width, height uint32, bitDepth colors.BitDepth, colorType colors.ColorType, interlace headers.Interlacing) []byte {
	b := make([]byte, 13)
	putU32 := func(off int, v uint32) {
		b[off] = byte(v >> 24)
		b[off+1] = byte(v >> 16)
		b[off+2] = byte(v >> 8)
		b[off+3] = byte(v)
	}
	putU32(0, width)
	putU32(4, height)
	b[8] = byte(bitDepth)
	b[9] = byte(colorType)
	b[10] = 0
	b[11] = 0
	b[12] = byte(interlace)
	return b
}

func zlibDeflate(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	return buf.Bytes()
}

func TestAssembleRoundTripsSimpleGrayscaleImage(t *testing.T) {
	ihdr := ihdrBytes(2, 2, colors.Eight, colors.Grayscale, headers.None)
	// Two rows, each: filter byte (None=0) + 2 pixel bytes.
	raw := []byte{0, 10, 20, 0, 30, 40}
	idat := zlibDeflate(t, raw)
	data := buildChunks(t, ihdr, idat)

	chunks, err := chunkio.ReadChunks(bytes.NewReader(data), false)
	if err != nil {
		t.Fatalf("ReadChunks: %v", err)
	}
	img, err := Assemble(chunks, 0)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if img.Ihdr.Width != 2 || img.Ihdr.Height != 2 {
		t.Fatalf("got %dx%d, want 2x2", img.Ihdr.Width, img.Ihdr.Height)
	}
	if len(img.Frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(img.Frames))
	}
	f := img.Frames[0]
	want := []byte{10, 20, 30, 40}
	if !bytes.Equal(f.Data, want) {
		t.Fatalf("unfiltered data = %v, want %v", f.Data, want)
	}
	if !f.IsDefaultImage {
		t.Fatal("the lone IDAT-backed frame should be the default image")
	}
	if got := f.OriginalFilters.Predefined; len(got) != 2 || got[0] != filters.None || got[1] != filters.None {
		t.Fatalf("OriginalFilters = %+v, want two None entries", got)
	}
}

func TestAssembleMissingIHDRFails(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(chunkio.Signature[:])
	chunkio.WriteChunk(&buf, "IEND", nil)
	chunks, err := chunkio.ReadChunks(bytes.NewReader(buf.Bytes()), false)
	if err != nil {
		t.Fatalf("ReadChunks: %v", err)
	}
	if _, err := Assemble(chunks, 0); err == nil {
		t.Fatal("expected an error when IHDR is missing")
	}
}

func TestAssembleIndexedWithoutPaletteFails(t *testing.T) {
	ihdr := ihdrBytes(1, 1, colors.Eight, colors.Indexed, headers.None)
	data := buildChunks(t, ihdr, zlibDeflate(t, []byte{0, 0}))
	chunks, err := chunkio.ReadChunks(bytes.NewReader(data), false)
	if err != nil {
		t.Fatalf("ReadChunks: %v", err)
	}
	if _, err := Assemble(chunks, 0); err == nil {
		t.Fatal("expected an error for an Indexed image with no PLTE chunk")
	}
}

func TestAssembleRejectsOutOfOrderFcTLSequence(t *testing.T) {
	ihdr := ihdrBytes(1, 1, colors.Eight, colors.Grayscale, headers.None)
	actl := make([]byte, 8)
	actl[3] = 2 // num_frames = 2
	fctl := make([]byte, 26)
	fctl[3] = 1 // sequence_number = 1, should be 0
	fctl[7] = 1 // width = 1
	fctl[11] = 1 // height = 1

	var buf bytes.Buffer
	buf.Write(chunkio.Signature[:])
	chunkio.WriteChunk(&buf, "IHDR", ihdr)
	chunkio.WriteChunk(&buf, "acTL", actl)
	chunkio.WriteChunk(&buf, "fcTL", fctl)
	chunkio.WriteChunk(&buf, "IDAT", zlibDeflate(t, []byte{0, 0}))
	chunkio.WriteChunk(&buf, "IEND", nil)

	chunks, err := chunkio.ReadChunks(bytes.NewReader(buf.Bytes()), false)
	if err != nil {
		t.Fatalf("ReadChunks: %v", err)
	}
	if _, err := Assemble(chunks, 0); err == nil {
		t.Fatal("expected an APNGOutOfOrderError for a non-zero first sequence number")
	}
}
