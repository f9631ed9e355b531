package chunkio

import (
	"bytes"
	stderrors "errors"
	"testing"
)

func buildPNG(t *testing.T, chunks [][2]interface{}) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.Write(Signature[:])
	for _, c := range chunks {
		typ := c[0].(string)
		data := c[1].([]byte)
		if _, err := WriteChunk(&buf, typ, data); err != nil {
			t.Fatalf("WriteChunk(%s): %v", typ, err)
		}
	}
	return buf.Bytes()
}

func TestReadChunksRoundTrip(t *testing.T) {
	raw := buildPNG(t, [][2]interface{}{
		{"IHDR", []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 0, 0, 0, 0}},
		{"IDAT", []byte{1, 2, 3}},
		{"IEND", []byte{}},
	})
	chunks, err := ReadChunks(bytes.NewReader(raw), false)
	if err != nil {
		t.Fatalf("ReadChunks: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[0].Type != "IHDR" || chunks[1].Type != "IDAT" || chunks[2].Type != "IEND" {
		t.Fatalf("unexpected chunk order: %+v", chunks)
	}
	if !chunks[1].CRCValid {
		t.Fatal("IDAT chunk's CRC should validate")
	}
}

func TestReadChunksRejectsBadSignature(t *testing.T) {
	_, err := ReadChunks(bytes.NewReader([]byte("not a png at all......")), false)
	if !stderrors.Is(err, ErrNotPNG) {
		t.Fatalf("err = %v, want ErrNotPNG", err)
	}
}

func TestReadChunksTruncated(t *testing.T) {
	raw := buildPNG(t, [][2]interface{}{{"IHDR", make([]byte, 13)}})
	_, err := ReadChunks(bytes.NewReader(raw[:len(raw)-5]), false)
	if !stderrors.Is(err, ErrTruncated) {
		t.Fatalf("err = %v, want ErrTruncated", err)
	}
}

func TestReadChunksCRCMismatch(t *testing.T) {
	raw := buildPNG(t, [][2]interface{}{
		{"IHDR", make([]byte, 13)},
		{"IEND", []byte{}},
	})
	// Corrupt one payload byte without touching its trailing CRC.
	raw[8+8+5] ^= 0xff

	if _, err := ReadChunks(bytes.NewReader(raw), false); !stderrors.Is(err, ErrCRCMismatch) {
		t.Fatalf("strict mode: err = %v, want ErrCRCMismatch", err)
	}

	chunks, err := ReadChunks(bytes.NewReader(raw), true)
	if err != nil {
		t.Fatalf("lenient mode should tolerate the mismatch: %v", err)
	}
	if chunks[0].CRCValid {
		t.Fatal("lenient mode should still flag CRCValid=false on the bad chunk")
	}
}

func TestSplitIDATRespectsMaxLen(t *testing.T) {
	data := bytes.Repeat([]byte{0xAB}, 10)
	parts := SplitIDAT(data, 4)
	if len(parts) != 3 {
		t.Fatalf("got %d parts, want 3", len(parts))
	}
	var rejoined []byte
	for _, p := range parts {
		if len(p) > 4 {
			t.Fatalf("part of length %d exceeds max 4", len(p))
		}
		rejoined = append(rejoined, p...)
	}
	if !bytes.Equal(rejoined, data) {
		t.Fatal("split parts should rejoin to the original data")
	}
}

func TestSplitIDATEmptyStillEmitsOnePart(t *testing.T) {
	parts := SplitIDAT(nil, 4)
	if len(parts) != 1 || len(parts[0]) != 0 {
		t.Fatalf("SplitIDAT(nil) = %v, want one empty part", parts)
	}
}
