package writer

import (
	"bytes"
	"testing"

	"github.com/oxipng/oxipng/internal/chunkio"
	"github.com/oxipng/oxipng/internal/colors"
	"github.com/oxipng/oxipng/internal/headers"
	"github.com/oxipng/oxipng/internal/pngimage"
)

func chunkTypes(t *testing.T, raw []byte) []string {
	t.Helper()
	chunks, err := chunkio.ReadChunks(bytes.NewReader(raw), false)
	if err != nil {
		t.Fatalf("ReadChunks: %v", err)
	}
	types := make([]string, len(chunks))
	for i, c := range chunks {
		types[i] = c.Type
	}
	return types
}

func singleFrameImage() *pngimage.Image {
	return &pngimage.Image{
		Ihdr: headers.IhdrData{Width: 2, Height: 2, ColorType: colors.Grayscale, BitDepth: colors.Eight},
		Frames: []pngimage.Frame{
			{Width: 2, Height: 2, IsDefaultImage: true, Data: []byte{0, 0, 0, 0}},
		},
		AuxChunks: []pngimage.AuxChunk{
			{Type: "gAMA", Data: []byte{0, 0, 0x9a, 0x1}},
			{Type: "bKGD", Data: []byte{0, 0}},
			{Type: "tEXt", Data: []byte("key\x00value")},
		},
	}
}

func indexOf(types []string, typ string) int {
	for i, t := range types {
		if t == typ {
			return i
		}
	}
	return -1
}

func TestWriteImageChunkOrdering(t *testing.T) {
	img := singleFrameImage()
	var buf bytes.Buffer
	if err := WriteImage(&buf, img, FrameData{{0x01, 0x02}}, Options{}); err != nil {
		t.Fatalf("WriteImage: %v", err)
	}

	types := chunkTypes(t, buf.Bytes())
	if types[0] != "IHDR" {
		t.Fatalf("first chunk = %s, want IHDR", types[0])
	}
	if types[len(types)-1] != "IEND" {
		t.Fatalf("last chunk = %s, want IEND", types[len(types)-1])
	}
	if indexOf(types, "gAMA") >= indexOf(types, "IDAT") {
		t.Fatal("gAMA (a pre-IDAT chunk) must come before IDAT")
	}
	if indexOf(types, "gAMA") > indexOf(types, "bKGD") {
		t.Fatal("gAMA must still precede bKGD (both pre-palette/post-palette buckets keep relative order)")
	}
	if indexOf(types, "tEXt") < indexOf(types, "IDAT") {
		t.Fatal("tEXt isn't a recognized pre/post-palette chunk and should trail after IDAT")
	}
}

func TestWriteImageStripAllDropsAncillaryButKeepsCritical(t *testing.T) {
	img := singleFrameImage()
	var buf bytes.Buffer
	opts := Options{Strip: headers.StripChunks{Kind: headers.StripAll}}
	if err := WriteImage(&buf, img, FrameData{{0x01}}, opts); err != nil {
		t.Fatalf("WriteImage: %v", err)
	}
	types := chunkTypes(t, buf.Bytes())
	for _, typ := range []string{"gAMA", "bKGD", "tEXt"} {
		if indexOf(types, typ) >= 0 {
			t.Fatalf("StripAll should have dropped %s, chunk list: %v", typ, types)
		}
	}
	for _, typ := range []string{"IHDR", "IDAT", "IEND"} {
		if indexOf(types, typ) < 0 {
			t.Fatalf("StripAll must never drop the critical chunk %s", typ)
		}
	}
}

func TestWriteImageRejectsFrameDataLengthMismatch(t *testing.T) {
	img := singleFrameImage()
	var buf bytes.Buffer
	if err := WriteImage(&buf, img, FrameData{}, Options{}); err == nil {
		t.Fatal("expected an error when frameData doesn't match the frame count")
	}
}

func TestBucketAuxChunksPreservesRelativeOrder(t *testing.T) {
	chunks := []pngimage.AuxChunk{
		{Type: "gAMA"}, {Type: "tEXt"}, {Type: "cHRM"}, {Type: "bKGD"}, {Type: "zTXt"},
	}
	pre, post, trailing := bucketAuxChunks(chunks)
	if len(pre) != 2 || pre[0].Type != "gAMA" || pre[1].Type != "cHRM" {
		t.Fatalf("pre bucket = %+v, want [gAMA cHRM]", pre)
	}
	if len(post) != 1 || post[0].Type != "bKGD" {
		t.Fatalf("post bucket = %+v, want [bKGD]", post)
	}
	if len(trailing) != 2 || trailing[0].Type != "tEXt" || trailing[1].Type != "zTXt" {
		t.Fatalf("trailing bucket = %+v, want [tEXt zTXt]", trailing)
	}
}
