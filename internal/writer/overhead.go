package writer

import (
	"github.com/oxipng/oxipng/internal/apngchunk"
	"github.com/oxipng/oxipng/internal/chunkio"
	"github.com/oxipng/oxipng/internal/colors"
	"github.com/oxipng/oxipng/internal/pngimage"
)

// FixedOverhead is the byte count of every chunk WriteImage would emit for
// img other than its IDAT/fdAT chunks (neither their payloads nor their
// length/type/CRC framing and fdAT sequence numbers). The evaluator adds this
// to a trial's compressed size so candidates that differ in
// PLTE/tRNS/aux-chunk overhead (not just IDAT size) are compared on
// total file size, not just compression ratio.
func FixedOverhead(img *pngimage.Image, opts Options) int {
	total := 8 // signature
	total += chunkio.ChunkSize(13) // IHDR

	pre, postPalette, trailing := bucketAuxChunks(img.AuxChunks)
	total += auxBucketSize(pre, opts.Strip)
	total += auxBucketSize(postPalette, opts.Strip)
	total += auxBucketSize(trailing, opts.Strip)

	if img.Ihdr.ColorType == colors.Indexed {
		total += chunkio.ChunkSize(3 * len(img.Ihdr.Palette))
		if trns := apngchunk.NewChunk_tRNS_Indexed(img.Ihdr.Palette); trns != nil {
			total += chunkio.ChunkSize(trnsIndexedLen(img.Ihdr.Palette))
		}
	} else if len(img.Ihdr.TransparentColor) > 0 {
		total += chunkio.ChunkSize(2 * len(img.Ihdr.TransparentColor))
	}

	emitAnimation := img.IsAPNG && opts.Strip.Keep("acTL")
	if emitAnimation {
		total += chunkio.ChunkSize(8) // acTL
		for _, f := range img.Frames {
			if f.PartOfAnimation {
				total += chunkio.ChunkSize(26) // fcTL
			}
		}
	}

	total += chunkio.ChunkSize(0) // IEND
	return total
}

func auxBucketSize(chunks []pngimage.AuxChunk, strip interface{ Keep(string) bool }) int {
	n := 0
	for _, c := range chunks {
		if strip.Keep(c.Type) {
			n += chunkio.ChunkSize(len(c.Data))
		}
	}
	return n
}

// trnsIndexedLen mirrors NewChunk_tRNS_Indexed's trimming so FixedOverhead
// doesn't need to expose that chunk's internal payload.
func trnsIndexedLen(palette []colors.RGBA8) int {
	last := -1
	for i, c := range palette {
		if c.A != 255 {
			last = i
		}
	}
	return last + 1
}
