// Package writer assembles a complete PNG/APNG byte stream from a decoded
// Image plus each frame's already-filtered, already-deflated payload: it
// owns chunk ordering, the strip policy, and APNG sequence-number
// renumbering, calling down into internal/apngchunk for each chunk's wire
// encoding. Grounded on shutej-apng/writer.go's chunk set, generalized
// from a single-image encode into the full PNG/APNG chunk ordering rules.
package writer

import "github.com/oxipng/oxipng/internal/pngimage"

// preChunkTypes must appear before PLTE and IDAT.
var preChunkTypes = map[string]bool{
	"cHRM": true, "gAMA": true, "iCCP": true, "sBIT": true, "sRGB": true,
}

// postPaletteChunkTypes must appear after PLTE (when present) but before
// IDAT.
var postPaletteChunkTypes = map[string]bool{
	"bKGD": true, "hIST": true, "sPLT": true, "pHYs": true,
}

// bucketAuxChunks splits an Image's preserved ancillary chunks into the
// three writer-ordering buckets (pre-PLTE, post-PLTE, trailing), keeping
// each bucket's relative file order.
func bucketAuxChunks(chunks []pngimage.AuxChunk) (pre, postPalette, trailing []pngimage.AuxChunk) {
	for _, c := range chunks {
		switch {
		case preChunkTypes[c.Type]:
			pre = append(pre, c)
		case postPaletteChunkTypes[c.Type]:
			postPalette = append(postPalette, c)
		default:
			trailing = append(trailing, c)
		}
	}
	return
}
