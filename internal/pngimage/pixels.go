package pngimage

import "github.com/oxipng/oxipng/internal/colors"

// GetPixel reads pixelIdx's channel samples from one straight-raster row,
// normalized to one uint16 per channel regardless of storage bit depth (so
// callers comparing sample values don't need to special-case depth). Only
// channels 1 (grayscale/indexed) may have bit depth below 8.
func GetPixel(row []byte, pixelIdx int, c colors.ColorType, b colors.BitDepth) [4]uint16 {
	var out [4]uint16
	n := c.Channels()
	if stride := pixelStride(c, b); stride > 0 {
		bytesPer := stride / n
		base := pixelIdx * stride
		for ch := 0; ch < n; ch++ {
			off := base + ch*bytesPer
			if bytesPer == 2 {
				out[ch] = uint16(row[off])<<8 | uint16(row[off+1])
			} else {
				out[ch] = uint16(row[off])
			}
		}
		return out
	}
	out[0] = uint16(getSubBytePixel(row, pixelIdx, int(b)))
	return out
}

// SetPixel is GetPixel's inverse.
func SetPixel(row []byte, pixelIdx int, c colors.ColorType, b colors.BitDepth, v [4]uint16) {
	n := c.Channels()
	if stride := pixelStride(c, b); stride > 0 {
		bytesPer := stride / n
		base := pixelIdx * stride
		for ch := 0; ch < n; ch++ {
			off := base + ch*bytesPer
			if bytesPer == 2 {
				row[off] = byte(v[ch] >> 8)
				row[off+1] = byte(v[ch])
			} else {
				row[off] = byte(v[ch])
			}
		}
		return
	}
	setSubBytePixel(row, pixelIdx, int(b), uint8(v[0]))
}

// ForEachPixel walks every pixel of every row in a straight raster, calling
// fn with the pixel index within its row. Reduction passes build their
// per-image analyses (distinct colors, max sample value, alpha usage) on
// top of this.
func ForEachPixel(data []byte, width, height int, c colors.ColorType, b colors.BitDepth, fn func(row []byte, idx int)) {
	stride := BytesPerRow(uint32(width), c, b)
	for y := 0; y < height; y++ {
		row := data[y*stride : (y+1)*stride]
		for x := 0; x < width; x++ {
			fn(row, x)
		}
	}
}
