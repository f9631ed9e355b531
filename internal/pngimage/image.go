// Package pngimage assembles decoded IDAT/fdAT streams into the in-memory
// raw-pixel representation the reduction and filter-engine layers operate
// on, and reverses the process for the writer. Grounded on fumin-png's
// reader.go (interlace pass geometry, per-row unfiltering dispatch) and
// shutej-apng's writer.go (the fcTL/fdAT field layout), generalized from
// single-image decoding to the full animated/interlaced cross product a
// general-purpose recompressor has to handle.
package pngimage

import (
	"github.com/oxipng/oxipng/internal/colors"
	"github.com/oxipng/oxipng/internal/filters"
	"github.com/oxipng/oxipng/internal/headers"
)

// DisposeOp is the APNG fcTL dispose_op byte.
type DisposeOp uint8

const (
	DisposeNone       DisposeOp = 0
	DisposeBackground DisposeOp = 1
	DisposePrevious   DisposeOp = 2
)

// BlendOp is the APNG fcTL blend_op byte.
type BlendOp uint8

const (
	BlendSource BlendOp = 0
	BlendOver   BlendOp = 1
)

// Frame is one APNG frame's geometry and raw (unfiltered, de-interlaced)
// pixel data. The default image (the one IDAT stream every PNG decoder
// falls back to) is represented the same way, with IsDefaultImage set.
type Frame struct {
	XOffset, YOffset uint32
	Width, Height    uint32
	DelayNum         uint16
	DelayDen         uint16
	Dispose          DisposeOp
	Blend            BlendOp

	// IsDefaultImage marks the frame backed by the leading IDAT sequence
	// rather than an fcTL+fdAT pair; per the APNG spec this frame may or
	// may not also be the first animation frame, controlled by whether
	// its own fcTL chunk precedes the IDAT data.
	IsDefaultImage bool
	// PartOfAnimation is false when IsDefaultImage is true and the
	// default image has no associated fcTL (it's a "hidden" base image
	// per the APNG spec, rendered by non-APNG-aware decoders only).
	PartOfAnimation bool

	// Data is the raw, unfiltered, non-interlaced scanline data: Height
	// rows of ceil(Width*channels*bitdepth/8) bytes each.
	Data []byte

	// OriginalFilters is the per-row filter sequence the input actually
	// used, captured at decode time so a low preset can recompress without
	// re-selecting filters.
	OriginalFilters filters.FilterStrategy
}

// BytesPerRow is the unfiltered row stride for a frame of this width under
// the image's color type and bit depth.
func BytesPerRow(width uint32, c colors.ColorType, b colors.BitDepth) int {
	bitsPerPixel := c.Channels() * int(b)
	return (int(width)*bitsPerPixel + 7) / 8
}

// BytesPerPixel is the filter engine's "bpp" parameter: always at least 1,
// rounding sub-byte depths up to a whole byte.
func BytesPerPixel(c colors.ColorType, b colors.BitDepth) int {
	bits := c.Channels() * int(b)
	if bits < 8 {
		return 1
	}
	return bits / 8
}

// Image is the fully decoded, pre-reduction in-memory form of a PNG or
// APNG: one IhdrData shared by every frame's geometry baseline, the
// default image plus any additional animation frames, and the ancillary
// chunks carried through verbatim in file order.
type Image struct {
	Ihdr headers.IhdrData

	// Frames holds every frame in file order; Frames[0] is always the
	// default image. Non-animated PNGs have exactly one entry.
	Frames []Frame

	// IsAPNG is true when an acTL chunk was present.
	IsAPNG   bool
	NumPlays uint32

	// AuxChunks holds every ancillary chunk as read, in file order,
	// excluding IHDR/PLTE/tRNS/IDAT/IEND/acTL/fcTL/fdAT which are modeled
	// structurally above.
	AuxChunks []AuxChunk
}

// AuxChunk is an ancillary chunk preserved verbatim because its payload
// isn't reinterpreted by any reduction pass.
type AuxChunk struct {
	Type string
	Data []byte
}

// Plane returns the Adam7 (or single, for non-interlaced images) passes of
// a frame as filters.Plane values ready for the filter engine, in pass
// order 1..7 (or the single implicit pass). f.Data is always the
// straight, full-raster (non-interlaced) scanline layout; for interlaced
// images Plane gathers each pass's sub-image into its own contiguous
// buffer, since Adam7 passes are filtered and compressed independently.
func (img *Image) Plane(f *Frame) []filters.Plane {
	bpp := BytesPerPixel(img.Ihdr.ColorType, img.Ihdr.BitDepth)
	colorBytes := alphaSplitColorBytes(img.Ihdr.ColorType, img.Ihdr.BitDepth, bpp)
	channels := img.Ihdr.ColorType.Channels()
	ct, bd := img.Ihdr.ColorType, img.Ihdr.BitDepth

	if img.Ihdr.Interlacing == headers.None {
		return []filters.Plane{{
			BPP:         bpp,
			ColorBytes:  colorBytes,
			Channels:    channels,
			BytesPerRow: BytesPerRow(f.Width, ct, bd),
			Rows:        int(f.Height),
			Data:        f.Data,
		}}
	}

	fullStride := BytesPerRow(f.Width, ct, bd)
	planes := make([]filters.Plane, 0, 7)
	for passIdx, pass := range adam7Passes(int(f.Width), int(f.Height)) {
		if pass.rows == 0 || pass.cols == 0 {
			continue
		}
		stride := BytesPerRow(uint32(pass.cols), ct, bd)
		data := make([]byte, stride*pass.rows)
		for row := 0; row < pass.rows; row++ {
			dstRow := data[row*stride : (row+1)*stride]
			for col := 0; col < pass.cols; col++ {
				x, y := Adam7PixelPos(passIdx, row, col)
				srcRow := f.Data[y*fullStride : (y+1)*fullStride]
				copyPixel(dstRow, col, srcRow, x, ct, bd)
			}
		}
		planes = append(planes, filters.Plane{
			BPP:         bpp,
			ColorBytes:  colorBytes,
			Channels:    channels,
			BytesPerRow: stride,
			Rows:        pass.rows,
			Data:        data,
		})
	}
	return planes
}

// ScatterPlanes is Plane's inverse: it writes each Adam7 pass's unfiltered
// pixel data back into a freshly allocated straight full-raster buffer. For
// non-interlaced images it's a direct copy. planeData must be in the same
// pass order and byte layout Plane would produce.
func ScatterPlanes(width, height uint32, ct colors.ColorType, bd colors.BitDepth, interlacing headers.Interlacing, planeData [][]byte) []byte {
	fullStride := BytesPerRow(width, ct, bd)
	out := make([]byte, fullStride*int(height))

	if interlacing == headers.None {
		copy(out, planeData[0])
		return out
	}

	passes := adam7Passes(int(width), int(height))
	pi := 0
	for passIdx, pass := range passes {
		if pass.rows == 0 || pass.cols == 0 {
			continue
		}
		stride := BytesPerRow(uint32(pass.cols), ct, bd)
		data := planeData[pi]
		pi++
		for row := 0; row < pass.rows; row++ {
			srcRow := data[row*stride : (row+1)*stride]
			for col := 0; col < pass.cols; col++ {
				x, y := Adam7PixelPos(passIdx, row, col)
				dstRow := out[y*fullStride : (y+1)*fullStride]
				copyPixel(dstRow, x, srcRow, col, ct, bd)
			}
		}
	}
	return out
}

// Clone deep-copies an Image so a reduction pass can mutate the copy in
// place (Frames[i].Data, Ihdr.Palette) without disturbing the original,
// letting the evaluator compare pre- and post-reduction variants.
func (img *Image) Clone() *Image {
	cp := *img
	cp.Ihdr.Palette = append([]colors.RGBA8(nil), img.Ihdr.Palette...)
	cp.Ihdr.TransparentColor = append([]uint16(nil), img.Ihdr.TransparentColor...)
	cp.Frames = make([]Frame, len(img.Frames))
	for i, f := range img.Frames {
		f.Data = append([]byte(nil), f.Data...)
		cp.Frames[i] = f
	}
	cp.AuxChunks = append([]AuxChunk(nil), img.AuxChunks...)
	return &cp
}

// alphaSplitColorBytes returns the number of leading "color" bytes per
// pixel, as OptimizeAlphaLine expects, or bpp itself (meaning "no alpha")
// for color types without a per-pixel alpha channel.
func alphaSplitColorBytes(c colors.ColorType, b colors.BitDepth, bpp int) int {
	if !c.HasAlpha() {
		return bpp
	}
	sampleBytes := int(b) / 8
	if sampleBytes == 0 {
		sampleBytes = 1
	}
	return bpp - sampleBytes
}
