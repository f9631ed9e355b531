package reduction

import (
	"github.com/oxipng/oxipng/internal/colors"
	"github.com/oxipng/oxipng/internal/pngimage"
)

// ReduceColorType runs the color-type cascade,
// trying each applicable reduction in order and applying the first that
// succeeds. allowGrayscale gates the RGBA->GrayscaleAlpha, RGB->Grayscale,
// and GrayscaleAlpha->Grayscale steps independently of the rest of the
// cascade, matching oxipng's separate grayscale_reduction toggle. Reports
// whether the image changed; callers should follow a successful call with
// ReducePalette (if now Indexed) and ReduceBitDepth, matching RunCascade's
// ordering.
func ReduceColorType(img *pngimage.Image, allowGrayscale bool) bool {
	switch img.Ihdr.ColorType {
	case colors.RGBA:
		if allowGrayscale && rgbaToGrayscaleAlpha(img) {
			return true
		}
		if rgbaOrRGBToIndexed(img) {
			return true
		}
		return rgbaToRGB(img)
	case colors.GrayscaleAlpha:
		return allowGrayscale && grayscaleAlphaToGrayscale(img)
	case colors.RGB:
		if allowGrayscale && rgbToGrayscale(img) {
			return true
		}
		return rgbaOrRGBToIndexed(img)
	default:
		return false
	}
}

func eachPixel4(img *pngimage.Image, fn func(v [4]uint16) bool) bool {
	ct, bd := img.Ihdr.ColorType, img.Ihdr.BitDepth
	for _, f := range img.Frames {
		width, height := int(f.Width), int(f.Height)
		stride := pngimage.BytesPerRow(f.Width, ct, bd)
		for y := 0; y < height; y++ {
			row := f.Data[y*stride : (y+1)*stride]
			for x := 0; x < width; x++ {
				if !fn(pngimage.GetPixel(row, x, ct, bd)) {
					return false
				}
			}
		}
	}
	return true
}

func maxSample(bd colors.BitDepth) uint16 {
	if bd == colors.Sixteen {
		return 0xffff
	}
	return 0xff
}

// rgbaToGrayscaleAlpha applies when every pixel has R=G=B.
func rgbaToGrayscaleAlpha(img *pngimage.Image) bool {
	ok := eachPixel4(img, func(v [4]uint16) bool { return v[0] == v[1] && v[1] == v[2] })
	if !ok {
		return false
	}
	convertChannels(img, colors.GrayscaleAlpha, func(v [4]uint16) [4]uint16 {
		return [4]uint16{v[0], v[3]}
	})
	return true
}

// rgbToGrayscale applies when every pixel has R=G=B (RGB, no alpha).
func rgbToGrayscale(img *pngimage.Image) bool {
	ok := eachPixel4(img, func(v [4]uint16) bool { return v[0] == v[1] && v[1] == v[2] })
	if !ok {
		return false
	}
	convertChannels(img, colors.Grayscale, func(v [4]uint16) [4]uint16 {
		return [4]uint16{v[0]}
	})
	return true
}

// grayscaleAlphaToGrayscale applies the same opaque-or-single-transparent-
// color criterion as rgbaToRGB, but on one channel.
func grayscaleAlphaToGrayscale(img *pngimage.Image) bool {
	full := maxSample(img.Ihdr.BitDepth)
	trans, ok := findSingleTransparentColor(img, full, 1, 1, func(v [4]uint16) [3]uint16 { return [3]uint16{v[0], 0, 0} })
	if !ok {
		return false
	}
	convertChannels(img, colors.Grayscale, func(v [4]uint16) [4]uint16 {
		return [4]uint16{v[0]}
	})
	if trans != nil {
		img.Ihdr.TransparentColor = []uint16{trans[0]}
	}
	return true
}

// rgbaToRGB applies iff every alpha is full, or exactly one distinct color
// is fully transparent and every other pixel is fully opaque (that color
// becomes tRNS).
func rgbaToRGB(img *pngimage.Image) bool {
	full := maxSample(img.Ihdr.BitDepth)
	trans, ok := findSingleTransparentColor(img, full, 3, 3, func(v [4]uint16) [3]uint16 { return [3]uint16{v[0], v[1], v[2]} })
	if !ok {
		return false
	}
	convertChannels(img, colors.RGB, func(v [4]uint16) [4]uint16 {
		return [4]uint16{v[0], v[1], v[2]}
	})
	if trans != nil {
		img.Ihdr.TransparentColor = trans[:]
	}
	return true
}

// findSingleTransparentColor scans every pixel, reading the alpha sample
// from v[alphaIndex] (the last of the color type's Channels() samples —
// v[1] for GrayscaleAlpha, v[3] for RGBA; the 4-wide getter shim otherwise
// leaves unused trailing indices at zero, which would misread as alpha=0
// for every pixel if assumed to always be v[3]). All pixels must be either
// fully opaque or fully transparent, every transparent pixel must share the
// same color channel values, and that shared color must not also occur
// among the opaque pixels (otherwise the opaque occurrences would decode
// as transparent after the tRNS rewrite). Returns (nil, true) when every
// pixel is opaque, (color, true) when exactly one eligible transparent
// color exists, or (nil, false) when the image can't be reduced this way.
func findSingleTransparentColor(img *pngimage.Image, full uint16, alphaIndex, colorChannels int, colorOf func([4]uint16) [3]uint16) ([]uint16, bool) {
	var transColor [3]uint16
	haveTrans := false
	opaqueColors := make(map[[3]uint16]bool)
	ok := eachPixel4(img, func(v [4]uint16) bool {
		alpha := v[alphaIndex]
		switch alpha {
		case full:
			opaqueColors[colorOf(v)] = true
			return true
		case 0:
			c := colorOf(v)
			if !haveTrans {
				transColor = c
				haveTrans = true
				return true
			}
			return c == transColor
		default:
			return false
		}
	})
	if !ok {
		return nil, false
	}
	if !haveTrans {
		return nil, true
	}
	if opaqueColors[transColor] {
		return nil, false
	}
	return append([]uint16{}, transColor[:colorChannels]...), true
}

// rgbaOrRGBToIndexed applies iff the image has 256 or fewer distinct
// colors (including alpha, for RGBA).
func rgbaOrRGBToIndexed(img *pngimage.Image) bool {
	hasAlpha := img.Ihdr.ColorType.HasAlpha()
	if img.Ihdr.BitDepth == colors.Sixteen {
		return false // palette entries are 8-bit; 16-bit samples can't map losslessly
	}
	trns := img.Ihdr.TransparentColor
	seen := make(map[colors.RGBA8]bool, 257)
	var order []colors.RGBA8
	ok := eachPixel4(img, func(v [4]uint16) bool {
		a := uint8(255)
		if hasAlpha {
			a = uint8(v[3])
		} else if len(trns) == 3 && v[0] == trns[0] && v[1] == trns[1] && v[2] == trns[2] {
			a = 0
		}
		c := colors.RGBA8{R: uint8(v[0]), G: uint8(v[1]), B: uint8(v[2]), A: a}
		if !seen[c] {
			if len(order) >= 256 {
				return false
			}
			seen[c] = true
			order = append(order, c)
		}
		return true
	})
	if !ok {
		return false
	}

	index := make(map[colors.RGBA8]uint16, len(order))
	for i, c := range order {
		index[c] = uint16(i)
	}

	convertChannels(img, colors.Indexed, func(v [4]uint16) [4]uint16 {
		a := uint8(255)
		if hasAlpha {
			a = uint8(v[3])
		} else if len(trns) == 3 && v[0] == trns[0] && v[1] == trns[1] && v[2] == trns[2] {
			a = 0
		}
		c := colors.RGBA8{R: uint8(v[0]), G: uint8(v[1]), B: uint8(v[2]), A: a}
		return [4]uint16{index[c]}
	})
	img.Ihdr.Palette = order
	img.Ihdr.TransparentColor = nil
	return true
}

// convertChannels rewrites every frame's pixel data from the image's
// current color type into newType, sample-by-sample via convert, then
// updates Ihdr.ColorType (bit depth is left as-is; ReduceBitDepth decides
// afterward whether a narrower depth now fits).
func convertChannels(img *pngimage.Image, newType colors.ColorType, convert func([4]uint16) [4]uint16) {
	oldType, bd := img.Ihdr.ColorType, img.Ihdr.BitDepth
	for fi := range img.Frames {
		f := &img.Frames[fi]
		width, height := int(f.Width), int(f.Height)
		oldStride := pngimage.BytesPerRow(f.Width, oldType, bd)
		newStride := pngimage.BytesPerRow(f.Width, newType, bd)
		newData := make([]byte, newStride*height)
		for y := 0; y < height; y++ {
			oldRow := f.Data[y*oldStride : (y+1)*oldStride]
			newRow := newData[y*newStride : (y+1)*newStride]
			for x := 0; x < width; x++ {
				v := pngimage.GetPixel(oldRow, x, oldType, bd)
				pngimage.SetPixel(newRow, x, newType, bd, convert(v))
			}
		}
		f.Data = newData
	}
	img.Ihdr.ColorType = newType
}
