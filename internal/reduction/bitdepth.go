package reduction

import (
	"github.com/oxipng/oxipng/internal/colors"
	"github.com/oxipng/oxipng/internal/pngimage"
)

// ReduceBitDepth finds the smallest bit
// depth the current color type/sample range allows and repacks to it.
// Reports whether anything changed.
func ReduceBitDepth(img *pngimage.Image, scale16 bool) bool {
	switch img.Ihdr.ColorType {
	case colors.Grayscale:
		return reduceGrayscaleDepth(img, scale16)
	case colors.Indexed:
		return reduceIndexedDepth(img)
	case colors.RGB, colors.GrayscaleAlpha, colors.RGBA:
		return reduce16To8(img, scale16)
	default:
		return false
	}
}

func reduceIndexedDepth(img *pngimage.Image) bool {
	need := colors.Eight
	n := len(img.Ihdr.Palette)
	for _, d := range colors.BitDepths8OrLess {
		if 1<<uint(d) >= n {
			need = d
			break
		}
	}
	if need >= img.Ihdr.BitDepth {
		return false
	}
	repackDepth(img, need)
	return true
}

func reduceGrayscaleDepth(img *pngimage.Image, scale16 bool) bool {
	if img.Ihdr.BitDepth == colors.Sixteen {
		return reduce16To8(img, scale16)
	}

	maxVal := uint16(0)
	eachPixel4(img, func(v [4]uint16) bool {
		if v[0] > maxVal {
			maxVal = v[0]
		}
		return true
	})

	need := colors.Eight
	for _, d := range colors.BitDepths8OrLess {
		if maxVal <= (1<<uint(d))-1 {
			need = d
			break
		}
	}
	if need >= img.Ihdr.BitDepth {
		return false
	}
	repackDepth(img, need)
	return true
}

func repackDepth(img *pngimage.Image, newDepth colors.BitDepth) {
	ct, oldDepth := img.Ihdr.ColorType, img.Ihdr.BitDepth
	for fi := range img.Frames {
		f := &img.Frames[fi]
		width, height := int(f.Width), int(f.Height)
		oldStride := pngimage.BytesPerRow(f.Width, ct, oldDepth)
		newStride := pngimage.BytesPerRow(f.Width, ct, newDepth)
		newData := make([]byte, newStride*height)
		for y := 0; y < height; y++ {
			oldRow := f.Data[y*oldStride : (y+1)*oldStride]
			newRow := newData[y*newStride : (y+1)*newStride]
			for x := 0; x < width; x++ {
				v := pngimage.GetPixel(oldRow, x, ct, oldDepth)
				pngimage.SetPixel(newRow, x, ct, newDepth, v)
			}
		}
		f.Data = newData
	}
	img.Ihdr.BitDepth = newDepth
}

// reduce16To8 applies when every 16-bit sample's high byte equals its low
// byte (lossless), or unconditionally when scale16 is opted in, using a
// "v >> 8 + round" scaling rule.
func reduce16To8(img *pngimage.Image, scale16 bool) bool {
	if img.Ihdr.BitDepth != colors.Sixteen {
		return false
	}
	n := img.Ihdr.ColorType.Channels()

	losslessOK := eachPixel4(img, func(v [4]uint16) bool {
		for i := 0; i < n; i++ {
			if v[i]>>8 != v[i]&0xff {
				return false
			}
		}
		return true
	})
	trns := img.Ihdr.TransparentColor
	for _, t := range trns {
		if t>>8 != t&0xff {
			losslessOK = false
		}
	}
	if !losslessOK && !scale16 {
		return false
	}
	for i, t := range trns {
		if losslessOK {
			trns[i] = t >> 8
		} else {
			trns[i] = scale16Sample(t)
		}
	}

	ct, bd := img.Ihdr.ColorType, img.Ihdr.BitDepth
	for fi := range img.Frames {
		f := &img.Frames[fi]
		width, height := int(f.Width), int(f.Height)
		oldStride := pngimage.BytesPerRow(f.Width, ct, bd)
		newStride := pngimage.BytesPerRow(f.Width, ct, colors.Eight)
		newData := make([]byte, newStride*height)
		for y := 0; y < height; y++ {
			oldRow := f.Data[y*oldStride : (y+1)*oldStride]
			newRow := newData[y*newStride : (y+1)*newStride]
			for x := 0; x < width; x++ {
				v := pngimage.GetPixel(oldRow, x, ct, bd)
				for i := 0; i < n; i++ {
					if losslessOK {
						v[i] = v[i] >> 8
					} else {
						v[i] = scale16Sample(v[i])
					}
				}
				pngimage.SetPixel(newRow, x, ct, colors.Eight, v)
			}
		}
		f.Data = newData
	}
	img.Ihdr.BitDepth = colors.Eight
	return true
}

// scale16Sample implements "v >> 8 + round", rounding so that 0x00FF maps
// to 0x01 rather than truncating to 0.
func scale16Sample(v uint16) uint16 {
	return uint16((uint32(v)*255 + 32895) >> 16)
}
