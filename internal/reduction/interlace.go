package reduction

import (
	"github.com/oxipng/oxipng/internal/headers"
	"github.com/oxipng/oxipng/internal/pngimage"
)

// SetInterlacing toggles Adam7 interlacing.
// Frame.Data is always kept in straight (non-interlaced) scanline order
// internally (see pngimage.Image.Plane), so toggling is just flipping the
// IHDR flag: the filter engine and writer repack into Adam7 passes (or
// not) from that single canonical layout on demand. Reports whether the
// setting actually changed.
func SetInterlacing(img *pngimage.Image, to headers.Interlacing) bool {
	if img.Ihdr.Interlacing == to {
		return false
	}
	img.Ihdr.Interlacing = to
	return true
}
